package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/agrimart/agrimart/internal/core/domain"
	"github.com/agrimart/agrimart/internal/port"
)

// DetectionService runs the crop-disease diagnosis flow by delegating
// to the external image-classification service.
type DetectionService struct {
	classifier port.Classifier
	log        *slog.Logger
}

func NewDetectionService(classifier port.Classifier, log *slog.Logger) *DetectionService {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &DetectionService{classifier: classifier, log: log}
}

func (s *DetectionService) Diagnose(ctx context.Context, image io.Reader, filename string) (*domain.Diagnosis, error) {
	start := time.Now()
	d, err := s.classifier.Classify(ctx, image, filename)
	if err != nil {
		return nil, fmt.Errorf("classify image: %w", err)
	}
	s.log.Info("diagnosis complete", "filename", filename,
		"is_plant", d.IsPlant, "is_healthy", d.IsHealthy,
		"candidates", len(d.Diseases), "duration_ms", time.Since(start).Milliseconds())
	return d, nil
}
