package port

import (
	"context"
	"io"

	"github.com/agrimart/agrimart/internal/core/domain"
)

// Classifier sends a crop image to the external inference service and
// returns disease probabilities.
type Classifier interface {
	Classify(ctx context.Context, image io.Reader, filename string) (*domain.Diagnosis, error)
}
