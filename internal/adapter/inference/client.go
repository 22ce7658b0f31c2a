package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/agrimart/agrimart/internal/core/domain"
)

// Client talks to the external crop-disease classification service. The
// service receives a raw image and answers with plant/health flags and
// ranked disease probabilities; everything behind that endpoint is
// opaque to us.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type diagnoseResponse struct {
	IsPlant           bool    `json:"is_plant"`
	PlantProbability  float64 `json:"plant_probability"`
	IsHealthy         bool    `json:"is_healthy"`
	HealthProbability float64 `json:"health_probability"`
	Diseases          []struct {
		Name        string  `json:"name"`
		Probability float64 `json:"probability"`
		Description string  `json:"description"`
	} `json:"diseases"`
}

func (c *Client) Classify(ctx context.Context, image io.Reader, filename string) (*domain.Diagnosis, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart form: %w", err)
	}
	if _, err := io.Copy(fw, image); err != nil {
		return nil, fmt.Errorf("copy image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/diagnose", body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call classifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var out diagnoseResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode classifier response: %w", err)
	}

	d := &domain.Diagnosis{
		IsPlant:           out.IsPlant,
		PlantProbability:  out.PlantProbability,
		IsHealthy:         out.IsHealthy,
		HealthProbability: out.HealthProbability,
		Diseases:          make([]domain.DiseaseCandidate, 0, len(out.Diseases)),
	}
	for _, cand := range out.Diseases {
		d.Diseases = append(d.Diseases, domain.DiseaseCandidate{
			Name:        cand.Name,
			Probability: cand.Probability,
			Description: cand.Description,
		})
	}
	return d, nil
}
