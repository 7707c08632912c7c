package face

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hamzaharrayhan/face-recognition-login/internal/errs"
	"github.com/hamzaharrayhan/face-recognition-login/internal/imaging"
	"github.com/hamzaharrayhan/face-recognition-login/internal/model"
)

// Encoder extracts one encoding per detected face. Zero faces is not an error.
type Encoder interface {
	Encode(ctx context.Context, img image.Image) ([]model.FaceEncoding, error)
}

// HTTPEncoder calls a face-recognition sidecar over HTTP.
type HTTPEncoder struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPEncoder creates an encoder client for baseURL.
func NewHTTPEncoder(baseURL string, timeout time.Duration) *HTTPEncoder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPEncoder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type encodingsResponse struct {
	Encodings [][]float64 `json:"encodings"`
}

// Encode posts img as JPEG to {base}/encodings.
func (c *HTTPEncoder) Encode(ctx context.Context, img image.Image) ([]model.FaceEncoding, error) {
	body, err := imaging.EncodeJPEG(img)
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/encodings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", errs.ErrFaceService, err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrFaceService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", errs.ErrFaceService, resp.StatusCode, string(b))
	}

	var out encodingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", errs.ErrFaceService, err)
	}
	encs := make([]model.FaceEncoding, len(out.Encodings))
	for i, e := range out.Encodings {
		encs[i] = model.FaceEncoding(e)
	}
	return encs, nil
}

// HealthCheck verifies the sidecar answers {base}/healthz with 200.
func (c *HTTPEncoder) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("face encoder health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("face encoder health: status %d", resp.StatusCode)
	}
	return nil
}
