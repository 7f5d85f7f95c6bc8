// Package classifier calls an external auscultation inference service that
// labels a heart or lung sound recording.
package classifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"mime/multipart"
	"net/http"
	"slices"
	"strings"

	"github.com/one2ten/stetho-agent/pkg/formatting"
	"github.com/one2ten/stetho-agent/pkg/retry"
)

var (
	// ErrClassificationFailed is returned when the inference service cannot label a recording.
	ErrClassificationFailed = errors.New("audio classification failed")
	// ErrNotConfigured is returned when no inference service address is set.
	ErrNotConfigured = errors.New("audio classifier not configured")
)

const (
	classifyEndpoint = "/classify"
	maxErrorBody     = 4096
)

// Classification is the label assigned to a recording with its class probabilities.
type Classification struct {
	FileName        string             `json:"file_name,omitempty"`
	Label           string             `json:"classification"`
	Confidence      float64            `json:"confidence"`
	Probabilities   map[string]float64 `json:"probabilities"`
	SpectrogramPath string             `json:"spectrogram_path,omitempty"`
}

// TopClass returns the class with the highest probability, breaking ties by name.
func (c *Classification) TopClass() (string, float64) {
	var (
		best  string
		score = -1.0
	)
	for _, class := range slices.Sorted(maps.Keys(c.Probabilities)) {
		if p := c.Probabilities[class]; p > score {
			best, score = class, p
		}
	}
	return best, max(score, 0)
}

// Client uploads recordings to the inference service.
type Client struct {
	baseURL string
	http    *http.Client
	policy  retry.Policy
	logger  *slog.Logger
}

// New creates a client from cfg.
func New(cfg *Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.TimeoutDuration()},
		policy:  retry.Exponential(cfg.MaxRetries),
		logger:  logger.With("system", "classifier"),
	}
}

// Enabled reports whether an inference service address is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// Classify uploads audio and returns its classification. A response missing
// the label or confidence is completed from the probability map.
func (c *Client) Classify(ctx context.Context, filename string, audio []byte) (*Classification, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}

	body, contentType, err := encodeUpload(filename, audio)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassificationFailed, err)
	}

	var result Classification
	err = c.policy.Do(ctx, func(attempt int) error {
		raw, err := c.post(ctx, body, contentType)
		if err != nil {
			c.logger.WarnContext(ctx, "classification attempt failed", "attempt", attempt, "error", err)
			return err
		}

		parsed, err := formatting.Parse[Classification](raw)
		if err != nil {
			return retry.Permanent(err)
		}
		result = parsed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassificationFailed, err)
	}

	if len(result.Probabilities) == 0 && result.Label == "" {
		return nil, fmt.Errorf("%w: response carried no label or probabilities", ErrClassificationFailed)
	}

	if result.Label == "" || result.Confidence == 0 {
		top, score := result.TopClass()
		if result.Label == "" {
			result.Label = top
		}
		if result.Confidence == 0 {
			result.Confidence = score
		}
	}
	if result.FileName == "" {
		result.FileName = filename
	}

	c.logger.InfoContext(ctx, "classification complete",
		"file", filename,
		"label", result.Label,
		"confidence", result.Confidence,
	)
	return &result, nil
}

func (c *Client) post(ctx context.Context, body []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+classifyEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", retry.Permanent(err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("non-2xx status %d: %s", resp.StatusCode, preview(data))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", retry.Permanent(err)
		}
		return "", err
	}

	return string(data), nil
}

func encodeUpload(filename string, audio []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

func preview(data []byte) string {
	if len(data) > maxErrorBody {
		data = data[:maxErrorBody]
	}
	return strings.TrimSpace(string(data))
}
