package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client calls an optional text-recognition sidecar. Recognition is an
// enhancement: callers fall back to directly extracted text whenever the
// service is absent or errors.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a recognition client. An empty baseURL yields a
// client that reports itself unavailable.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Available reports whether a recognition backend is configured.
func (c *Client) Available() bool {
	return c != nil && c.baseURL != ""
}

// Recognize runs text recognition over a rendered page image. The ok
// result is false when no backend is configured; err reports a backend
// that was configured but failed.
func (c *Client) Recognize(ctx context.Context, imageBytes []byte) (text string, ok bool, err error) {
	if !c.Available() {
		return "", false, nil
	}

	url := fmt.Sprintf("%s/recognize", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(imageBytes))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "image/png")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("recognition request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", false, fmt.Errorf("recognition API error: %d - %s", resp.StatusCode, string(body))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", false, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Text, true, nil
}
