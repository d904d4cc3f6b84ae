package scans

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Client calls the remote inference endpoint.
type Client struct {
	predictURL string
	httpClient *http.Client
}

// NewClient creates an inference client. The timeout bounds the whole
// request; there is no retry.
func NewClient(predictURL string, timeout time.Duration) *Client {
	return &Client{
		predictURL: predictURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Predict submits an image to the inference endpoint as a multipart form
// with fields "scan" and "include_gradcam". Any non-200 status is an error.
func (c *Client) Predict(ctx context.Context, filename string, scan io.Reader, includeGradcam bool) (*Result, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("scan", filename)
	if err != nil {
		return nil, fmt.Errorf("scans: build multipart: %w", err)
	}
	if _, err := io.Copy(part, scan); err != nil {
		return nil, fmt.Errorf("scans: read scan: %w", err)
	}
	if err := mw.WriteField("include_gradcam", fmt.Sprintf("%t", includeGradcam)); err != nil {
		return nil, fmt.Errorf("scans: build multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("scans: build multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.predictURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("scans: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scans: predict call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scans: predict returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("scans: decode prediction: %w", err)
	}
	if result.ClassName == "" {
		return nil, fmt.Errorf("scans: prediction missing class_name")
	}
	return &result, nil
}
