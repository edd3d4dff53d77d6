// Package client is the mobile app's HTTP client for the SafeStreet
// backend: it submits finalized draft reports over multipart form data
// and decodes the canonical confirmation record.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"safestreet/models"
)

// SubmitRequest carries the fields of a finalized draft report.
type SubmitRequest struct {
	UserID    string
	Location  string
	Summary   string
	ImagePath string
}

// Client submits reports to the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a submission client for the given backend base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Submit posts the report as multipart form data. A non-2xx answer is
// returned as an error carrying the server's {error} detail.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*models.UploadData, error) {
	f, err := os.Open(req.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("userId", req.UserID); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if err := writer.WriteField("location", req.Location); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if err := writer.WriteField("summary", req.Summary); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	part, err := writer.CreateFormFile("image", filepath.Base(req.ImagePath))
	if err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload/new", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp models.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("upload failed: %s", errResp.Error)
		}
		return nil, fmt.Errorf("upload failed: server returned status %d", resp.StatusCode)
	}

	var uploadResp models.UploadResponse
	if err := json.Unmarshal(body, &uploadResp); err != nil {
		return nil, fmt.Errorf("upload failed: invalid server response: %w", err)
	}
	return &uploadResp.Data, nil
}
