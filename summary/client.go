package summary

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
	"strings"
	"time"

	"github.com/apex/log"
)

// NoSummaryMarker is returned when the captioning service answers with
// valid JSON that carries neither a summary nor a caption field.
const NoSummaryMarker = "[No summary returned]"

// UpstreamError is a non-2xx or non-JSON answer from the captioning
// service. The raw body is kept so the failure can be shown verbatim
// instead of being swallowed.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("captioning service returned status %d: %s", e.StatusCode, e.Body)
}

// Client submits captured images to the external captioning service.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a captioning client for the given endpoint.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 60 * time.Second, // captioning models are slow
		},
	}
}

type captionResponse struct {
	Summary string `json:"summary"`
	Caption string `json:"caption"`
}

// Summarize uploads the image at path as a multipart request and returns
// the generated description. Exactly one attempt is made; retrying is the
// caller's decision.
func (c *Client) Summarize(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	log.Infof("Sending image to captioning service: %s, image size: %d bytes", c.endpoint, buf.Len())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request to captioning service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var caption captionResponse
	if err := json.Unmarshal(body, &caption); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	// First present field wins.
	if caption.Summary != "" {
		return caption.Summary, nil
	}
	if caption.Caption != "" {
		return caption.Caption, nil
	}
	return NoSummaryMarker, nil
}
