// Package policyapi is the HTTP client for the PolicyReady analysis service:
// one streaming analysis endpoint plus a few read-only catalog endpoints.
package policyapi

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
)

// ServerError reports that the service rejected a request before streaming
// started. Detail carries the service's structured error body when present,
// else a status-derived message.
type ServerError struct {
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server rejected request (%d): %s", e.StatusCode, e.Detail)
}

// Client talks to one PolicyReady service instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the service at baseURL. The underlying
// HTTP client carries no timeout: the analysis stream stays open for the
// whole job and callers bound latency with a context deadline instead.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// Analyze uploads the document at path and returns the live event stream.
// The caller owns the returned body and must close it. Errors before the
// stream opens are either transport failures (wrapped network errors) or a
// *ServerError for a non-success response.
func (c *Client) Analyze(ctx context.Context, path string) (io.ReadCloser, error) {
	body, contentType, err := buildUpload(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze/stream", body)
	if err != nil {
		return nil, fmt.Errorf("building analysis request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reaching analysis service: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close() //nolint:errcheck
		return nil, newServerError(resp)
	}

	return resp.Body, nil
}

// buildUpload assembles the multipart request body for one document.
func buildUpload(path string) (io.Reader, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading document: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("building upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("building upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("building upload: %w", err)
	}

	return &buf, mw.FormDataContentType(), nil
}

// newServerError extracts the service's error detail from a non-success
// response. FastAPI-style services put it in a {"detail": "..."} body.
func newServerError(resp *http.Response) *ServerError {
	detail := resp.Status

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err == nil && len(data) > 0 {
		var body struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(data, &body) == nil && body.Detail != "" {
			detail = body.Detail
		}
	}

	return &ServerError{StatusCode: resp.StatusCode, Detail: detail}
}
