package policyapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/policyready/policyctl/internal/models"
)

// ListPolicies returns the policy corpus folders.
func (c *Client) ListPolicies(ctx context.Context) (*models.PolicyCatalog, error) {
	var catalog models.PolicyCatalog
	if err := c.getJSON(ctx, "/policies", &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// FolderContents returns the documents inside one policy folder.
func (c *Client) FolderContents(ctx context.Context, folder string) (*models.FolderContents, error) {
	var contents models.FolderContents
	if err := c.getJSON(ctx, "/policies/"+url.PathEscape(folder), &contents); err != nil {
		return nil, err
	}
	return &contents, nil
}

// IndexStats returns the search index statistics. The shape is owned by the
// service and varies between index builds, so it stays generic.
func (c *Client) IndexStats(ctx context.Context) (map[string]any, error) {
	var stats map[string]any
	if err := c.getJSON(ctx, "/index/stats", &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reaching analysis service: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newServerError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
