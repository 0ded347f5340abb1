package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// apiClient performs JSON requests against a platform REST API.
//
// Non-2xx responses are translated into a [*PlatformError].
type apiClient struct {
	platform   models.Platform
	baseURL    string
	httpClient *http.Client
}

// APIResponse is a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// IsJSON reports whether the body decodes as JSON.
func (r *APIResponse) IsJSON() bool {
	return json.Valid(r.Body)
}

func (a *apiClient) endpoint(path string, query url.Values) string {
	u := strings.TrimRight(a.baseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// raw performs the request and returns the response without interpreting its status.
func (a *apiClient) raw(ctx context.Context, method, path string, query url.Values, body any) (*APIResponse, error) {
	if a.httpClient == nil {
		return nil, shared.ErrNotAuthenticated
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.endpoint(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: data}, nil
}

// do performs the request and decodes a successful JSON response into result, which may be nil.
func (a *apiClient) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	resp, err := a.raw(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newPlatformError(a.platform, resp.StatusCode, resp.Body)
	}

	if result == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
