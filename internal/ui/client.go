package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/desertthunder/wabridge/internal/server"
)

// StatusFetcher retrieves the current session status. Implemented by
// [StatusClient] in production and by fakes in tests.
type StatusFetcher interface {
	FetchStatus(ctx context.Context) (*server.StatusResponse, error)
}

// StatusClient polls the bridge API the same way the web front end does.
type StatusClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewStatusClient creates a client for the given backend base address. The
// address may omit its protocol, matching the forwarder's behavior.
func NewStatusClient(baseURL, apiKey string, client *http.Client) *StatusClient {
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}
	return &StatusClient{
		baseURL:    server.NormalizeBackendURL(baseURL),
		apiKey:     apiKey,
		httpClient: client,
	}
}

// FetchStatus performs one GET /get-qr-status round trip.
func (c *StatusClient) FetchStatus(ctx context.Context) (*server.StatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get-qr-status", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(server.APIKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read status response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}

	var status server.StatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("invalid status payload: %w", err)
	}
	return &status, nil
}
