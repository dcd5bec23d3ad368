// Package client provides a Go client for the vpsbridge HTTP API.
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const apiPathPrefix = "/api/v0"

// Client talks to a vpsbridge server over its HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the vpsbridge server at baseURL.
// If httpClient is nil, http.DefaultClient is used.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// constructAPIEndpoint returns the full URL for an API endpoint path.
func (c *Client) constructAPIEndpoint(endpoint string) (string, error) {
	u, err := url.JoinPath(c.baseURL, apiPathPrefix, endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to construct API endpoint URL: %w", err)
	}
	return u, nil
}

func (c *Client) newRequest(method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// parseErrorResponse extracts the error message from a non-success response.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var payload struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != nil {
		return fmt.Errorf("server returned status %d: %v", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}
