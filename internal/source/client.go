package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/peopledesk/notify/internal/model"
)

// Client is a thin HTTP client shared by the stream adapters. It handles
// Bearer token authentication and maps 401/403 responses to AuthError so
// callers can detect session expiry with errors.As.
type Client struct {
	sourceType model.SourceType
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for one stream rooted at baseURL (e.g.
// https://api.hr.example.com). The token is the session bearer token.
func NewClient(st model.SourceType, baseURL, token string) *Client {
	return &Client{
		sourceType: st,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Get performs an HTTP GET and returns the raw response body for
// tolerant decoding by the caller.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path)
}

// Put performs an HTTP PUT with no request body, discarding any
// response body. Used for read confirmations.
func (c *Client) Put(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodPut, path)
	return err
}

// do builds the request, attaches the bearer token, and classifies the
// response.
func (c *Client) do(ctx context.Context, method, path string) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{
			SourceType: c.sourceType,
			Message: fmt.Sprintf(
				"authorization rejected (%d) on %s %s",
				resp.StatusCode, method, path,
			),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf(
			"unexpected status %d on %s %s: %s",
			resp.StatusCode, method, path, string(body),
		)
	}

	return body, nil
}
