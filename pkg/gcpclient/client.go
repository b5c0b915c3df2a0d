// Package gcpclient provides an authorized JSON client for the Google
// Cloud REST surfaces used by shelfsight (the embedding model and the
// feature online store).
package gcpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/shelfsight/shelfsight/internal"
)

var log = internal.GetLogger()

const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// maxErrorBodyBytes caps how much of an error response body is carried
// into the returned error.
const maxErrorBodyBytes = 2048

// Client is a JSON-over-HTTP client carrying application default
// credentials. It is safe to share read-only across concurrent requests.
type Client struct {
	http        *retryablehttp.Client
	tokenSource oauth2.TokenSource
}

// New creates a Client using application default credentials.
func New(ctx context.Context) (*Client, error) {
	ts, err := google.DefaultTokenSource(ctx, CloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire default credentials: %w", err)
	}
	return NewWithTokenSource(ts), nil
}

// NewWithTokenSource creates a Client with an explicit token source. Used
// in tests.
func NewWithTokenSource(ts oauth2.TokenSource) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.Logger = internal.NewLeveledLogrus(log)
	httpClient.RetryMax = 2

	return &Client{
		http:        httpClient,
		tokenSource: ts,
	}
}

// WithoutRetries returns a Client sharing this client's credentials whose
// requests are sent exactly once, including on 429 and 5xx responses.
// For calls that must not be replayed against a rate-limited surface.
func (c *Client) WithoutRetries() *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.Logger = internal.NewLeveledLogrus(log)
	httpClient.RetryMax = 0

	return &Client{
		http:        httpClient,
		tokenSource: c.tokenSource,
	}
}

// GetJSON issues an authorized GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	return c.doJSON(ctx, http.MethodGet, url, nil, out)
}

// PostJSON issues an authorized POST with a JSON body and decodes the JSON
// response into out.
func (c *Client) PostJSON(ctx context.Context, url string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	return c.doJSON(ctx, http.MethodPost, url, payload, out)
}

func (c *Client) doJSON(ctx context.Context, method, url string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}

	token, err := c.tokenSource.Token()
	if err != nil {
		return fmt.Errorf("failed to obtain access token: %w", err)
	}
	token.SetAuthHeader(req.Request)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("%s %s returned %d: %s", method, url, resp.StatusCode, errBody)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}
