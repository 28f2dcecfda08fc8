package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/run-bigpig/apitools/pkg/interfaces"
)

// Client is an HTTP client for the spec catalog service
type Client struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	maxRetries uint64
}

// ClientOption represents an option for configuring the catalog client
type ClientOption func(*Client)

// WithAPIKey sets the API key sent with every catalog request
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets the HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithRetries enables exponential-backoff retries of failed catalog fetches.
// Retrying is the collaborator's concern; compiled tools never retry.
func WithRetries(max uint64) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
	}
}

// NewClient creates a new catalog client
func NewClient(baseURL string, timeout time.Duration, options ...ClientOption) *Client {
	client := &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// ListProducts lists the product names available in the catalog
func (c *Client) ListProducts(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/products")
	if err != nil {
		return nil, err
	}

	var products []string
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("failed to parse product list: %w", err)
	}
	return products, nil
}

// ListSpecs lists the specifications published for a product
func (c *Client) ListSpecs(ctx context.Context, product string) ([]interfaces.SpecInfo, error) {
	body, err := c.get(ctx, "/products/"+url.PathEscape(product)+"/specs")
	if err != nil {
		return nil, err
	}

	var entries []struct {
		Attributes   map[string]interface{} `json:"attributes"`
		SpecLocation string                 `json:"specLocation"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse spec list for %s: %w", product, err)
	}

	specs := make([]interfaces.SpecInfo, 0, len(entries))
	for _, entry := range entries {
		specs = append(specs, interfaces.SpecInfo{
			Attributes:   entry.Attributes,
			SpecLocation: entry.SpecLocation,
		})
	}
	return specs, nil
}

// GetSpecContent fetches the raw text of one specification
func (c *Client) GetSpecContent(ctx context.Context, product, specPath string) (string, error) {
	body, err := c.get(ctx, "/products/"+url.PathEscape(product)+"/specs/"+url.QueryEscape(specPath))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	operation := func() ([]byte, error) {
		return c.getOnce(ctx, path)
	}

	if c.maxRetries == 0 {
		return operation()
	}

	var body []byte
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	err := backoff.Retry(func() error {
		var opErr error
		body, opErr = operation()
		return opErr
	}, policy)
	return body, err
}

func (c *Client) getOnce(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create catalog request: %w", err))
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("catalog returned status %d for %s", resp.StatusCode, path)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	return body, nil
}
