package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/oshokin/mcsync/internal/domain/resource"
)

// maxDocumentSize caps a metadata response. Asset indexes are a few MiB.
const maxDocumentSize = 64 << 20

var errDocumentTooLarge = errors.New("document exceeds size limit")

// Client fetches metadata documents over HTTP.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient wraps an HTTP client. A nil client means http.DefaultClient.
func NewClient(httpClient *http.Client, userAgent string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		http:      httpClient,
		userAgent: userAgent,
	}
}

// Get downloads a document body. Network failures and non-2xx statuses wrap resource.ErrTransport.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: build request for %s: %w", resource.ErrTransport, url, err)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	response, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", resource.ErrTransport, url, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: get %s: %s", resource.ErrTransport, url, response.Status)
	}

	data, err := io.ReadAll(io.LimitReader(response.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", resource.ErrTransport, url, err)
	}

	if len(data) > maxDocumentSize {
		return nil, fmt.Errorf("%w: %s: %w", resource.ErrTransport, url, errDocumentTooLarge)
	}

	return data, nil
}

// Manifest downloads and decodes the version manifest.
func (c *Client) Manifest(ctx context.Context, url string) (*Manifest, error) {
	data, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	return ParseManifest(data)
}
