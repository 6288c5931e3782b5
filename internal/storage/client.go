package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Sentinel errors for storage collaborator failures.
var (
	ErrStorageUnreachable = errors.New("storage unreachable")
	ErrStorageRejected    = errors.New("storage rejected upload")
	ErrStorageTimeout     = errors.New("storage upload timeout")
)

// Client is the interface for the file storage collaborator.
type Client interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Ready(ctx context.Context) error
}

// HTTPClient implements Client against a bucket-style HTTP storage API:
// PUT the bytes to bucket/path, get back a public URL.
type HTTPClient struct {
	baseURL string
	bucket  string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a storage client.
func NewHTTPClient(baseURL, bucket, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		bucket:  bucket,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	u := fmt.Sprintf("%s/object/%s/%s", c.baseURL, url.PathEscape(c.bucket), path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: status %d", ErrStorageRejected, resp.StatusCode)
	}

	var uploadResp struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("decoding storage response: %w", err)
	}
	if uploadResp.URL == "" {
		return "", fmt.Errorf("%w: empty url in response", ErrStorageRejected)
	}
	return uploadResp.URL, nil
}

func (c *HTTPClient) Ready(ctx context.Context) error {
	u := fmt.Sprintf("%s/health", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: storage not ready (status %d)", ErrStorageUnreachable, resp.StatusCode)
	}
	return nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrStorageTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrStorageTimeout, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrStorageUnreachable, err)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
