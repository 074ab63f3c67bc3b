package hupd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL serves files of the HUPD dataset repository.
	BaseURL = "https://huggingface.co/datasets/HUPD/hupd/resolve/main"

	// DefaultTimeout bounds one archive download; the full archives are several GB.
	DefaultTimeout = 2 * time.Hour

	// RateLimit is the number of requests per second sent to the hub.
	RateLimit = 2.0
)

// ProgressFunc returns a writer that observes downloaded bytes.
// total is -1 when the size is unknown.
type ProgressFunc func(name string, total int64) io.Writer

// Client downloads dataset archives with rate limiting.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
	baseURL    string
	progress   ProgressFunc
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sets the bearer token for authenticated requests.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithProgress reports download progress.
func WithProgress(fn ProgressFunc) ClientOption {
	return func(c *Client) {
		c.progress = fn
	}
}

// NewClient creates a new dataset client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads the repository file name to dest unless dest already exists.
// It reports whether the file came from the cache.
func (c *Client) Fetch(ctx context.Context, name, dest string) (cached bool, err error) {
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		return true, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limiter: %w", err)
	}

	url := c.baseURL + "/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp); err != nil {
		return false, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return false, fmt.Errorf("creating cache directory: %w", err)
	}

	tmpPath := dest + ".part"
	f, err := os.Create(tmpPath)
	if err != nil {
		return false, fmt.Errorf("creating download file: %w", err)
	}

	var w io.Writer = f
	if c.progress != nil {
		w = io.MultiWriter(f, c.progress(filepath.Base(name), resp.ContentLength))
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return false, &FetchError{URL: url, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("closing download file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("renaming download file: %w", err)
	}

	return false, nil
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrAuth
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		return errors.New(http.StatusText(resp.StatusCode))
	}
	return nil
}
