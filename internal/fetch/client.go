// Package fetch provides the outbound HTTP clients used by extraction:
// a page client with a fixed identity/timeout/redirect policy and a
// retryable JSON client for platform oEmbed endpoints.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// Options fixes the outbound policy. Zero values fall back to the defaults
// the rest of the pipeline assumes (10s page fetch, 5s oEmbed, 5 redirects).
type Options struct {
	UserAgent     string
	PageTimeout   time.Duration
	OEmbedTimeout time.Duration
	MaxRedirects  int
	MaxBodyBytes  int64
}

const defaultUserAgent = "Mozilla/5.0 (compatible; unfurl/1.0; link preview bot)"

type Client struct {
	page      *http.Client
	oembed    *retryablehttp.Client
	userAgent string
	maxBody   int64
}

func NewClient(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 10 * time.Second
	}
	if opts.OEmbedTimeout <= 0 {
		opts.OEmbedTimeout = 5 * time.Second
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = 5
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 5 << 20 // 5MB
	}

	page := &http.Client{
		Timeout:   opts.PageTimeout,
		Transport: cleanhttp.DefaultPooledTransport(),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= opts.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", opts.MaxRedirects)
			}
			return nil
		},
	}

	oembed := retryablehttp.NewClient()
	oembed.RetryMax = 1
	oembed.Logger = nil
	oembed.HTTPClient = &http.Client{
		Timeout:   opts.OEmbedTimeout,
		Transport: cleanhttp.DefaultPooledTransport(),
	}

	return &Client{
		page:      page,
		oembed:    oembed,
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodyBytes,
	}
}

// Page performs a GET for an HTML document and returns the body, capped at
// MaxBodyBytes.
func (c *Client) Page(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.page.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// JSON performs a GET against an oEmbed-style endpoint with one retry.
func (c *Client) JSON(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.oembed.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// StatusError reports a non-2xx response from the target.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// IsTimeout reports whether the error is a deadline or network timeout,
// as opposed to a connection or DNS failure.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
