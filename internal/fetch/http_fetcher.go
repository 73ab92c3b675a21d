package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"tileview/internal/cache"
)

const (
	DefaultUserAgent      = "tileview/1.0 (+https://github.com/tileview)"
	DefaultConnectTimeout = 5 * time.Second
	DefaultTimeout        = 10 * time.Second
)

// Downloader performs a GET of url and streams the body into w.
type Downloader interface {
	Fetch(ctx context.Context, url string, w io.Writer) error
}

// HTTPFetcher is the net/http Downloader. Redirects are followed; any
// non-2xx response is a failure.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

type FetcherOptions struct {
	UserAgent      string
	ConnectTimeout time.Duration
	Timeout        time.Duration
}

func NewHTTPFetcher(opts FetcherOptions) *HTTPFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = opts.ConnectTimeout

	return &HTTPFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		userAgent: opts.UserAgent,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	return nil
}

// FetchFunc binds a Downloader and URL into the store's streaming callback.
func FetchFunc(d Downloader, url string) cache.FetchFunc {
	return func(ctx context.Context, w io.Writer) error {
		return d.Fetch(ctx, url, w)
	}
}
