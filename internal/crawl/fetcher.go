package crawl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"termcrawl/pkg/config"
	"termcrawl/pkg/errors"
)

// maxBodyBytes caps how much of a response body a worker will read.
const maxBodyBytes = 5 << 20

// Paths that cannot contain indexable HTML are skipped without a request.
var exclusionRegex = regexp.MustCompile(
	`(?i)\.(png|jpe?g|gif|ico|bmp|svg|css|js|pdf|zip|gz|tar|mp[34]|webm|avi|woff2?|ttf|exe)$`,
)

// HTTPFetcher retrieves page bytes over HTTP with a bounded per-request
// timeout and optional per-host politeness limiting.
type HTTPFetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	limiter   *hostLimiter
}

// NewHTTPFetcher builds a fetcher from crawler config. A PerHostRate of
// zero disables politeness limiting.
func NewHTTPFetcher(cfg config.CrawlerConfig) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    &http.Client{},
		timeout:   cfg.FetchTimeout,
		userAgent: cfg.UserAgent,
	}
	if cfg.PerHostRate > 0 {
		f.limiter = newHostLimiter(cfg.PerHostRate, cfg.PerHostWindow)
	}
	return f
}

// Close stops the politeness limiter's background sweep, if any.
func (f *HTTPFetcher) Close() {
	if f.limiter != nil {
		f.limiter.close()
	}
}

// Fetch retrieves the raw bytes for location. It fails fast on
// non-crawlable paths, non-2xx responses and non-HTML content types, and
// aborts when ctx is cancelled or the timeout elapses. All failures wrap
// ErrFetch.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid location %q: %v", errors.ErrFetch, location, err)
	}
	if exclusionRegex.MatchString(u.Path) {
		return nil, fmt.Errorf("%w: non-html path %q", errors.ErrFetch, u.Path)
	}
	if f.limiter != nil {
		if err := f.waitForHost(ctx, u.Hostname()); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", errors.ErrFetch, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrFetch, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d for %s", errors.ErrFetch, res.StatusCode, location)
	}
	if contentType := res.Header.Get("Content-Type"); contentType != "" && !strings.Contains(contentType, "html") {
		return nil, fmt.Errorf("%w: content type %q for %s", errors.ErrFetch, contentType, location)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", errors.ErrFetch, err)
	}
	return body, nil
}

// waitForHost blocks until the politeness limiter grants a token for host
// or ctx is cancelled.
func (f *HTTPFetcher) waitForHost(ctx context.Context, host string) error {
	for !f.limiter.allow(host) {
		select {
		case <-time.After(f.limiter.retryDelay()):
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", errors.ErrFetch, ctx.Err())
		}
	}
	return nil
}
