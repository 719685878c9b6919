
package crawler

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrInvalidURL = errors.New("invalid url")
	ErrNonHTML    = errors.New("non-html content")
)

const DefaultUserAgent = "metafilter/1.0 (+https://example.com)"

type HTTPClient struct {
	client    *http.Client
	sizeCap   int64
	userAgent string
	limiter   *DomainLimiter
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

func WithUserAgent(ua string) Option {
	return func(h *HTTPClient) {
		if ua != "" {
			h.userAgent = ua
		}
	}
}

// WithRateLimit caps requests per second to any single host.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64) Option {
	return func(h *HTTPClient) {
		if rps > 0 {
			h.limiter = NewDomainLimiter(rps)
		} else {
			h.limiter = nil
		}
	}
}

func NewHTTPClient(timeout, dialTimeout time.Duration, sizeCap int64, opts ...Option) *HTTPClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	h := &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		sizeCap:   sizeCap,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Fetch downloads an HTML page. It returns the body (capped at the client's
// size limit), the final URL after redirects, the content type and the
// elapsed time.
func (h *HTTPClient) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, string, string, time.Duration, error) {
	start := time.Now()
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, "", "", 0, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx, u.Host); err != nil {
			return nil, "", "", 0, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", "", 0, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, "", "", 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, "", "", 0, fmt.Errorf("http status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !strings.Contains(mediaType, "text/html") && !strings.Contains(mediaType, "application/xhtml+xml") && mediaType != "" {
		// still allow if empty (some servers omit), otherwise reject non-html
		resp.Body.Close()
		return nil, "", "", 0, ErrNonHTML
	}

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, "", "", 0, err
		}
		body = gz
	}

	finalURL := resp.Request.URL.String()
	elapsed := time.Since(start)
	return &limitedBody{Reader: io.LimitReader(body, h.sizeCap), closer: resp.Body}, finalURL, contentType, elapsed, nil
}

// limitedBody closes the underlying response when the capped reader is done.
type limitedBody struct {
	io.Reader
	closer io.Closer
}

func (b *limitedBody) Close() error { return b.closer.Close() }
