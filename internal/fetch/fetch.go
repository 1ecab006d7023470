package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"

	"github.com/hyperifyio/materialbox/internal/cache"
)

// BrowserUserAgent is a desktop browser identifier; many content sites
// refuse requests without one.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultTimeout bounds a single page fetch.
const DefaultTimeout = 10 * time.Second

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes int64 = 8 << 20

// Client wraps http.Client with a user agent, a per-request timeout, a
// redirect cap and an optional conditional cache. It makes exactly one
// attempt per call.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// PerRequestTimeout bounds each request. Zero means DefaultTimeout.
	PerRequestTimeout time.Duration
	// Optional on-disk cache for GET bodies and validators.
	Cache *cache.PageCache
	// If true, skip conditional headers but still save the latest response.
	BypassCache bool
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	// MaxBodyBytes caps the body read. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// clone so the caller's client keeps its own redirect policy
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{CheckRedirect: c.checkRedirectFunc()}
}

// Get issues a GET and returns the raw body and its content type.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	var cached *cache.PageEntry
	if c.Cache != nil && !c.BypassCache {
		if e, err := c.Cache.Load(ctx, rawURL); err == nil {
			cached = e
		}
	}
	var etag, lastMod string
	if cached != nil {
		etag, lastMod = cached.ETag, cached.LastModified
	}
	res, err := c.do(ctx, rawURL, etag, lastMod)
	if err != nil {
		return nil, "", err
	}
	if res.status == http.StatusNotModified {
		if cached == nil {
			return nil, "", errors.New("not modified without cached copy")
		}
		log.Debug().Str("url", rawURL).Msg("fetch: served from cache")
		return cached.Body, cached.ContentType, nil
	}
	if c.Cache != nil {
		if err := c.Cache.Save(ctx, cache.PageEntry{
			URL:          rawURL,
			ContentType:  res.contentType,
			ETag:         res.etag,
			LastModified: res.lastModified,
			Body:         res.body,
		}); err != nil {
			log.Warn().Err(err).Str("url", rawURL).Msg("fetch: cache save failed")
		}
	}
	return res.body, res.contentType, nil
}

// Text fetches rawURL and returns its body decoded to UTF-8 using the
// declared or sniffed charset.
func (c *Client) Text(ctx context.Context, rawURL string) (string, error) {
	body, ct, err := c.Get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return Decode(body, ct)
}

// Decode converts body to UTF-8 according to contentType, falling back to
// meta tags and content sniffing.
func Decode(body []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", fmt.Errorf("charset: %w", err)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}
	return string(b), nil
}

type response struct {
	body         []byte
	contentType  string
	etag         string
	lastModified string
	status       int
}

func (c *Client) do(ctx context.Context, rawURL string, etag string, lastMod string) (*response, error) {
	timeout := c.PerRequestTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if !isHTTPScheme(req.URL) {
		return nil, fmt.Errorf("unsupported URL scheme: %q", req.URL.String())
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return &response{status: resp.StatusCode}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if !isAllowedContentType(contentType) {
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}
	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(b)) > limit {
		b = b[:limit]
		log.Debug().Str("url", rawURL).Int64("limit", limit).Msg("response body truncated at size cap")
	}
	return &response{
		body:         b,
		contentType:  contentType,
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
		status:       resp.StatusCode,
	}, nil
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// A missing content type is tolerated; servers for small sites often omit it.
func isAllowedContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return ct == "" || strings.HasPrefix(ct, "text/") || strings.HasPrefix(ct, "application/xhtml+xml")
}
