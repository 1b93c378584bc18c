// Package tabroom extracts a competitor's tournament data from the Tabroom
// website, which only serves HTML behind a cookie session.
//
// Every upstream request goes through Client.Get or Client.PostForm. The
// extractors (ExtractRounds, DetectCoinFlip, IsLoginPage, ...) are pure
// functions over page text and can be run on saved pages.
package tabroom

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL    = "https://www.tabroom.com"
	DefaultCookieName = "TabroomToken"
	DefaultUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/124.0.0.0 Safari/537.36"
	DefaultTimeout        = 20 * time.Second
	DefaultCatalogTimeout = 3 * time.Second

	maxPageBytes = 8 << 20
)

type Config struct {
	BaseURL    string
	CookieName string
	UserAgent  string
	Timeout    time.Duration

	// CatalogURL is the external judge catalog. Empty disables it.
	CatalogURL     string
	CatalogTimeout time.Duration

	// HTTPClient overrides the transport, mostly for tests. Its redirect
	// policy is kept for normal fetches; login always stops at the first hop.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type Client struct {
	base       *url.URL
	cookieName string
	userAgent  string
	timeout    time.Duration
	http       *http.Client
	login      *http.Client
	catalog    *catalog
	log        *zap.Logger
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, validationf("bad base url %q", cfg.BaseURL)
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CatalogTimeout <= 0 {
		cfg.CatalogTimeout = DefaultCatalogTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	// Same transport, but show 30x so we can inspect Location and Set-Cookie.
	lc := *hc
	lc.CheckRedirect = func(req *http.Request, via []*http.Request) error { return http.ErrUseLastResponse }

	c := &Client{
		base:       base,
		cookieName: cfg.CookieName,
		userAgent:  cfg.UserAgent,
		timeout:    cfg.Timeout,
		http:       hc,
		login:      &lc,
		log:        logger,
	}
	if cfg.CatalogURL != "" {
		c.catalog = &catalog{url: cfg.CatalogURL, timeout: cfg.CatalogTimeout, http: hc}
	}
	return c, nil
}

// Page is a fetched upstream response. The site answers 200 for login walls
// too, so callers look at Body rather than Status.
type Page struct {
	URL    string
	Status int
	Header http.Header
	Body   string
}

func (p *Page) LoginWall() bool {
	return IsLoginPage(p.Body)
}

// Get fetches path (relative to the base URL, or absolute) with the session
// cookie attached when token is non-empty.
func (c *Client) Get(ctx context.Context, token, path string) (*Page, error) {
	return c.do(ctx, c.http, http.MethodGet, token, path, nil)
}

func (c *Client) PostForm(ctx context.Context, token, path string, form url.Values) (*Page, error) {
	return c.do(ctx, c.http, http.MethodPost, token, path, form)
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, token, path string, form url.Values) (*Page, error) {
	target := c.resolve(path)

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, crerr.Wrapf(err, "build %s %s", method, target)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.Header.Set("Cookie", c.cookieName+"="+decodeToken(token))
	}

	started := time.Now()
	resp, err := hc.Do(req)
	upstreamLatency.Observe(time.Since(started).Seconds())
	if err != nil {
		upstreamRequests.WithLabelValues(method, "error").Inc()
		c.log.Warn("upstream request failed", zap.String("method", method), zap.String("url", target), zap.Error(err))
		return nil, crerr.Mark(crerr.Wrapf(err, "%s %s", method, req.URL.Path), ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		upstreamRequests.WithLabelValues(method, "error").Inc()
		return nil, crerr.Mark(crerr.Wrapf(err, "read %s", req.URL.Path), ErrUpstreamUnavailable)
	}
	upstreamRequests.WithLabelValues(method, statusClass(resp.StatusCode)).Inc()
	c.log.Debug("upstream response",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)),
	)

	return &Page{
		URL:    resp.Request.URL.String(),
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   string(raw),
	}, nil
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.base.String() + path
}

// decodeToken undoes the URL-encoding the site applies to its cookie value.
func decodeToken(token string) string {
	if v, err := url.QueryUnescape(token); err == nil {
		return v
	}
	return token
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
