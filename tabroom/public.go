package tabroom

import (
	"context"
	"net/http"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/gocolly/colly"
	"go.uber.org/zap"
)

// Upcoming lists the tournaments on the public calendar. No session needed.
func (c *Client) Upcoming(ctx context.Context) ([]TournamentRef, error) {
	p, err := c.fetchPublic(ctx, calendarPath)
	if err != nil {
		return nil, err
	}
	return orEmpty(ExtractTournaments(p.Body)), nil
}

// fetchPublic crawls a page that needs no cookie. A fresh collector is used
// per call so nothing is shared between requests.
func (c *Client) fetchPublic(ctx context.Context, path string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, path), ErrUpstreamUnavailable)
	}
	target := c.resolve(path)

	col := colly.NewCollector(
		colly.UserAgent(c.userAgent),
		colly.AllowURLRevisit(),
	)
	col.SetRequestTimeout(c.timeout)
	if c.http.Transport != nil {
		col.WithTransport(c.http.Transport)
	}
	// Error statuses still carry a page worth looking at.
	col.ParseHTTPErrorResponse = true

	col.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		r.Headers.Set("Cache-Control", "no-cache")
	})

	var page *Page
	col.OnResponse(func(r *colly.Response) {
		header := http.Header{}
		if r.Headers != nil {
			header = *r.Headers
		}
		page = &Page{
			URL:    r.Request.URL.String(),
			Status: r.StatusCode,
			Header: header,
			Body:   string(r.Body),
		}
	})

	started := time.Now()
	err := col.Visit(target)
	upstreamLatency.Observe(time.Since(started).Seconds())
	if err != nil {
		upstreamRequests.WithLabelValues(http.MethodGet, "error").Inc()
		c.log.Warn("public crawl failed", zap.String("url", target), zap.Error(err))
		return nil, crerr.Mark(crerr.Wrapf(err, "GET %s", stripQuery(path)), ErrUpstreamUnavailable)
	}
	if page == nil {
		upstreamRequests.WithLabelValues(http.MethodGet, "error").Inc()
		return nil, crerr.Mark(crerr.Newf("GET %s: no response", stripQuery(path)), ErrUpstreamUnavailable)
	}
	upstreamRequests.WithLabelValues(http.MethodGet, statusClass(page.Status)).Inc()
	c.log.Debug("public page", zap.String("url", page.URL), zap.Int("status", page.Status), zap.Int("bytes", len(page.Body)))
	return page, nil
}
