package tabroom

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"
)

type PairingsResult struct {
	Pairings []map[string]string
	// CoinFlip is set when the page has a side-flip widget.
	CoinFlip *CoinFlip
	Preview  string
}

// Pairings returns the pairings table of a round. Without a round id the
// postings index is fetched and its first round link followed.
func (c *Client) Pairings(ctx context.Context, token, tournID, eventID, roundID string) (PairingsResult, error) {
	if token == "" || tournID == "" {
		return PairingsResult{}, validationf("token and tournament id are required")
	}

	var t trail
	rowsOf := func(p *Page) (*Page, error) {
		t.saw(p)
		if len(ExtractTableRows(p.Body)) == 0 && !DetectCoinFlip(p.Body).Available {
			return nil, emptyf("no pairings on %s", stripQuery(p.URL))
		}
		return p, nil
	}

	steps := []step[*Page]{
		{name: "round-page", run: func(ctx context.Context) (*Page, error) {
			if roundID == "" {
				return nil, errSkip
			}
			p, err := c.authedGet(ctx, token, withQuery(roundPath, "tourn_id", tournID, "round_id", roundID))
			if err != nil {
				return nil, err
			}
			return rowsOf(p)
		}},
		{name: "postings-index", run: func(ctx context.Context) (*Page, error) {
			idx, err := c.authedGet(ctx, token, withQuery(postingsIndexPath, "tourn_id", tournID, "event_id", eventID))
			if err != nil {
				return nil, err
			}
			t.saw(idx)
			link := firstRoundLink(idx)
			if link == "" {
				return rowsOf(idx)
			}
			p, err := c.authedGet(ctx, token, link)
			if err != nil {
				return nil, err
			}
			return rowsOf(p)
		}},
	}

	page, err := runChain(ctx, c.log, "pairings", steps)
	if err != nil {
		if !crerr.Is(err, ErrNotFound) {
			return PairingsResult{}, err
		}
		return PairingsResult{Pairings: []map[string]string{}, Preview: t.preview()}, nil
	}

	res := PairingsResult{Pairings: ExtractTableRows(page.Body)}
	if res.Pairings == nil {
		res.Pairings = []map[string]string{}
	}
	if flip := DetectCoinFlip(page.Body); flip.Available {
		res.CoinFlip = &flip
	}
	return res, nil
}

func firstRoundLink(p *Page) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.Body))
	if err != nil {
		return ""
	}
	base, _ := url.Parse(p.URL)

	var link string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if queryParam(href, "round_id") == "" {
			return true
		}
		ref, err := url.Parse(strings.ReplaceAll(strings.TrimSpace(href), "&amp;", "&"))
		if err != nil {
			return true
		}
		if base != nil {
			ref = base.ResolveReference(ref)
		}
		link = ref.String()
		return false
	})
	return link
}
