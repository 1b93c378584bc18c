package tabroom

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const (
	// maxResultLinks caps the result pages fetched by a name scan.
	maxResultLinks = 4
	previewLen     = 600
)

var placeShape = regexp.MustCompile(`(?i)^\d+(?:st|nd|rd|th)?$`)

type RoundsResult struct {
	Rounds    []RoundRecord
	Record    WinLoss
	Placement string

	// Preview is the start of the last page looked at. Set only when no
	// rounds were found.
	Preview string
}

type BallotsRequest struct {
	Token      string
	TournID    string
	EntryID    string
	EntryName  string
	PersonName string
}

// trail remembers the last page an operation fetched, for the preview.
type trail struct {
	last *Page
}

func (t *trail) saw(p *Page) {
	if p != nil {
		t.last = p
	}
}

func (t *trail) preview() string {
	if t.last == nil {
		return ""
	}
	r := []rune(t.last.Body)
	if len(r) > previewLen {
		r = r[:previewLen]
	}
	return string(r)
}

// Ballots returns the round history of one entry. Strategies, in order: the
// entry record for a known entry id, a name scan over the tournament's result
// pages, and the student page for the tournament. When all of them come up
// dry the result is empty, not an error.
func (c *Client) Ballots(ctx context.Context, req BallotsRequest) (RoundsResult, error) {
	if req.Token == "" || req.TournID == "" {
		return RoundsResult{}, validationf("token and tournament id are required")
	}

	var t trail
	steps := []step[RoundsResult]{
		{name: "entry-record", run: func(ctx context.Context) (RoundsResult, error) {
			if req.EntryID == "" {
				return RoundsResult{}, errSkip
			}
			rounds, err := c.entryRounds(ctx, req.Token, req.TournID, req.EntryID, &t)
			return RoundsResult{Rounds: rounds}, err
		}},
		{name: "results-scan", run: func(ctx context.Context) (RoundsResult, error) {
			var names []string
			for _, n := range []string{req.EntryName, req.PersonName} {
				if n = strings.TrimSpace(n); n != "" {
					names = append(names, n)
				}
			}
			if len(names) == 0 {
				return RoundsResult{}, errSkip
			}
			return c.scanResults(ctx, req.Token, req.TournID, names, &t)
		}},
		{name: "student-page", run: func(ctx context.Context) (RoundsResult, error) {
			p, err := c.authedGet(ctx, req.Token, withQuery(studentTournPath, "tourn_id", req.TournID))
			if err != nil {
				return RoundsResult{}, err
			}
			t.saw(p)
			rounds := ExtractRounds(p.Body)
			if len(rounds) == 0 {
				return RoundsResult{}, emptyf("student page for %s has no rounds", req.TournID)
			}
			return RoundsResult{Rounds: rounds}, nil
		}},
	}

	res, err := runChain(ctx, c.log, "ballots", steps)
	if err != nil && !crerr.Is(err, ErrNotFound) {
		return RoundsResult{}, err
	}
	return finish(res, &t), nil
}

// MyRounds returns the signed-in user's rounds at a tournament, found through
// ResolveEntry. When the entry can't be resolved and personName is given, the
// tournament's result pages are scanned for that name instead.
func (c *Client) MyRounds(ctx context.Context, token, tournID, personName string) (RoundsResult, error) {
	res, err := c.ResolveEntry(ctx, token, tournID, personName)
	if err != nil {
		return RoundsResult{}, err
	}

	var t trail
	var out RoundsResult
	switch ref := res.Ref.(type) {
	case EntryByID:
		var onPage []RoundRecord
		if res.Page != nil {
			onPage = ExtractRounds(res.Page.Body)
		}
		record, err := c.entryRounds(ctx, token, tournID, ref.ID, &t)
		if err != nil && !crerr.Is(err, ErrExtractionEmpty) {
			if crerr.Is(err, ErrSessionInvalid) || len(onPage) == 0 {
				return RoundsResult{}, err
			}
			c.log.Info("entry record unavailable, using student page", zap.String("entry", ref.ID), zap.Error(err))
		}
		out.Rounds = BestRounds(record, onPage)

	case EntryEmbedded:
		t.saw(res.Page)
		out.Rounds = ExtractRounds(res.Page.Body)

	case EntryNotFound:
		personName = strings.TrimSpace(personName)
		if personName == "" {
			break
		}
		scanned, err := c.scanResults(ctx, token, tournID, []string{personName}, &t)
		switch {
		case err == nil:
			out = scanned
		case crerr.Is(err, ErrSessionInvalid), crerr.Is(err, ErrUpstreamUnavailable):
			return RoundsResult{}, err
		default:
			c.log.Debug("name scan found nothing", zap.String("tourn", tournID), zap.Error(err))
		}
	}
	return finish(out, &t), nil
}

func finish(res RoundsResult, t *trail) RoundsResult {
	if res.Rounds == nil {
		res.Rounds = []RoundRecord{}
	}
	res.Record = TallyRecord(res.Rounds)
	if len(res.Rounds) == 0 {
		res.Preview = t.preview()
	}
	return res
}

func (c *Client) entryRounds(ctx context.Context, token, tournID, entryID string, t *trail) ([]RoundRecord, error) {
	p, err := c.authedGet(ctx, token, withQuery(entryRecordPath, "tourn_id", tournID, "entry_id", entryID))
	if err != nil {
		return nil, err
	}
	t.saw(p)
	rounds := ExtractRounds(p.Body)
	if len(rounds) == 0 {
		return nil, emptyf("entry record %s has no rounds", entryID)
	}
	return rounds, nil
}

// scanResults walks the first few result pages of a tournament looking for a
// row that matches one of names, tried in order. A matching row's entry link
// leads to the rounds; its place column becomes the placement.
func (c *Client) scanResults(ctx context.Context, token, tournID string, names []string, t *trail) (RoundsResult, error) {
	idx, err := c.authedGet(ctx, token, withQuery(resultsIndexPath, "tourn_id", tournID))
	if err != nil {
		return RoundsResult{}, err
	}
	t.saw(idx)

	for _, link := range resultLinks(idx, tournID) {
		p, err := c.authedGet(ctx, token, link)
		if crerr.Is(err, ErrSessionInvalid) {
			return RoundsResult{}, err
		}
		if err != nil {
			c.log.Info("result page failed", zap.String("url", link), zap.Error(err))
			continue
		}
		t.saw(p)

		entryID, place, ok := matchResultRow(p.Body, names)
		if !ok || entryID == "" {
			continue
		}
		rounds, err := c.entryRounds(ctx, token, tournID, entryID, t)
		if crerr.Is(err, ErrSessionInvalid) {
			return RoundsResult{}, err
		}
		if len(rounds) > 0 {
			return RoundsResult{Rounds: rounds, Placement: place}, nil
		}
	}
	return RoundsResult{}, emptyf("no result row for %s", strings.Join(names, " / "))
}

// resultLinks lists the distinct result pages linked from a results index,
// resolved against the index URL, capped at maxResultLinks.
func resultLinks(idx *Page, tournID string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(idx.Body))
	if err != nil {
		return nil
	}
	base, _ := url.Parse(idx.URL)

	seen := make(map[string]bool)
	var out []string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		href = strings.ReplaceAll(strings.TrimSpace(href), "&amp;", "&")
		if !strings.Contains(strings.ToLower(href), "result") {
			return true
		}
		if queryParam(href, "result_id") == "" && queryParam(href, "tourn_id") != tournID {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		if base != nil {
			ref = base.ResolveReference(ref)
		}
		if strings.HasSuffix(ref.Path, resultsIndexPath) && ref.Query().Get("result_id") == "" {
			return true
		}
		abs := ref.String()
		if !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
		return len(out) < maxResultLinks
	})
	return out
}

// matchResultRow finds the first row with a cell matching names[0], then
// names[1], and so on. It returns the row's entry id and place.
func matchResultRow(html string, names []string) (entryID, place string, ok bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", false
	}

	placeCol := -1
	if header := findHeaderRow(doc); header != nil {
		for i, h := range cellTexts(header.Children().Filter("th, td")) {
			h = strings.ToLower(h)
			if strings.Contains(h, "place") || strings.Contains(h, "rank") {
				placeCol = i
				break
			}
		}
	}

	for _, name := range names {
		doc.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
			if isHeaderRow(tr) {
				return true
			}
			cells := cellTexts(tr.ChildrenFiltered("td"))
			hit := false
			for _, cell := range cells {
				if NameMatches(cell, name) {
					hit = true
					break
				}
			}
			if !hit {
				return true
			}

			ok = true
			tr.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
				href, _ := a.Attr("href")
				entryID = queryParam(href, "entry_id")
				return entryID == ""
			})
			switch {
			case placeCol >= 0 && placeCol < len(cells):
				place = cells[placeCol]
			case len(cells) > 0 && placeShape.MatchString(cells[0]):
				place = cells[0]
			}
			return false
		})
		if ok {
			return entryID, place, true
		}
	}
	return "", "", false
}

// BestRounds returns the candidate whose records carry the most populated
// fields. Ties go to the earlier candidate.
func BestRounds(candidates ...[]RoundRecord) []RoundRecord {
	var best []RoundRecord
	bestScore := -1
	for _, rounds := range candidates {
		score := 0
		for _, r := range rounds {
			score += r.filled()
		}
		if len(rounds) > 0 && score > bestScore {
			best, bestScore = rounds, score
		}
	}
	return best
}

// TallyRecord counts wins and losses from the decision column.
func TallyRecord(rounds []RoundRecord) WinLoss {
	var wl WinLoss
	for _, r := range rounds {
		switch outcome(r.Decision) {
		case 'W':
			wl.Wins++
		case 'L':
			wl.Losses++
		}
	}
	return wl
}

// outcome returns 'W' or 'L' for the first win/loss word in a decision, or 0.
func outcome(decision string) byte {
	words := strings.FieldsFunc(strings.ToUpper(decision), func(c rune) bool { return !unicode.IsLetter(c) })
	for _, w := range words {
		switch w {
		case "W", "WIN", "WON":
			return 'W'
		case "L", "LOSS", "LOST":
			return 'L'
		}
	}
	return 0
}
