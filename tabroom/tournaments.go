package tabroom

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	datePattern = regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:\s*[-–]\s*(?:[a-z]+\.?\s+)?\d{1,2})?(?:,?\s*\d{4})?|\b\d{1,2}/\d{1,2}(?:/\d{2,4})?(?:\s*[-–]\s*\d{1,2}/\d{1,2}(?:/\d{2,4})?)?`)

	// Link text of per-tournament actions that sit next to the name link.
	tournamentNavText = map[string]bool{
		"results":  true,
		"pairings": true,
		"postings": true,
		"register": true,
		"entries":  true,
		"info":     true,
		"view":     true,
		"edit":     true,
		"drop":     true,
	}
)

// MyTournaments lists the tournaments on the user's registrations page.
func (c *Client) MyTournaments(ctx context.Context, token string) ([]TournamentRef, error) {
	return c.tournamentList(ctx, token, registrationsPath)
}

// Entries lists the upcoming entries on the user's home page.
func (c *Client) Entries(ctx context.Context, token string) ([]TournamentRef, error) {
	return c.tournamentList(ctx, token, entriesPath)
}

func (c *Client) tournamentList(ctx context.Context, token, path string) ([]TournamentRef, error) {
	if token == "" {
		return nil, validationf("token is required")
	}
	p, err := c.authedGet(ctx, token, path)
	if err != nil {
		return nil, err
	}
	return orEmpty(ExtractTournaments(p.Body)), nil
}

// PastResults returns a competitor's placement history. With a token the
// signed-in user's own results page is read; otherwise the public page for
// personID is.
func (c *Client) PastResults(ctx context.Context, personID, token string) ([]PlaceResult, error) {
	var p *Page
	var err error
	switch {
	case token != "":
		p, err = c.authedGet(ctx, token, myResultsPath)
	case personID != "":
		p, err = c.fetchPublic(ctx, withQuery(personResultsPath, "person_id", personID))
	default:
		return nil, validationf("person id or token is required")
	}
	if err != nil {
		return nil, err
	}
	results := ExtractPlaceResults(p.Body)
	if results == nil {
		results = []PlaceResult{}
	}
	return results, nil
}

// ExtractTournaments collects the tournaments linked from a page, one per
// tourn_id, in page order. Event and dates come from the link's table row.
func ExtractTournaments(page string) []TournamentRef {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil
	}
	eventCol, dateCol := -1, -1
	if header := findHeaderRow(doc); header != nil {
		for i, h := range cellTexts(header.Children().Filter("th, td")) {
			h = strings.ToLower(h)
			switch {
			case eventCol < 0 && (strings.Contains(h, "event") || strings.Contains(h, "division")):
				eventCol = i
			case dateCol < 0 && strings.Contains(h, "date"):
				dateCol = i
			}
		}
	}

	index := make(map[string]int)
	var out []TournamentRef
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		id := queryParam(href, "tourn_id")
		name := collapse(a.Text())
		if id == "" || tournamentNavText[strings.ToLower(name)] {
			return
		}
		if i, ok := index[id]; ok {
			if out[i].Name == "" {
				out[i].Name = name
			}
			return
		}

		ref := TournamentRef{ID: id, Name: name}
		if row := a.Closest("tr"); row.Length() > 0 {
			cells := cellTexts(row.ChildrenFiltered("td"))
			if eventCol >= 0 && eventCol < len(cells) {
				ref.Event = cells[eventCol]
			}
			if dateCol >= 0 && dateCol < len(cells) {
				ref.Dates = cells[dateCol]
			}
			if ref.Event == "" {
				row.Find("a[href]").EachWithBreak(func(_ int, ev *goquery.Selection) bool {
					evHref, _ := ev.Attr("href")
					if queryParam(evHref, "event_id") != "" {
						ref.Event = collapse(ev.Text())
					}
					return ref.Event == ""
				})
			}
			if ref.Dates == "" {
				for _, cell := range cells {
					if m := datePattern.FindString(cell); m != "" {
						ref.Dates = m
						break
					}
				}
			}
		}
		index[id] = len(out)
		out = append(out, ref)
	})
	return out
}

// ExtractPlaceResults reads a results-history table. Columns are assigned by
// header text; a page without a header row yields nothing.
func ExtractPlaceResults(page string) []PlaceResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil
	}
	header := findHeaderRow(doc)
	if header == nil {
		return nil
	}

	cols := make(map[string]int)
	for i, h := range cellTexts(header.Children().Filter("th, td")) {
		if role := placeRole(h); role != "" {
			if _, dup := cols[role]; !dup {
				cols[role] = i
			}
		}
	}
	if _, ok := cols["tournament"]; !ok {
		return nil
	}

	var out []PlaceResult
	eachDataRow(doc, header, func(cells []string) {
		get := func(role string) string {
			if i, ok := cols[role]; ok && i < len(cells) {
				return cells[i]
			}
			return ""
		}
		r := PlaceResult{
			Tournament: get("tournament"),
			Event:      get("event"),
			Place:      get("place"),
			Record:     get("record"),
			Dates:      get("dates"),
			Location:   get("location"),
		}
		if r.Tournament != "" {
			out = append(out, r)
		}
	})
	return out
}

func placeRole(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	switch {
	case strings.Contains(h, "tourn"):
		return "tournament"
	case strings.Contains(h, "event") || strings.Contains(h, "division"):
		return "event"
	case strings.Contains(h, "place") || strings.Contains(h, "rank"):
		return "place"
	case strings.Contains(h, "record") || strings.Contains(h, "w-l") || strings.Contains(h, "w/l"):
		return "record"
	case strings.Contains(h, "date"):
		return "dates"
	case strings.Contains(h, "location") || strings.Contains(h, "city") || strings.Contains(h, "site"):
		return "location"
	}
	return ""
}

func orEmpty(refs []TournamentRef) []TournamentRef {
	if refs == nil {
		return []TournamentRef{}
	}
	return refs
}
