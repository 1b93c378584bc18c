package tabroom

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"
)

// EntryRef is how the user's round history for one tournament can be
// reached: EntryByID, EntryEmbedded or EntryNotFound.
type EntryRef interface {
	entryRef()
}

// EntryByID is a real entry id; its rounds live on the entry record page.
type EntryByID struct {
	ID string
}

// EntryEmbedded means the student page fetched while resolving already holds
// the rounds, and no entry id was exposed.
type EntryEmbedded struct {
	TournamentID string
	StudentID    string
}

// EntryNotFound means every strategy ran and none found the entry.
type EntryNotFound struct{}

func (EntryByID) entryRef()     {}
func (EntryEmbedded) entryRef() {}
func (EntryNotFound) entryRef() {}

type Resolution struct {
	Ref EntryRef
	// Page is the student page seen by the winning strategy, if any. For
	// EntryEmbedded it is the page holding the rounds.
	Page *Page
}

var (
	tournThenEntry = regexp.MustCompile(`tourn_id=(\d+)[^"'<>\s]*?entry_id=(\d+)`)
	entryThenTourn = regexp.MustCompile(`entry_id=(\d+)[^"'<>\s]*?tourn_id=(\d+)`)
	entryIDLink    = regexp.MustCompile(`[?&;]entry_id=(\d+)`)
)

// ResolveEntry finds the user's entry for tournID. The strategies run
// cheapest first and stop at the first hit:
//
//  1. the registrations page, for a link pairing tournID with an entry id;
//  2. the student page for the student id found in step 1, for an entry id
//     or, failing that, rounds rendered directly on it;
//  3. the student page without a student id, for an entry id.
//
// Running out of strategies is not an error: the result is EntryNotFound.
func (c *Client) ResolveEntry(ctx context.Context, token, tournID, displayName string) (Resolution, error) {
	if token == "" || tournID == "" {
		return Resolution{}, validationf("token and tournament id are required")
	}

	var studentID string
	steps := []step[Resolution]{
		{name: "registrations", run: func(ctx context.Context) (Resolution, error) {
			p, err := c.authedGet(ctx, token, registrationsPath)
			if err != nil {
				return Resolution{}, err
			}
			var entryID string
			entryID, studentID = scanRegistrations(p.Body, tournID, displayName)
			if entryID != "" {
				return Resolution{Ref: EntryByID{ID: entryID}}, nil
			}
			return Resolution{}, notFoundf("no entry link for tournament %s", tournID)
		}},
		{name: "student-page", run: func(ctx context.Context) (Resolution, error) {
			if studentID == "" {
				return Resolution{}, errSkip
			}
			p, err := c.authedGet(ctx, token, withQuery(studentTournPath, "tourn_id", tournID, "student_id", studentID))
			if err != nil {
				return Resolution{}, err
			}
			if id := findEntryID(p.Body, tournID); id != "" {
				return Resolution{Ref: EntryByID{ID: id}, Page: p}, nil
			}
			if len(ExtractRounds(p.Body)) > 0 {
				return Resolution{Ref: EntryEmbedded{TournamentID: tournID, StudentID: studentID}, Page: p}, nil
			}
			return Resolution{}, notFoundf("student page for %s has no entry", studentID)
		}},
		{name: "tournament-page", run: func(ctx context.Context) (Resolution, error) {
			p, err := c.authedGet(ctx, token, withQuery(studentTournPath, "tourn_id", tournID))
			if err != nil {
				return Resolution{}, err
			}
			if id := findEntryID(p.Body, tournID); id != "" {
				return Resolution{Ref: EntryByID{ID: id}, Page: p}, nil
			}
			return Resolution{}, notFoundf("tournament page for %s has no entry", tournID)
		}},
	}

	res, err := runChain(ctx, c.log, "entry", steps)
	if crerr.Is(err, ErrNotFound) {
		return Resolution{Ref: EntryNotFound{}}, nil
	}
	return res, err
}

// scanRegistrations looks for links tying tournID to an entry id and for a
// student id scoped to the same tournament. With several entries for the
// tournament, the one whose row matches displayName wins.
func scanRegistrations(html, tournID, displayName string) (entryID, studentID string) {
	type candidate struct{ id, row string }
	var entries []candidate

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			if queryParam(href, "tourn_id") != tournID {
				return
			}
			if id := queryParam(href, "entry_id"); id != "" {
				entries = append(entries, candidate{id: id, row: collapse(a.Closest("tr").Text())})
			}
			if id := queryParam(href, "student_id"); id != "" && studentID == "" {
				studentID = id
			}
		})
	}

	// Links built in scripts or onclick handlers never show up as hrefs.
	if len(entries) == 0 {
		for _, m := range tournThenEntry.FindAllStringSubmatch(html, -1) {
			if m[1] == tournID {
				entries = append(entries, candidate{id: m[2]})
			}
		}
		for _, m := range entryThenTourn.FindAllStringSubmatch(html, -1) {
			if m[2] == tournID {
				entries = append(entries, candidate{id: m[1]})
			}
		}
	}

	if len(entries) == 0 {
		return "", studentID
	}
	if displayName != "" && len(entries) > 1 {
		for _, e := range entries {
			if NameMatches(e.row, displayName) {
				return e.id, studentID
			}
		}
	}
	return entries[0].id, studentID
}

// findEntryID looks for the user's own entry id on a student page. Round
// tables are dropped first: their opponent cells link the other team's entry
// record, not ours.
func findEntryID(html, tournID string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("table").Each(func(_ int, tbl *goquery.Selection) {
		if tbl.Find("table").Length() > 0 {
			return
		}
		if raw, err := goquery.OuterHtml(tbl); err == nil && len(ExtractRounds(raw)) > 0 {
			tbl.Remove()
		}
	})

	if v, ok := doc.Find(`input[name="entry_id"]`).Attr("value"); ok && isDigits(v) {
		return v
	}

	var id string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if t := queryParam(href, "tourn_id"); t != "" && t != tournID {
			return true
		}
		id = queryParam(href, "entry_id")
		return id == ""
	})
	if id != "" {
		return id
	}

	// Script-built links.
	rest, err := doc.Html()
	if err != nil {
		return ""
	}
	if m := entryIDLink.FindStringSubmatch(rest); m != nil {
		return m[1]
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
