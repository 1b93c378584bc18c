package tabroom

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	roleRound    = "round"
	roleSide     = "side"
	roleOpponent = "opponent"
	roleJudge    = "judge"
	roleDecision = "decision"
	rolePoints   = "points"
	roleRoom     = "room"
)

// Column order used when a table has no header row.
var positionalRoles = []string{roleRound, roleSide, roleOpponent, roleJudge, roleDecision, rolePoints, roleRoom}

var (
	rdWord         = regexp.MustCompile(`\brd\b`)
	roundNumbered  = regexp.MustCompile(`(?i)^(?:round|rnd|rd\.?|r)\s*\d+`)
	roundElimStage = regexp.MustCompile(`(?i)\b(?:octo|octa|octs|double|triple|dbl|quarter|qtr|semi|sems|final|elim|prelim|runoff|partial)`)
)

// ExtractRounds turns the tables of a page into round records, in document
// order. When the page has a header row, columns are assigned by header text
// and only the rows after it are read; otherwise columns are taken by
// position and a row is kept only if its first cell looks like a round label.
func ExtractRounds(html string) []RoundRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	header := findHeaderRow(doc)
	var roles map[int]string
	if header != nil {
		roles = make(map[int]string)
		for i, h := range cellTexts(header.Children().Filter("th, td")) {
			if role := headerRole(h); role != "" {
				roles[i] = role
			}
		}
	}

	var out []RoundRecord
	eachDataRow(doc, header, func(cells []string) {
		if len(cells) < 3 {
			return
		}
		var rec RoundRecord
		if roles != nil {
			for i, text := range cells {
				if role, ok := roles[i]; ok {
					rec.set(role, text)
				}
			}
		} else {
			if !LooksLikeRound(cells[0]) {
				return
			}
			for i, text := range cells {
				if i >= len(positionalRoles) {
					break
				}
				rec.set(positionalRoles[i], text)
			}
		}
		if rec.Round != "" {
			out = append(out, rec)
		}
	})
	return out
}

// ExtractTableRows returns the rows of a page keyed by lower-cased header
// text, or by "col1", "col2", ... when there is no header row. Rows with fewer
// than two cells are skipped.
func ExtractTableRows(html string) []map[string]string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	header := findHeaderRow(doc)
	var keys []string
	if header != nil {
		for _, h := range cellTexts(header.Children().Filter("th, td")) {
			keys = append(keys, strings.ToLower(h))
		}
	}

	var out []map[string]string
	eachDataRow(doc, header, func(cells []string) {
		if len(cells) < 2 {
			return
		}
		row := make(map[string]string, len(cells))
		for i, text := range cells {
			if text == "" {
				continue
			}
			key := ""
			if i < len(keys) {
				key = keys[i]
			}
			if key == "" {
				key = "col" + strconv.Itoa(i+1)
			}
			if _, dup := row[key]; !dup {
				row[key] = text
			}
		}
		if len(row) > 0 {
			out = append(out, row)
		}
	})
	return out
}

// LooksLikeRound reports whether a cell reads like a round label ("Round 3",
// "R2", "Quarters", "Double Octos").
func LooksLikeRound(s string) bool {
	s = strings.TrimSpace(s)
	return roundNumbered.MatchString(s) || roundElimStage.MatchString(s)
}

func headerRole(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	switch {
	case h == "":
		return ""
	case strings.Contains(h, "judge") || strings.Contains(h, "panel"):
		return roleJudge
	case strings.Contains(h, "opp"):
		return roleOpponent
	case containsAny(h, []string{"decision", "result", "ballot", "w/l"}):
		return roleDecision
	case containsAny(h, []string{"point", "speak", "pts"}):
		return rolePoints
	case strings.Contains(h, "round") || rdWord.MatchString(h) || h == "r":
		return roleRound
	case strings.Contains(h, "room"):
		return roleRoom
	case strings.Contains(h, "side"):
		return roleSide
	}
	return ""
}

func (r *RoundRecord) set(role, v string) {
	if v == "" {
		return
	}
	var field *string
	switch role {
	case roleRound:
		field = &r.Round
	case roleSide:
		field = &r.Side
	case roleOpponent:
		field = &r.Opponent
	case roleJudge:
		field = &r.Judge
	case roleDecision:
		field = &r.Decision
	case rolePoints:
		field = &r.Points
	case roleRoom:
		field = &r.Room
	default:
		return
	}
	if *field == "" {
		*field = v
	}
}

func isHeaderRow(tr *goquery.Selection) bool {
	return tr.ChildrenFiltered("th").Length() > 0 || tr.ParentsFiltered("thead").Length() > 0
}

func findHeaderRow(doc *goquery.Document) *goquery.Selection {
	var header *goquery.Selection
	doc.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		if isHeaderRow(tr) {
			header = tr
			return false
		}
		return true
	})
	return header
}

// eachDataRow calls fn with the cell texts of every non-header row, starting
// after header when one is given.
func eachDataRow(doc *goquery.Document, header *goquery.Selection, fn func(cells []string)) {
	started := header == nil
	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if !started {
			started = tr.Get(0) == header.Get(0)
			return
		}
		if isHeaderRow(tr) {
			return
		}
		fn(cellTexts(tr.ChildrenFiltered("td")))
	})
}

func cellTexts(cells *goquery.Selection) []string {
	out := make([]string, 0, cells.Length())
	cells.Each(func(_ int, td *goquery.Selection) {
		out = append(out, collapse(td.Text()))
	})
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
