package tabroom

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const minParadigmLen = 20

var (
	// Containers that hold the paradigm body, most specific first.
	paradigmSelectors = []string{
		".paradigm",
		"#paradigm",
		"[class*=paradigm]",
		"[id*=paradigm]",
		".ltborderbottom",
	}

	// Headings that are page chrome rather than a judge's name.
	headingStoplist = []string{
		"paradigm",
		"tabroom",
		"search",
		"judging record",
		"judge record",
		"log in",
		"login",
		"sign in",
		"results",
		"tournament",
		"ratings",
		"contact",
	}

	// Link text on search pages that points at a judge but isn't a name.
	candidateBoilerplate = []string{
		"view past",
		"rating",
		"search",
		"log in",
		"login",
		"sign in",
		"record",
	}

	// Lines where the free text after a judge's name ends.
	footerMarkers = []string{
		"judging record",
		"ratings",
		"copyright",
		"©",
		"privacy policy",
		"terms of use",
		"about tabroom",
		"main menu",
	}
)

// Judge looks up a judge's paradigm by id, or by name when no id is given.
// A name that matches several judges yields Candidates and no paradigm.
func (c *Client) Judge(ctx context.Context, judgeID, judgeName, token string) (JudgeRecord, error) {
	judgeID, judgeName = strings.TrimSpace(judgeID), strings.TrimSpace(judgeName)
	switch {
	case judgeID != "":
		return c.judgeByID(ctx, token, judgeID, judgeName)
	case judgeName != "":
		return c.judgeByName(ctx, token, judgeName)
	}
	return JudgeRecord{}, validationf("judge id or name is required")
}

func (c *Client) judgeByID(ctx context.Context, token, judgeID, knownName string) (JudgeRecord, error) {
	p, err := c.Get(ctx, token, withQuery(paradigmPath, "judge_person_id", judgeID))
	if err != nil {
		return JudgeRecord{}, err
	}

	rec := JudgeRecord{JudgeID: judgeID, Name: knownName, Source: SourceTabroom}
	if p.LoginWall() {
		loginWalls.Inc()
		rec.LoginRequired = true
		rec.Warning = "Sign in to Tabroom to view this paradigm."
		return rec, nil
	}

	name, paradigm := ExtractParadigm(p.Body)
	if name != "" {
		rec.Name = name
	}
	rec.Paradigm = paradigm
	if paradigm == "" {
		rec.Warning = "No paradigm posted."
	}
	return rec, nil
}

func (c *Client) judgeByName(ctx context.Context, token, name string) (JudgeRecord, error) {
	steps := []step[JudgeRecord]{
		{name: "catalog", run: func(ctx context.Context) (JudgeRecord, error) {
			if c.catalog == nil {
				return JudgeRecord{}, errSkip
			}
			return c.catalog.lookup(ctx, c.userAgent, name)
		}},
		{name: "search", run: func(ctx context.Context) (JudgeRecord, error) {
			return c.searchJudge(ctx, token, name)
		}},
	}

	rec, err := runChain(ctx, c.log, "judge", steps)
	if crerr.Is(err, ErrNotFound) {
		return JudgeRecord{Name: name, Source: SourceTabroom, Warning: "No paradigm found."}, nil
	}
	return rec, err
}

func (c *Client) searchJudge(ctx context.Context, token, name string) (JudgeRecord, error) {
	first, last := splitName(name)
	p, err := c.Get(ctx, token, withQuery(paradigmPath, "search_first", first, "search_last", last))
	if err != nil {
		return JudgeRecord{}, err
	}

	rec := JudgeRecord{Name: name, Source: SourceTabroom}
	switch {
	case p.LoginWall():
		loginWalls.Inc()
		rec.LoginRequired = true
		rec.Warning = "Sign in to Tabroom to search paradigms."
		return rec, nil
	case IsNoResults(p.Body):
		rec.NoResults = true
		rec.Warning = "No judges matched that name."
		return rec, nil
	}

	candidates := JudgeCandidates(p.Body)
	switch len(candidates) {
	case 0:
		heading, paradigm := ExtractParadigm(p.Body)
		if paradigm == "" {
			return JudgeRecord{}, notFoundf("no judge links or paradigm for %q", name)
		}
		if heading != "" {
			rec.Name = heading
		}
		rec.Paradigm = paradigm
		return rec, nil
	case 1:
		return c.judgeByID(ctx, token, candidates[0].JudgeID, candidates[0].Name)
	}

	c.log.Info("judge search ambiguous",
		zap.String("name", name),
		zap.Error(crerr.Mark(crerr.Newf("%d judges match", len(candidates)), ErrAmbiguousMatch)),
	)
	rec.Candidates = candidates
	return rec, nil
}

// splitName turns "Jane Q Smith" into ("Jane", "Smith"). A single word is
// searched as a last name.
func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	}
	return parts[0], parts[len(parts)-1]
}

// JudgeCandidates lists the distinct judges linked from a search page, in
// page order, skipping links whose text is navigation rather than a name.
func JudgeCandidates(page string) []JudgeCandidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var out []JudgeCandidate
	doc.Find(`a[href*="judge_person_id="]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		id := queryParam(href, "judge_person_id")
		text := collapse(a.Text())
		if id == "" || text == "" || seen[id] {
			return
		}
		if containsAny(strings.ToLower(text), candidateBoilerplate) {
			return
		}
		seen[id] = true
		out = append(out, JudgeCandidate{JudgeID: id, Name: text})
	})
	return out
}

// ExtractParadigm pulls the judge's name and paradigm text off a paradigm
// page. Either may be empty.
func ExtractParadigm(page string) (name, paradigm string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", ""
	}

	name = firstHeading(doc, "h4")
	if name == "" {
		name = firstHeading(doc, "h2, h3")
	}

	for _, sel := range paradigmSelectors {
		found := ""
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if text := blockText(s); len(text) > minParadigmLen {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			return name, found
		}
	}

	if name != "" {
		if text := textAfterHeading(page, name); len(text) > minParadigmLen {
			return name, text
		}
	}
	return name, ""
}

func firstHeading(doc *goquery.Document, sel string) string {
	var name string
	doc.Find(sel).EachWithBreak(func(_ int, h *goquery.Selection) bool {
		text := collapse(h.Text())
		if text == "" || len(text) > 60 || containsAny(strings.ToLower(text), headingStoplist) {
			return true
		}
		name = text
		return false
	})
	return name
}

// blockText is the text of s with its line structure kept.
func blockText(s *goquery.Selection) string {
	raw, err := goquery.OuterHtml(s)
	if err != nil {
		return collapse(s.Text())
	}
	return pageLines(raw)
}

// textAfterHeading returns the lines after the one equal to heading, up to
// the first footer or menu line.
func textAfterHeading(page, heading string) string {
	lines := strings.Split(pageLines(page), "\n")
	start := -1
	for i, line := range lines {
		if line == heading {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return ""
	}

	var body []string
	for _, line := range lines[start:] {
		lower := strings.ToLower(line)
		if len(line) < 40 && containsAny(lower, footerMarkers) {
			break
		}
		body = append(body, line)
	}
	return strings.Join(body, "\n")
}
