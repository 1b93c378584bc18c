package tabroom

import (
	"context"
	"net/url"
	"strings"
)

const (
	registrationsPath = "/user/student/index.mhtml"
	entriesPath       = "/user/home.mhtml"
	studentTournPath  = "/user/student/tourn.mhtml"
	myResultsPath     = "/user/student/results.mhtml"
	entryRecordPath   = "/index/tourn/postings/entry_record.mhtml"
	resultsIndexPath  = "/index/tourn/results/index.mhtml"
	postingsIndexPath = "/index/tourn/postings/index.mhtml"
	roundPath         = "/index/tourn/postings/round.mhtml"
	paradigmPath      = "/index/paradigm.mhtml"
	calendarPath      = "/index/index.mhtml"
	personResultsPath = "/index/results/person.mhtml"
)

// withQuery appends key/value pairs to path, skipping empty values.
func withQuery(path string, kv ...string) string {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			q.Set(kv[i], kv[i+1])
		}
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// authedGet fetches a page that only makes sense with a live session and
// turns a login wall into ErrSessionInvalid.
func (c *Client) authedGet(ctx context.Context, token, path string) (*Page, error) {
	p, err := c.Get(ctx, token, path)
	if err != nil {
		return nil, err
	}
	if p.LoginWall() {
		return nil, sessionInvalid(stripQuery(path))
	}
	return p, nil
}

// queryParam reads key from a link's query string, tolerating the relative
// and entity-mangled hrefs the site emits.
func queryParam(href, key string) string {
	href = strings.ReplaceAll(href, "&amp;", "&")
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	q, _ := url.ParseQuery(strings.ReplaceAll(u.RawQuery, ";", "&"))
	return q.Get(key)
}

func stripQuery(path string) string {
	p, _, _ := strings.Cut(path, "?")
	return p
}
