package tabroom

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
)

const maxCatalogBytes = 1 << 20

// catalog is an external judge directory queried by name before falling back
// to the site's own search. It is best effort: any failure, including the
// timeout, just moves the lookup on.
type catalog struct {
	url     string
	timeout time.Duration
	http    *http.Client
}

type catalogEntry struct {
	JudgeID  string `json:"judgeId"`
	Name     string `json:"name"`
	Paradigm string `json:"paradigm"`
}

func (c *catalog) lookup(ctx context.Context, userAgent, name string) (JudgeRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	sep := "?"
	if strings.Contains(c.url, "?") {
		sep = "&"
	}
	target := c.url + sep + "name=" + url.QueryEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return JudgeRecord{}, crerr.Wrap(err, "build catalog request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return JudgeRecord{}, crerr.Mark(crerr.Wrap(err, "catalog"), ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return JudgeRecord{}, notFoundf("catalog answered %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes))
	if err != nil {
		return JudgeRecord{}, crerr.Mark(crerr.Wrap(err, "read catalog"), ErrUpstreamUnavailable)
	}
	var entry catalogEntry
	if err := sonic.Unmarshal(raw, &entry); err != nil {
		return JudgeRecord{}, crerr.Wrap(err, "decode catalog")
	}
	if strings.TrimSpace(entry.Paradigm) == "" {
		return JudgeRecord{}, notFoundf("catalog has no paradigm for %q", name)
	}

	rec := JudgeRecord{
		JudgeID:  entry.JudgeID,
		Name:     entry.Name,
		Paradigm: entry.Paradigm,
		Source:   SourceCatalog,
		Verbatim: raw,
	}
	if rec.Name == "" {
		rec.Name = name
	}
	return rec, nil
}
