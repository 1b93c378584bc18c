package tabroom

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const loginPath = "/user/login/login_save.mhtml"

// Pages that may carry the person id and display name, tried in order.
var dashboardPaths = []string{
	"/user/home.mhtml",
	"/user/student/index.mhtml",
	"/user/login/profile.mhtml",
}

var (
	personIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[?&;]person_id=(\d+)`),
		regexp.MustCompile(`name=["']person_id["'][^>]*value=["'](\d+)`),
		regexp.MustCompile(`data-person[_-]id=["'](\d+)`),
		regexp.MustCompile(`["']person_id["']\s*:\s*["']?(\d+)`),
	}

	welcomePattern = regexp.MustCompile(`(?i:welcome),?[ \t]+([A-Z][A-Za-z'.\-]+(?:[ \t]+[A-Z][A-Za-z'.\-]+)+)`)
	welcomeMarkup  = regexp.MustCompile(`(?i:welcome),?\s*(?:<[^>]+>\s*)+([A-Z][A-Za-z'.\-]+(?:[ \t]+[A-Z][A-Za-z'.\-]+)+)`)
	firstField     = regexp.MustCompile(`name=["']first["'][^>]*value=["']([^"']+)`)
	lastField      = regexp.MustCompile(`name=["']last["'][^>]*value=["']([^"']+)`)
	nameShape      = regexp.MustCompile(`^[A-Za-z][^<>@]{2,48}$`)
	titleName      = regexp.MustCompile(`^[A-Z][A-Za-z'.\-]+(?:\s+[A-Z][A-Za-z'.\-]+)+$`)
	localPartSep   = regexp.MustCompile(`[._\-+]+`)
)

// Login submits credentials and returns the session. PersonID and
// DisplayName come from the first dashboard pages that carry them; the
// display name falls back to one derived from the email address.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, validationf("email and password are required")
	}

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	page, err := c.do(ctx, c.login, http.MethodPost, "", loginPath, form)
	if err != nil {
		return Session{}, err
	}

	if msg := loginError(page.Header.Get("Location")); msg != "" {
		err := crerr.Mark(crerr.Newf("login rejected: %s", msg), ErrAuthenticationFailed)
		return Session{}, crerr.WithHint(err, msg)
	}
	token := c.sessionCookie(page)
	if token == "" {
		return Session{}, crerr.Mark(crerr.New("login rejected: no session cookie issued"), ErrAuthenticationFailed)
	}

	sess := Session{Token: token}
	for _, path := range dashboardPaths {
		if sess.PersonID != "" && sess.DisplayName != "" {
			break
		}
		p, err := c.Get(ctx, token, path)
		if err != nil {
			c.log.Info("dashboard fetch failed", zap.String("path", path), zap.Error(err))
			continue
		}
		if p.LoginWall() {
			c.log.Info("dashboard fetch hit login wall", zap.String("path", path))
			continue
		}
		if sess.PersonID == "" {
			sess.PersonID = extractPersonID(p.Body)
		}
		if sess.DisplayName == "" {
			sess.DisplayName = extractDisplayName(p.Body)
		}
	}
	if sess.DisplayName == "" {
		sess.DisplayName = nameFromEmail(email)
	}
	return sess, nil
}

func loginError(location string) string {
	if location == "" {
		return ""
	}
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	if !u.Query().Has("err") {
		return ""
	}
	msg := strings.TrimSpace(u.Query().Get("err"))
	if msg == "" {
		msg = "invalid credentials"
	}
	return msg
}

func (c *Client) sessionCookie(p *Page) string {
	resp := &http.Response{Header: p.Header}
	for _, ck := range resp.Cookies() {
		if ck.Name == c.cookieName && ck.Value != "" && ck.MaxAge >= 0 {
			return ck.Value
		}
	}
	return ""
}

func extractPersonID(html string) string {
	for _, re := range personIDPatterns {
		if m := re.FindStringSubmatch(html); m != nil {
			return m[1]
		}
	}
	return ""
}

// extractDisplayName tries, in order: a "Welcome, First Last" banner, an
// element classed "name", the page title, and the first/last form fields.
func extractDisplayName(html string) string {
	var candidates []string
	if m := welcomePattern.FindStringSubmatch(pageLines(html)); m != nil {
		candidates = append(candidates, m[1])
	} else if m := welcomeMarkup.FindStringSubmatch(html); m != nil {
		candidates = append(candidates, m[1])
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		candidates = append(candidates, collapse(doc.Find(".name").First().Text()))
	}

	first, last := firstField.FindStringSubmatch(html), lastField.FindStringSubmatch(html)
	if first != nil && last != nil {
		candidates = append(candidates, strings.TrimSpace(first[1])+" "+strings.TrimSpace(last[1]))
	}

	// Titles are usually page names; only a capitalised full name counts.
	if err == nil {
		title := collapse(doc.Find("title").First().Text())
		if titleName.MatchString(title) && !strings.Contains(strings.ToLower(title), "tabroom") {
			candidates = append(candidates, title)
		}
	}

	for _, name := range candidates {
		if nameShape.MatchString(name) {
			return name
		}
	}
	return ""
}

// nameFromEmail turns "jane.smith@x.org" into "Jane Smith".
func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local = strings.TrimSpace(localPartSep.ReplaceAllString(local, " "))
	if local == "" {
		return email
	}
	return cases.Title(language.English).String(local)
}
