package tabroom

import "strings"

var loginMarkers = []string{
	"please log in",
	"please login",
	"log in to view",
	"login to view",
	"must be logged in",
	"session has expired",
	"login_box",
	"loginbox",
	"login-box",
}

var noResultMarkers = []string{
	"returned no judges",
	"returned no results",
	"no results found",
	"no judges found",
}

// IsLoginPage reports whether text is the site's login wall rather than the
// requested page.
func IsLoginPage(text string) bool {
	lower := strings.ToLower(text)
	if containsAny(lower, loginMarkers) {
		return true
	}
	return strings.Contains(lower, "password") &&
		strings.Contains(lower, "email") &&
		strings.Contains(lower, "create a new account")
}

// IsNoResults reports whether text is a search page with nothing in it.
func IsNoResults(text string) bool {
	return containsAny(strings.ToLower(text), noResultMarkers)
}

// containsAny expects s to already be lower-cased.
func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
