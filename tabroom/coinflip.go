package tabroom

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

var (
	flipMarkers = []string{
		"coin flip",
		"coinflip",
		"coin_flip",
		"flip for sides",
		"side flip",
		"flip sides",
		"flip results",
	}
	flipDoneMarkers = []string{
		"flip complete",
		"sides locked",
		"sides are locked",
		"sides have been locked",
	}
	flipActiveMarkers = []string{
		"flip in progress",
		"in progress",
		"flip now",
	}

	tagPattern      = regexp.MustCompile(`<[^>]*>`)
	deadlinePattern = regexp.MustCompile(`(?i)\b(?:deadline|flip by|flip due|due by|must flip by)\s*:?\s*([^\n]{3,80})`)
	countdownAttr   = regexp.MustCompile(`(?i)data-(?:countdown|seconds|remaining|timer)\s*=\s*["']?(\d+)`)
	countdownText   = regexp.MustCompile(`(?i)\b(?:countdown|timer|time remaining|seconds remaining|seconds left)\D{0,20}?(\d+)`)
	assignedPattern = regexp.MustCompile(`(?is)\b(?:assigned|your side)\b(.{0,80}?)\b(aff|neg)(?:irmative|ative)?\b`)
)

// DetectCoinFlip reads the side-assignment state off a pairings page.
// Pages without any flip marker report Available=false and nothing else.
func DetectCoinFlip(page string) CoinFlip {
	lower := strings.ToLower(page)
	if !containsAny(lower, flipMarkers) && !containsAny(lower, flipDoneMarkers) {
		return CoinFlip{}
	}

	text := pageLines(page)
	flip := CoinFlip{Available: true}

	if m := deadlinePattern.FindStringSubmatch(text); m != nil {
		flip.Deadline = strings.TrimSpace(m[1])
	}

	if m := countdownAttr.FindStringSubmatch(page); m != nil {
		flip.CountdownSeconds = atoiPtr(m[1])
	} else if m := countdownText.FindStringSubmatch(text); m != nil {
		flip.CountdownSeconds = atoiPtr(m[1])
	}

	switch {
	case containsAny(lower, flipDoneMarkers):
		flip.Status = FlipCompleted
	case containsAny(lower, flipActiveMarkers) || flip.CountdownSeconds != nil:
		flip.Status = FlipActive
	default:
		flip.Status = FlipPending
	}

	if m := assignedPattern.FindStringSubmatch(text); m != nil {
		flip.AssignedSide = strings.ToUpper(m[2])
	}
	return flip
}

// pageLines strips tags and entities, leaving one line per text run.
func pageLines(page string) string {
	stripped := html.UnescapeString(tagPattern.ReplaceAllString(page, "\n"))
	var lines []string
	for _, line := range strings.Split(stripped, "\n") {
		if line = collapse(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func atoiPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
