package tabroom

import (
	crerr "github.com/cockroachdb/errors"
)

// Error kinds. Concrete errors are marked with one of these so callers can
// classify them with crerr.Is regardless of the wrapped message.
var (
	ErrValidation           = crerr.New("invalid input")
	ErrAuthenticationFailed = crerr.New("authentication failed")
	ErrSessionInvalid       = crerr.New("session invalid")
	ErrUpstreamUnavailable  = crerr.New("upstream unavailable")
	ErrNotFound             = crerr.New("not found")
	ErrAmbiguousMatch       = crerr.New("ambiguous match")
	ErrExtractionEmpty      = crerr.New("no rows extracted")
)

// errSkip marks a strategy that had nothing to try (e.g. a missing id) and
// made no upstream call.
var errSkip = crerr.New("strategy not applicable")

func validationf(format string, args ...any) error {
	return crerr.Mark(crerr.Newf(format, args...), ErrValidation)
}

func sessionInvalid(path string) error {
	loginWalls.Inc()
	return crerr.Mark(crerr.Newf("login page returned for %s", path), ErrSessionInvalid)
}

func notFoundf(format string, args ...any) error {
	return crerr.Mark(crerr.Newf(format, args...), ErrNotFound)
}

func emptyf(format string, args ...any) error {
	return crerr.Mark(crerr.Newf(format, args...), ErrExtractionEmpty)
}
