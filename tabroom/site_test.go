package tabroom

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeSite serves canned pages keyed by path, or by path plus sorted query
// when a page depends on its parameters, and records every request.
type fakeSite struct {
	srv      *httptest.Server
	pages    map[string]string
	handlers map[string]http.HandlerFunc

	mu       sync.Mutex
	requests []string
	cookies  []string
	agents   []string
}

func newFakeSite(t *testing.T, pages map[string]string) *fakeSite {
	t.Helper()
	s := &fakeSite{pages: pages, handlers: make(map[string]http.HandlerFunc)}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *fakeSite) serve(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path
	if q := r.URL.Query().Encode(); q != "" {
		key += "?" + q
	}
	s.mu.Lock()
	s.requests = append(s.requests, key)
	s.cookies = append(s.cookies, r.Header.Get("Cookie"))
	s.agents = append(s.agents, r.Header.Get("User-Agent"))
	s.mu.Unlock()

	if h, ok := s.handlers[r.URL.Path]; ok {
		h(w, r)
		return
	}
	body, ok := s.pages[key]
	if !ok {
		body, ok = s.pages[r.URL.Path]
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

func (s *fakeSite) requested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// headers returns the Cookie and User-Agent header of every request.
func (s *fakeSite) headers() (cookies, agents []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cookies...), append([]string(nil), s.agents...)
}

func (s *fakeSite) count(path string) int {
	n := 0
	for _, r := range s.requested() {
		if r == path || stripQuery(r) == path {
			n++
		}
	}
	return n
}

func (s *fakeSite) client(t *testing.T) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: s.srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func fixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(b)
}
