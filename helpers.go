package main

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/cpacia/tab-server/tabroom"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, status int, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

// errorStatus maps an engine error kind to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case crerr.Is(err, tabroom.ErrValidation):
		return http.StatusBadRequest, "invalid_input"
	case crerr.Is(err, tabroom.ErrAuthenticationFailed):
		return http.StatusUnauthorized, "authentication_failed"
	case crerr.Is(err, tabroom.ErrSessionInvalid):
		return http.StatusUnauthorized, "session_invalid"
	case crerr.Is(err, tabroom.ErrUpstreamUnavailable):
		return http.StatusBadGateway, "upstream_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	switch code {
	case "authentication_failed":
		// Tabroom's own rejection text, when it sent one.
		msg = crerr.FlattenHints(err)
		if msg == "" {
			msg = "Invalid email or password"
		}
	case "session_invalid":
		msg = "Tabroom session expired. Please sign in again."
	case "internal":
		msg = "Internal server error"
	}

	fields := []zap.Field{
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", fields...)
	} else {
		s.log.Info("request rejected", fields...)
	}
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

// decode reads a JSON body into v, fills a missing session token from the
// request headers and validates the result. An empty body decodes as {}.
func (s *Server) decode(r *http.Request, v any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return crerr.Mark(crerr.Wrap(err, "read body"), tabroom.ErrValidation)
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := sonic.Unmarshal(raw, v); err != nil {
			return crerr.Mark(crerr.Wrap(err, "malformed JSON body"), tabroom.ErrValidation)
		}
	}
	if tc, ok := v.(tokenCarrier); ok {
		if tok := tc.tokenRef(); *tok == "" {
			*tok = s.requestToken(r)
		}
	}
	if err := s.validate.StructCtx(r.Context(), v); err != nil {
		return crerr.Mark(crerr.Wrap(err, "invalid request"), tabroom.ErrValidation)
	}
	return nil
}

// requestToken finds a session token outside the JSON body: a bearer token
// first, then the upstream cookie name sent as a cookie.
func (s *Server) requestToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	if c, err := r.Cookie(s.cookieName); err == nil {
		return c.Value
	}
	return ""
}

func loginRateLimitKey(r *http.Request, email string) string {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return "login:" + ip + ":" + strings.ToLower(strings.TrimSpace(email))
}

func (s *Server) preview(p string) string {
	if !s.debugPreview {
		return ""
	}
	return p
}

// accessLog replaces middleware.Logger with a zap line per request.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(started)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
