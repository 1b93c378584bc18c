package main

import (
	"net/http"

	crerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/cpacia/tab-server/tabroom"
)

func (s *Server) POSTLoginHandler(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := s.decode(r, &creds); err != nil {
		s.writeError(w, r, err)
		return
	}

	key := loginRateLimitKey(r, creds.Email)
	ctx, err := s.loginRateLimiter.Peek(r.Context(), key)
	if err != nil {
		s.writeError(w, r, crerr.Wrap(err, "rate limiter"))
		return
	}
	if ctx.Reached {
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
			Error: "Too many failed login attempts. Try again later.",
			Code:  "rate_limited",
		})
		return
	}

	sess, err := s.engine.Login(r.Context(), creds.Email, creds.Password)
	if err != nil {
		if crerr.Is(err, tabroom.ErrAuthenticationFailed) {
			if _, lerr := s.loginRateLimiter.Increment(r.Context(), key, 1); lerr != nil {
				s.log.Warn("rate limiter increment failed", zap.Error(lerr))
			}
		}
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Success:  true,
		Token:    sess.Token,
		PersonID: sess.PersonID,
		Name:     sess.DisplayName,
		Email:    creds.Email,
	})
}

func (s *Server) POSTMyTournamentsHandler(w http.ResponseWriter, r *http.Request) {
	var req SessionToken
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	tourns, err := s.engine.MyTournaments(r.Context(), req.Token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TournamentsResponse{Tournaments: tourns, Total: len(tourns)})
}

func (s *Server) POSTEntriesHandler(w http.ResponseWriter, r *http.Request) {
	var req SessionToken
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	entries, err := s.engine.Entries(r.Context(), req.Token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EntriesResponse{Entries: entries, Total: len(entries)})
}

func (s *Server) POSTUpcomingHandler(w http.ResponseWriter, r *http.Request) {
	tourns, err := s.engine.Upcoming(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TournamentsResponse{Tournaments: tourns, Total: len(tourns)})
}

func (s *Server) POSTPairingsHandler(w http.ResponseWriter, r *http.Request) {
	var req PairingsRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.Pairings(r.Context(), req.Token, req.TournID, req.EventID, req.RoundID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PairingsResponse{
		Pairings: res.Pairings,
		Total:    len(res.Pairings),
		CoinFlip: res.CoinFlip,
		Preview:  s.preview(res.Preview),
	})
}

// POSTJudgeHandler answers with the judge record, or with {results} when the
// name matched several judges. Catalog hits are passed through as received.
func (s *Server) POSTJudgeHandler(w http.ResponseWriter, r *http.Request) {
	var req JudgeRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.engine.Judge(r.Context(), req.JudgeID, req.JudgeName, req.Token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(rec.Verbatim) > 0 {
		writeRawJSON(w, http.StatusOK, rec.Verbatim)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) POSTBallotsHandler(w http.ResponseWriter, r *http.Request) {
	var req BallotsRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.Ballots(r.Context(), tabroom.BallotsRequest{
		Token:      req.Token,
		TournID:    req.TournID,
		EntryID:    req.EntryID,
		EntryName:  req.EntryName,
		PersonName: req.PersonName,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BallotsResponse{
		Rounds:    res.Rounds,
		Total:     len(res.Rounds),
		Placement: res.Placement,
		Preview:   s.preview(res.Preview),
	})
}

func (s *Server) POSTMyRoundsHandler(w http.ResponseWriter, r *http.Request) {
	var req MyRoundsRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.MyRounds(r.Context(), req.Token, req.TournID, req.PersonName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MyRoundsResponse{
		Rounds:  res.Rounds,
		Record:  res.Record,
		Total:   len(res.Rounds),
		Preview: s.preview(res.Preview),
	})
}

func (s *Server) POSTPastResultsHandler(w http.ResponseWriter, r *http.Request) {
	var req PastResultsRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	results, err := s.engine.PastResults(r.Context(), req.PersonID, req.Token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PastResultsResponse{Results: results, Total: len(results)})
}

func (s *Server) GETHealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
