package main

import (
	"github.com/cpacia/tab-server/tabroom"
)

// tokenCarrier is implemented by requests that act on an upstream session.
// An empty token is filled from the Authorization header or cookie before
// validation.
type tokenCarrier interface {
	tokenRef() *string
}

type SessionToken struct {
	Token string `json:"token" validate:"required"`
}

func (t *SessionToken) tokenRef() *string { return &t.Token }

type OptionalToken struct {
	Token string `json:"token"`
}

func (t *OptionalToken) tokenRef() *string { return &t.Token }

type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type PairingsRequest struct {
	SessionToken
	TournID string `json:"tournId" validate:"required,numeric"`
	EventID string `json:"eventId" validate:"omitempty,numeric"`
	RoundID string `json:"roundId" validate:"omitempty,numeric"`
}

type JudgeRequest struct {
	OptionalToken
	JudgeID   string `json:"judgeId" validate:"omitempty,numeric"`
	JudgeName string `json:"judgeName" validate:"required_without=JudgeID"`
}

type BallotsRequest struct {
	SessionToken
	TournID    string `json:"tournId" validate:"required,numeric"`
	EntryID    string `json:"entryId" validate:"omitempty,numeric"`
	EntryName  string `json:"entryName"`
	PersonName string `json:"personName"`
}

type MyRoundsRequest struct {
	SessionToken
	TournID    string `json:"tournId" validate:"required,numeric"`
	PersonName string `json:"personName"`
}

type PastResultsRequest struct {
	OptionalToken
	PersonID string `json:"personId" validate:"omitempty,numeric"`
}

type LoginResponse struct {
	Success  bool   `json:"success"`
	Token    string `json:"token"`
	PersonID string `json:"personId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

type TournamentsResponse struct {
	Tournaments []tabroom.TournamentRef `json:"tournaments"`
	Total       int                     `json:"total"`
}

type EntriesResponse struct {
	Entries []tabroom.TournamentRef `json:"entries"`
	Total   int                     `json:"total"`
}

type PairingsResponse struct {
	Pairings []map[string]string `json:"pairings"`
	Total    int                 `json:"total"`
	CoinFlip *tabroom.CoinFlip   `json:"coinFlip,omitempty"`
	Preview  string              `json:"preview,omitempty"`
}

type BallotsResponse struct {
	Rounds    []tabroom.RoundRecord `json:"rounds"`
	Total     int                   `json:"total"`
	Placement string                `json:"placement,omitempty"`
	Preview   string                `json:"preview,omitempty"`
}

type MyRoundsResponse struct {
	Rounds  []tabroom.RoundRecord `json:"rounds"`
	Record  tabroom.WinLoss       `json:"record"`
	Total   int                   `json:"total"`
	Preview string                `json:"preview,omitempty"`
}

type PastResultsResponse struct {
	Results []tabroom.PlaceResult `json:"results"`
	Total   int                   `json:"total"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
