package tabroom

// Session is the caller-held credential for the upstream site. Token is the
// raw session cookie value; PersonID and DisplayName are filled in when the
// dashboard walk finds them.
type Session struct {
	Token       string `json:"token"`
	PersonID    string `json:"personId"`
	DisplayName string `json:"name"`
}

type TournamentRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Event string `json:"event,omitempty"`
	Dates string `json:"dates,omitempty"`
}

// RoundRecord is one row of a competitor's round history. Only Round is
// guaranteed to be set.
type RoundRecord struct {
	Round    string `json:"round"`
	Side     string `json:"side,omitempty"`
	Opponent string `json:"opponent,omitempty"`
	Judge    string `json:"judge,omitempty"`
	Decision string `json:"decision,omitempty"`
	Points   string `json:"points,omitempty"`
	Room     string `json:"room,omitempty"`
}

// filled counts the populated fields, used to rank pages by completeness.
func (r RoundRecord) filled() int {
	n := 0
	for _, v := range []string{r.Round, r.Side, r.Opponent, r.Judge, r.Decision, r.Points, r.Room} {
		if v != "" {
			n++
		}
	}
	return n
}

type WinLoss struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

type JudgeCandidate struct {
	JudgeID string `json:"judgeId"`
	Name    string `json:"name"`
}

// JudgeRecord is the result of a paradigm lookup. At most one of Paradigm and
// Candidates is set; when neither is, Warning says why.
type JudgeRecord struct {
	JudgeID       string           `json:"judgeId,omitempty"`
	Name          string           `json:"name"`
	Paradigm      string           `json:"paradigm,omitempty"`
	Source        string           `json:"source"`
	Candidates    []JudgeCandidate `json:"results,omitempty"`
	Warning       string           `json:"warning,omitempty"`
	LoginRequired bool             `json:"loginRequired,omitempty"`
	NoResults     bool             `json:"noResults,omitempty"`

	// Verbatim is the catalog's payload, passed through untouched.
	Verbatim []byte `json:"-"`
}

const (
	SourceTabroom = "tabroom"
	SourceCatalog = "catalog"
)

const (
	FlipPending   = "pending"
	FlipActive    = "active"
	FlipCompleted = "completed"
)

// CoinFlip describes the side-assignment widget of a pairings page.
type CoinFlip struct {
	Available        bool   `json:"available"`
	Status           string `json:"status,omitempty"`
	Deadline         string `json:"deadline,omitempty"`
	CountdownSeconds *int   `json:"countdownSeconds,omitempty"`
	AssignedSide     string `json:"assignedSide,omitempty"`
}

type PlaceResult struct {
	Tournament string `json:"tournament"`
	Event      string `json:"event"`
	Place      string `json:"place"`
	Record     string `json:"record"`
	Dates      string `json:"dates,omitempty"`
	Location   string `json:"location,omitempty"`
}
