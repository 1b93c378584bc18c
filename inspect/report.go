package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/cpacia/tab-server/tabroom"
)

// report is everything the extractors could pull out of one page.
type report struct {
	Source       string                   `json:"source"`
	Bytes        int                      `json:"bytes"`
	LoginWall    bool                     `json:"loginWall"`
	NoResults    bool                     `json:"noResults"`
	Rounds       []tabroom.RoundRecord    `json:"rounds"`
	Record       tabroom.WinLoss          `json:"record"`
	Rows         []map[string]string      `json:"rows"`
	NameRows     []int                    `json:"nameRows,omitempty"`
	CoinFlip     tabroom.CoinFlip         `json:"coinFlip"`
	JudgeName    string                   `json:"judgeName,omitempty"`
	Paradigm     string                   `json:"paradigm,omitempty"`
	Candidates   []tabroom.JudgeCandidate `json:"candidates,omitempty"`
	Tournaments  []tabroom.TournamentRef  `json:"tournaments,omitempty"`
	PlaceResults []tabroom.PlaceResult    `json:"placeResults,omitempty"`
}

func buildReport(source, page, name string) report {
	rep := report{
		Source:       source,
		Bytes:        len(page),
		LoginWall:    tabroom.IsLoginPage(page),
		NoResults:    tabroom.IsNoResults(page),
		Rounds:       tabroom.ExtractRounds(page),
		Rows:         tabroom.ExtractTableRows(page),
		CoinFlip:     tabroom.DetectCoinFlip(page),
		Candidates:   tabroom.JudgeCandidates(page),
		Tournaments:  tabroom.ExtractTournaments(page),
		PlaceResults: tabroom.ExtractPlaceResults(page),
	}
	rep.Record = tabroom.TallyRecord(rep.Rounds)
	rep.JudgeName, rep.Paradigm = tabroom.ExtractParadigm(page)

	if name != "" {
		for i, row := range rep.Rows {
			for _, cell := range row {
				if tabroom.NameMatches(cell, name) {
					rep.NameRows = append(rep.NameRows, i)
					break
				}
			}
		}
	}
	return rep
}

func (r report) print(w io.Writer, paradigmChars int) {
	fmt.Fprintf(w, "%-14s %s (%d bytes)\n", "Source", r.Source, r.Bytes)
	fmt.Fprintf(w, "%-14s %t\n", "Login wall", r.LoginWall)
	fmt.Fprintf(w, "%-14s %t\n", "No results", r.NoResults)

	fmt.Fprintf(w, "\nRounds: %d (%d-%d)\n", len(r.Rounds), r.Record.Wins, r.Record.Losses)
	if len(r.Rounds) > 0 {
		fmt.Fprintf(w, "%-10s %-5s %-22s %-18s %-8s %-6s %s\n", "Round", "Side", "Opponent", "Judge", "Dec", "Pts", "Room")
		for _, rd := range r.Rounds {
			fmt.Fprintf(w, "%-10s %-5s %-22s %-18s %-8s %-6s %s\n",
				clip(rd.Round, 10), rd.Side, clip(rd.Opponent, 22), clip(rd.Judge, 18), rd.Decision, rd.Points, rd.Room)
		}
	}

	fmt.Fprintf(w, "\nTable rows: %d\n", len(r.Rows))
	if len(r.NameRows) > 0 {
		fmt.Fprintf(w, "%-14s %v\n", "Name matches", r.NameRows)
	}

	if r.CoinFlip.Available {
		fmt.Fprintf(w, "\nCoin flip: %s", r.CoinFlip.Status)
		if r.CoinFlip.AssignedSide != "" {
			fmt.Fprintf(w, ", side %s", r.CoinFlip.AssignedSide)
		}
		if r.CoinFlip.Deadline != "" {
			fmt.Fprintf(w, ", deadline %s", r.CoinFlip.Deadline)
		}
		if r.CoinFlip.CountdownSeconds != nil {
			fmt.Fprintf(w, ", %ds left", *r.CoinFlip.CountdownSeconds)
		}
		fmt.Fprintln(w)
	}

	if len(r.Candidates) > 0 {
		fmt.Fprintf(w, "\nJudge candidates: %d\n", len(r.Candidates))
		for _, c := range r.Candidates {
			fmt.Fprintf(w, "  %-10s %s\n", c.JudgeID, c.Name)
		}
	}
	if r.Paradigm != "" {
		fmt.Fprintf(w, "\nParadigm for %q:\n  %s\n", r.JudgeName, clip(strings.ReplaceAll(r.Paradigm, "\n", " "), paradigmChars))
	}

	if len(r.Tournaments) > 0 {
		fmt.Fprintf(w, "\nTournaments: %d\n", len(r.Tournaments))
		for _, t := range r.Tournaments {
			fmt.Fprintf(w, "  %-8s %-34s %-20s %s\n", t.ID, clip(t.Name, 34), clip(t.Event, 20), t.Dates)
		}
	}
	if len(r.PlaceResults) > 0 {
		fmt.Fprintf(w, "\nPlacements: %d\n", len(r.PlaceResults))
		for _, p := range r.PlaceResults {
			fmt.Fprintf(w, "  %-34s %-20s %-14s %s\n", clip(p.Tournament, 34), clip(p.Event, 20), p.Place, p.Record)
		}
	}
}

func clip(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
