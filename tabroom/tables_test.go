package tabroom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRounds_Header(t *testing.T) {
	rounds := ExtractRounds(fixture(t, "student_rounds.html"))
	require.Len(t, rounds, 3)
	assert.Equal(t, RoundRecord{
		Round:    "Round 1",
		Side:     "Aff",
		Opponent: "Lincoln AB",
		Judge:    "Pat Jones",
		Decision: "W",
		Points:   "28.5",
	}, rounds[0])
	assert.Equal(t, "Round 3", rounds[2].Round)
	assert.Equal(t, "Lee Park", rounds[2].Judge)
}

func TestExtractRounds_Positional(t *testing.T) {
	page := `<table>
		<tr><td>R1</td><td>Aff</td><td>Lincoln AB</td><td>Pat Jones</td><td>W</td></tr>
		<tr><td>Lincoln High</td><td>x</td><td>y</td></tr>
		<tr><td>Quarters</td><td>Neg</td><td>Central CD</td></tr>
		<tr><td>R2</td><td>Aff</td></tr>
	</table>`

	rounds := ExtractRounds(page)
	require.Len(t, rounds, 2)
	assert.Equal(t, RoundRecord{Round: "R1", Side: "Aff", Opponent: "Lincoln AB", Judge: "Pat Jones", Decision: "W"}, rounds[0])
	assert.Equal(t, RoundRecord{Round: "Quarters", Side: "Neg", Opponent: "Central CD"}, rounds[1])
}

func TestExtractRounds_RoundAlwaysSet(t *testing.T) {
	page := `<table>
		<tr><th>Rd</th><th>Judge</th><th>W/L</th></tr>
		<tr><td></td><td>Pat Jones</td><td>W</td></tr>
		<tr><td>2</td><td>Sam Kim</td><td>L</td></tr>
		<tr><td>3</td><td>Lee Park</td></tr>
	</table>`

	rounds := ExtractRounds(page)
	require.Len(t, rounds, 1)
	assert.Equal(t, RoundRecord{Round: "2", Judge: "Sam Kim", Decision: "L"}, rounds[0])

	for _, page := range []string{page, fixture(t, "student_rounds.html"), fixture(t, "pairings.html"), fixture(t, "home.html")} {
		for _, r := range ExtractRounds(page) {
			assert.NotEmpty(t, r.Round)
		}
	}
}

func TestExtractRounds_Deterministic(t *testing.T) {
	for _, name := range []string{"student_rounds.html", "pairings.html", "event_results.html"} {
		page := fixture(t, name)
		assert.Equal(t, ExtractRounds(page), ExtractRounds(page), name)
		assert.Equal(t, ExtractTableRows(page), ExtractTableRows(page), name)
	}
}

func TestExtractRounds_NoTables(t *testing.T) {
	assert.Empty(t, ExtractRounds("<p>No rounds have been posted.</p>"))
	assert.Empty(t, ExtractRounds(""))
}

func TestExtractTableRows(t *testing.T) {
	rows := ExtractTableRows(fixture(t, "pairings.html"))
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]string{"room": "101", "aff": "Lincoln AB", "neg": "Central CD", "judge": "Pat Jones"}, rows[0])

	rows = ExtractTableRows(`<table><tr><td>101</td><td>Lincoln AB</td></tr><tr><td>only</td></tr></table>`)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]string{"col1": "101", "col2": "Lincoln AB"}, rows[0])
}

func Test_headerRole(t *testing.T) {
	tests := map[string]string{
		"Judge(s)": roleJudge,
		"Panel":    roleJudge,
		"Opp":      roleOpponent,
		"Ballot":   roleDecision,
		"W/L":      roleDecision,
		"Spkr Pts": rolePoints,
		"Speaks":   rolePoints,
		"Rd":       roleRound,
		"R":        roleRound,
		"Round":    roleRound,
		"Room":     roleRoom,
		"Side":     roleSide,
		"School":   "",
		"":         "",
	}
	for header, want := range tests {
		assert.Equal(t, want, headerRole(header), header)
	}
}

func TestLooksLikeRound(t *testing.T) {
	for _, s := range []string{"Round 1", "R2", "Rd. 3", "Quarters", "Double Octos", "Semis", "Finals"} {
		assert.True(t, LooksLikeRound(s), s)
	}
	for _, s := range []string{"Lincoln High", "Aff", "28.5", ""} {
		assert.False(t, LooksLikeRound(s), s)
	}
}
