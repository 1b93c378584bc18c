package tabroom

import (
	"context"
	"testing"

	crerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roundPage = "/index/tourn/postings/round.mhtml?round_id=9&tourn_id=100"

func TestClient_PairingsByRound(t *testing.T) {
	site := newFakeSite(t, map[string]string{
		roundPage: fixture(t, "pairings.html"),
	})

	res, err := site.client(t).Pairings(context.Background(), "tok", "100", "", "9")
	require.NoError(t, err)
	require.Len(t, res.Pairings, 2)
	assert.Equal(t, "West EF", res.Pairings[1]["aff"])
	require.NotNil(t, res.CoinFlip)
	assert.Equal(t, FlipCompleted, res.CoinFlip.Status)
	assert.Equal(t, "NEG", res.CoinFlip.AssignedSide)
	assert.Equal(t, []string{roundPage}, site.requested())
}

func TestClient_PairingsFromIndex(t *testing.T) {
	index := "/index/tourn/postings/index.mhtml?event_id=3&tourn_id=100"
	site := newFakeSite(t, map[string]string{
		index:     `<ul><li><a href="round.mhtml?tourn_id=100&amp;round_id=9">Round 2</a></li></ul>`,
		roundPage: `<table><tr><th>Aff</th><th>Neg</th></tr><tr><td>Lincoln AB</td><td>Central CD</td></tr></table>`,
	})

	res, err := site.client(t).Pairings(context.Background(), "tok", "100", "3", "")
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"aff": "Lincoln AB", "neg": "Central CD"}}, res.Pairings)
	assert.Nil(t, res.CoinFlip)
	assert.Equal(t, []string{index, roundPage}, site.requested())
}

func TestClient_PairingsNotPosted(t *testing.T) {
	site := newFakeSite(t, map[string]string{
		roundPage: "<p>Pairings not yet released</p>",
		"/index/tourn/postings/index.mhtml?tourn_id=100": "<p>Nothing posted</p>",
	})

	res, err := site.client(t).Pairings(context.Background(), "tok", "100", "", "9")
	require.NoError(t, err)
	assert.NotNil(t, res.Pairings)
	assert.Empty(t, res.Pairings)
	assert.Contains(t, res.Preview, "Nothing posted")
}

func TestClient_PairingsSessionInvalid(t *testing.T) {
	site := newFakeSite(t, map[string]string{
		roundPage: "<div id=\"login_box\"></div>",
	})

	_, err := site.client(t).Pairings(context.Background(), "tok", "100", "", "9")
	assert.True(t, crerr.Is(err, ErrSessionInvalid))
}
