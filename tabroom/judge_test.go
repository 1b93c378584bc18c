package tabroom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	judgeSearch = "/index/paradigm.mhtml?search_first=Alex&search_last=Lee"
	judgePage11 = "/index/paradigm.mhtml?judge_person_id=11"
)

func TestClient_JudgeByNameAmbiguous(t *testing.T) {
	site := newFakeSite(t, map[string]string{
		judgeSearch: fixture(t, "judge_search.html"),
	})

	rec, err := site.client(t).Judge(context.Background(), "", "Alex Lee", "")
	require.NoError(t, err)
	assert.Empty(t, rec.Paradigm)
	assert.Equal(t, []JudgeCandidate{
		{JudgeID: "11", Name: "Alex Lee"},
		{JudgeID: "12", Name: "Alex Lee"},
	}, rec.Candidates)
	assert.Equal(t, SourceTabroom, rec.Source)

	// No paradigm page is opened until the caller picks one.
	assert.Equal(t, []string{judgeSearch}, site.requested())
}

func TestClient_JudgeByNameSingleCandidate(t *testing.T) {
	site := newFakeSite(t, map[string]string{
		judgeSearch: `<a href="/index/paradigm.mhtml?judge_person_id=11">Alex Lee</a>`,
		judgePage11: fixture(t, "paradigm.html"),
	})

	rec, err := site.client(t).Judge(context.Background(), "", "Alex Lee", "")
	require.NoError(t, err)
	assert.Equal(t, "11", rec.JudgeID)
	assert.Equal(t, "Alex Lee", rec.Name)
	assert.Contains(t, rec.Paradigm, "Tech over truth, but warrant your arguments & weigh impacts.")
	assert.Empty(t, rec.Candidates)
}

func TestClient_JudgeByNameInlineParadigm(t *testing.T) {
	site := newFakeSite(t, map[string]string{
		judgeSearch: `<h4>Alex Lee</h4><div id="paradigm_text">Flow judge. Speed is fine if you are clear.</div>`,
	})

	rec, err := site.client(t).Judge(context.Background(), "", "Alex Lee", "")
	require.NoError(t, err)
	assert.Equal(t, "Alex Lee", rec.Name)
	assert.Equal(t, "Flow judge. Speed is fine if you are clear.", rec.Paradigm)
}

func TestClient_JudgeByNameNoResults(t *testing.T) {
	site := newFakeSite(t, map[string]string{
		judgeSearch: "<p>Your search returned no judges.</p>",
	})

	rec, err := site.client(t).Judge(context.Background(), "", "Alex Lee", "")
	require.NoError(t, err)
	assert.True(t, rec.NoResults)
	assert.NotEmpty(t, rec.Warning)
	assert.Empty(t, rec.Paradigm)
}

func TestClient_JudgeByNameLoginWall(t *testing.T) {
	site := newFakeSite(t, map[string]string{
		judgeSearch: "<p>You must be logged in to search paradigms</p>",
	})

	rec, err := site.client(t).Judge(context.Background(), "", "Alex Lee", "")
	require.NoError(t, err)
	assert.True(t, rec.LoginRequired)
	assert.Equal(t, "Alex Lee", rec.Name)
	assert.Empty(t, rec.Paradigm)
}

func TestClient_JudgeByNameNothing(t *testing.T) {
	site := newFakeSite(t, map[string]string{
		judgeSearch: "<p>Paradigm search</p>",
	})

	rec, err := site.client(t).Judge(context.Background(), "", "Alex Lee", "")
	require.NoError(t, err)
	assert.Empty(t, rec.Paradigm)
	assert.Empty(t, rec.Candidates)
	assert.NotEmpty(t, rec.Warning)
}

func TestClient_JudgeByID(t *testing.T) {
	site := newFakeSite(t, map[string]string{
		judgePage11: fixture(t, "paradigm.html"),
	})

	rec, err := site.client(t).Judge(context.Background(), "11", "", "tok")
	require.NoError(t, err)
	assert.Equal(t, "Alex Lee", rec.Name)
	assert.Contains(t, rec.Paradigm, "ten years")
	assert.Equal(t, []string{judgePage11}, site.requested())
}

func TestClient_JudgeByIDLoginWall(t *testing.T) {
	site := newFakeSite(t, map[string]string{
		judgePage11: "<p>Please log in to view this page</p>",
	})

	rec, err := site.client(t).Judge(context.Background(), "11", "Alex Lee", "")
	require.NoError(t, err)
	assert.True(t, rec.LoginRequired)
	assert.Equal(t, "Alex Lee", rec.Name)
	assert.Empty(t, rec.Paradigm)
	assert.NotEmpty(t, rec.Warning)
}

func TestClient_JudgeValidation(t *testing.T) {
	site := newFakeSite(t, nil)
	_, err := site.client(t).Judge(context.Background(), " ", "", "")
	assert.True(t, crerr.Is(err, ErrValidation))
}

func TestClient_JudgeCatalog(t *testing.T) {
	payload := `{"judgeId":"11","name":"Alex Lee","paradigm":"Catalog paradigm text for Alex.","school":"Lincoln"}`
	catalogSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Alex Lee", r.URL.Query().Get("name"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	defer catalogSrv.Close()

	site := newFakeSite(t, nil)
	c, err := New(Config{BaseURL: site.srv.URL, CatalogURL: catalogSrv.URL})
	require.NoError(t, err)

	rec, err := c.Judge(context.Background(), "", "Alex Lee", "")
	require.NoError(t, err)
	assert.Equal(t, SourceCatalog, rec.Source)
	assert.Equal(t, "Catalog paradigm text for Alex.", rec.Paradigm)
	assert.JSONEq(t, payload, string(rec.Verbatim))
	assert.Empty(t, site.requested())
}

func TestClient_JudgeCatalogTimeout(t *testing.T) {
	catalogSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer catalogSrv.Close()

	site := newFakeSite(t, map[string]string{
		judgeSearch: `<a href="/index/paradigm.mhtml?judge_person_id=11">Alex Lee</a>`,
		judgePage11: fixture(t, "paradigm.html"),
	})
	c, err := New(Config{BaseURL: site.srv.URL, CatalogURL: catalogSrv.URL, CatalogTimeout: 50 * time.Millisecond})
	require.NoError(t, err)

	started := time.Now()
	rec, err := c.Judge(context.Background(), "", "Alex Lee", "")
	require.NoError(t, err)
	assert.Less(t, time.Since(started), 2*time.Second)
	assert.Equal(t, SourceTabroom, rec.Source)
	assert.Contains(t, rec.Paradigm, "ten years")
}

func TestJudgeCandidates(t *testing.T) {
	page := `<a href="/index/paradigm.mhtml?judge_person_id=1">Log in</a>
		<a href="/index/paradigm.mhtml?judge_person_id=2">Pat Jones</a>
		<a href="/index/paradigm.mhtml?judge_person_id=2">Pat Jones (again)</a>
		<a href="/index/paradigm.mhtml?judge_person_id=3">Judging record</a>
		<a href="/index/paradigm.mhtml?judge_person_id=">Empty</a>`
	assert.Equal(t, []JudgeCandidate{{JudgeID: "2", Name: "Pat Jones"}}, JudgeCandidates(page))
}

func TestExtractParadigm(t *testing.T) {
	t.Run("container", func(t *testing.T) {
		name, paradigm := ExtractParadigm(fixture(t, "paradigm.html"))
		assert.Equal(t, "Alex Lee", name)
		assert.Equal(t, "I have judged policy for ten years.\nTech over truth, but warrant your arguments & weigh impacts.", paradigm)
	})

	t.Run("after heading", func(t *testing.T) {
		page := `<h2>Paradigm</h2><h3>Sam Kim</h3>
			<p>Lay judge, please go slow and explain everything.</p>
			<p>Judging Record</p><p>Round 1 Aff</p>`
		name, paradigm := ExtractParadigm(page)
		assert.Equal(t, "Sam Kim", name)
		assert.Equal(t, "Lay judge, please go slow and explain everything.", paradigm)
	})

	t.Run("too short", func(t *testing.T) {
		_, paradigm := ExtractParadigm(`<h4>Sam Kim</h4><div class="paradigm">None.</div>`)
		assert.Empty(t, paradigm)
	})
}
