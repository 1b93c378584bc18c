package tabroom

import (
	"context"
	"net/url"
	"testing"

	crerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetHeaders(t *testing.T) {
	site := newFakeSite(t, map[string]string{"/user/home.mhtml": "<p>hi</p>"})
	c := site.client(t)

	p, err := c.Get(context.Background(), "abc%3D%3D", "/user/home.mhtml")
	require.NoError(t, err)
	assert.Equal(t, 200, p.Status)
	assert.Equal(t, "<p>hi</p>", p.Body)
	assert.False(t, p.LoginWall())

	_, err = c.Get(context.Background(), "", site.srv.URL+"/user/home.mhtml")
	require.NoError(t, err)

	cookies, agents := site.headers()
	assert.Equal(t, []string{"TabroomToken=abc==", ""}, cookies)
	assert.Equal(t, DefaultUserAgent, agents[0])
}

func TestClient_GetNotFoundIsNotFatal(t *testing.T) {
	site := newFakeSite(t, nil)

	p, err := site.client(t).Get(context.Background(), "tok", "/missing.mhtml")
	require.NoError(t, err)
	assert.Equal(t, 404, p.Status)
}

func TestClient_PostForm(t *testing.T) {
	site := newFakeSite(t, map[string]string{"/index/search.mhtml": "<p>ok</p>"})

	p, err := site.client(t).PostForm(context.Background(), "tok", "/index/search.mhtml", url.Values{"q": {"lee"}})
	require.NoError(t, err)
	assert.Equal(t, "<p>ok</p>", p.Body)
}

func TestClient_GetTransportError(t *testing.T) {
	site := newFakeSite(t, nil)
	c := site.client(t)
	site.srv.Close()

	_, err := c.Get(context.Background(), "tok", "/user/home.mhtml")
	require.Error(t, err)
	assert.True(t, crerr.Is(err, ErrUpstreamUnavailable))
}

func TestNew(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"})
	assert.True(t, crerr.Is(err, ErrValidation))

	c, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL+"/user/home.mhtml", c.resolve("user/home.mhtml"))
	assert.Equal(t, "https://example.org/x", c.resolve("https://example.org/x"))
	assert.Nil(t, c.catalog)
}
