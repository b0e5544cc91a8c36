package fakebot

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	bot := New("bot@example.com", "s3cret")
	bot.ReplyDelay = 10 * time.Millisecond
	srv := httptest.NewServer(bot.Handler())
	t.Cleanup(srv.Close)
	return bot, srv
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func login(t *testing.T, c *http.Client, base, email, pass string) *http.Response {
	t.Helper()
	resp, err := c.PostForm(base+"/login", url.Values{"email": {email}, "pass": {pass}})
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestReply(t *testing.T) {
	bot := New("a", "b")
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"hello", "Hi there! How can I help?", true},
		{"HELLO bot", "Hi there! How can I help?", true},
		{"What are your opening hours?", "We are open from 9am to 5pm, Monday to Friday.", true},
		{"bye", "Goodbye! Have a great day.", true},
		{"qwerty", DefaultFallback, true},
	}
	for _, tt := range tests {
		got, ok := bot.Reply(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Reply(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}

	bot.Fallback = ""
	bot.Rules = append(bot.Rules, Rule{Contains: "ping"})
	if _, ok := bot.Reply("ping"); ok {
		t.Error("rule with empty reply should be silent")
	}
	if _, ok := bot.Reply("qwerty"); ok {
		t.Error("empty fallback should be silent")
	}
}

func TestLoginFlow(t *testing.T) {
	_, srv := newTestServer(t)
	c := newClient(t)

	resp := login(t, c, srv.URL, "bot@example.com", "s3cret")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/home", resp.Request.URL.Path)

	page, err := c.Get(srv.URL + "/page")
	require.NoError(t, err)
	defer page.Body.Close()
	assert.Equal(t, "/page", page.Request.URL.Path)

	u, _ := url.Parse(srv.URL)
	cookies := c.Jar.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
}

func TestLoginRejected(t *testing.T) {
	_, srv := newTestServer(t)
	c := newClient(t)

	resp := login(t, c, srv.URL, "bot@example.com", "wrong")
	assert.Equal(t, "/", resp.Request.URL.Path)
	assert.Equal(t, "1", resp.Request.URL.Query().Get("error"))
}

func TestPageRequiresSession(t *testing.T) {
	bot, srv := newTestServer(t)
	c := newClient(t)

	resp, err := c.Get(srv.URL + "/page")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/", resp.Request.URL.Path)

	login(t, c, srv.URL, "bot@example.com", "s3cret")
	bot.Logout()

	resp, err = c.Get(srv.URL + "/page")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/", resp.Request.URL.Path, "expired session should land on the login form")
}

func TestPagesCarryDefaultSelectors(t *testing.T) {
	for _, want := range []string{`name="email"`, `name="pass"`, `name="login"`, `aria-label="Allow all cookies"`} {
		assert.Contains(t, loginHTML, want)
	}
	assert.Contains(t, homeHTML, `aria-label="Home"`)
	for _, want := range []string{`aria-label="Home"`, `aria-label="Message"`, `contenteditable="true"`, `'outgoing_message'`, `'data-ad-preview'`} {
		assert.Contains(t, pageHTML, want)
	}
	assert.Less(t, strings.Index(pageHTML, `id="open-chat"`), strings.Index(pageHTML, `id="composer"`),
		"message button must precede the chat input")
}

func TestWebSocketReplies(t *testing.T) {
	_, srv := newTestServer(t)
	c := newClient(t)
	login(t, c, srv.URL, "bot@example.com", "s3cret")

	u, _ := url.Parse(srv.URL)
	header := http.Header{}
	for _, ck := range c.Jar.Cookies(u) {
		header.Add("Cookie", ck.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	d := ws.Dialer{Header: ws.HandshakeHeaderHTTP(header)}
	conn, _, _, err := d.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, wsutil.WriteClientText(conn, []byte("hello")))
	reply, err := wsutil.ReadServerText(conn)
	require.NoError(t, err)
	assert.Equal(t, "Hi there! How can I help?", string(reply))
}

func TestWebSocketRequiresSession(t *testing.T) {
	_, srv := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws")
	assert.Error(t, err)
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- contains: refund\n  reply: Refunds take 5 days.\n- contains: silence\n"), 0644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "Refunds take 5 days.", rules[0].Reply)
	assert.Empty(t, rules[1].Reply)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("- reply: orphan\n"), 0644))
	_, err = LoadRules(bad)
	assert.ErrorContains(t, err, "rule 1 has no contains")
}
