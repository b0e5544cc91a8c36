package chat

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatcheck/chatcheck/internal/cases"
	"github.com/chatcheck/chatcheck/internal/config"
)

// scriptedPage stands in for a Chrome tab. Selectors in visible show up at
// once; others never do, so WaitVisible blocks until ctx ends.
type scriptedPage struct {
	mu sync.Mutex

	visible map[string]bool
	present map[string]bool
	// replies are returned by successive Text calls; the last one repeats.
	replies []string
	// loginOK makes the logged-in marker visible once the login button is clicked.
	loginOK  bool
	cookies  int
	stateErr error

	navigated []string
	clicked   []string
	filled    map[string]string
	keyRuns   int
	saved     []string
	reads     int
}

func newScriptedPage(visible ...string) *scriptedPage {
	p := &scriptedPage{visible: map[string]bool{}, present: map[string]bool{}, filled: map[string]string{}}
	for _, sel := range visible {
		p.visible[sel] = true
	}
	return p
}

func (p *scriptedPage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigated = append(p.navigated, url)
	return nil
}

func (p *scriptedPage) WaitVisible(ctx context.Context, selector string) error {
	p.mu.Lock()
	ok := p.visible[selector]
	p.mu.Unlock()
	if ok {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (p *scriptedPage) Present(ctx context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.present[selector] || p.visible[selector], nil
}

func (p *scriptedPage) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	if !p.visible[selector] {
		p.mu.Unlock()
		<-ctx.Done()
		return ctx.Err()
	}
	defer p.mu.Unlock()
	p.clicked = append(p.clicked, selector)
	if selector == config.DefaultSelectors().LoginButton && p.loginOK {
		p.visible[config.DefaultSelectors().LoggedIn] = true
	}
	return nil
}

func (p *scriptedPage) SendKeys(ctx context.Context, selector, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filled[selector] = text
	return nil
}

func (p *scriptedPage) Keys(ctx context.Context, actions ...chromedp.Action) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keyRuns++
	return nil
}

func (p *scriptedPage) Text(ctx context.Context, selector string) (*string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.replies) == 0 {
		return nil, nil
	}
	i := min(p.reads, len(p.replies)-1)
	p.reads++
	text := p.replies[i]
	return &text, nil
}

func (p *scriptedPage) LoadState(ctx context.Context, path string) (int, error) {
	return p.cookies, p.stateErr
}

func (p *scriptedPage) SaveState(ctx context.Context, path string, urls ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, path)
	return nil
}

func testConfig() *config.RuntimeConfig {
	cfg := config.Default()
	cfg.Email = "bot@example.com"
	cfg.Password = "s3cret"
	cfg.LoginURL = "http://bot.test/"
	cfg.PageURL = "http://bot.test/page"
	cfg.StorageState = "state.json"
	cfg.Timeouts = config.Timeouts{
		Reply:    700 * time.Millisecond,
		Login:    100 * time.Millisecond,
		Cookie:   50 * time.Millisecond,
		Navigate: time.Second,
		Action:   time.Second,
	}
	return cfg
}

func sessionOn(p *scriptedPage, cfg *config.RuntimeConfig, opts Options) *BrowserSession {
	return newBrowserSession(cfg, opts, p, context.Background(), nil)
}

func TestWaitReplyClassification(t *testing.T) {
	sel := config.DefaultSelectors()
	greeting := cases.Case{Name: "greeting", Input: "hello", Expected: "Hi"}

	tests := []struct {
		name    string
		page    *scriptedPage
		c       cases.Case
		want    string
		checkFn func(t *testing.T, err error)
	}{
		{
			name: "reply settles into a match",
			page: func() *scriptedPage {
				p := newScriptedPage(sel.BotReply)
				p.replies = []string{"…", "Hi there! How can I help?"}
				return p
			}(),
			c:    greeting,
			want: "Hi there! How can I help?",
			checkFn: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "reply never matches",
			page: func() *scriptedPage {
				p := newScriptedPage(sel.BotReply)
				p.replies = []string{"Sorry, I didn't catch that."}
				return p
			}(),
			c:    greeting,
			want: "Sorry, I didn't catch that.",
			checkFn: func(t *testing.T, err error) {
				var mm *cases.MismatchError
				require.ErrorAs(t, err, &mm)
				assert.Equal(t, "Sorry, I didn't catch that.", mm.Actual)
			},
		},
		{
			name: "no reply element",
			page: newScriptedPage(),
			c:    greeting,
			checkFn: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrReplyNotFound)
			},
		},
		{
			name: "bad pattern is not a mismatch",
			page: func() *scriptedPage {
				p := newScriptedPage(sel.BotReply)
				p.replies = []string{"anything"}
				return p
			}(),
			c:    cases.Case{Name: "re", Expected: "(", Match: cases.MatchRegex},
			want: "anything",
			checkFn: func(t *testing.T, err error) {
				require.Error(t, err)
				var mm *cases.MismatchError
				assert.False(t, errors.As(err, &mm))
				assert.NotErrorIs(t, err, ErrReplyNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sessionOn(tt.page, testConfig(), Options{})
			got, err := s.WaitReply(context.Background(), tt.c)
			assert.Equal(t, tt.want, got)
			tt.checkFn(t, err)
		})
	}
}

func TestWaitReplyCanceled(t *testing.T) {
	p := newScriptedPage(config.DefaultSelectors().BotReply)
	p.replies = []string{"typing"}
	s := sessionOn(p, testConfig(), Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	_, err := s.WaitReply(ctx, cases.Case{Expected: "Hi"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	var mm *cases.MismatchError
	assert.False(t, errors.As(err, &mm), "a canceled run is not a mismatch")
}

func TestLoginReusesStorageState(t *testing.T) {
	sel := config.DefaultSelectors()
	p := newScriptedPage(sel.LoggedIn)
	p.cookies = 3
	s := sessionOn(p, testConfig(), Options{})

	require.NoError(t, s.Login(context.Background()))
	assert.Equal(t, []string{"http://bot.test/page"}, p.navigated)
	assert.Empty(t, p.filled, "login form should not be touched")
	assert.Empty(t, p.saved)
}

func TestLoginFallsBackToForm(t *testing.T) {
	sel := config.DefaultSelectors()
	tests := []struct {
		name     string
		cookies  int
		stateErr error
	}{
		{"no state file", 0, &os.PathError{Op: "open", Path: "state.json", Err: os.ErrNotExist}},
		{"empty state", 0, nil},
		{"stale cookies", 2, nil},
		{"unreadable state", 0, errors.New("parse storage state: bad json")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newScriptedPage(sel.Email, sel.LoginButton)
			p.cookies, p.stateErr, p.loginOK = tt.cookies, tt.stateErr, true
			s := sessionOn(p, testConfig(), Options{})

			require.NoError(t, s.Login(context.Background()))
			assert.Equal(t, "bot@example.com", p.filled[sel.Email])
			assert.Equal(t, "s3cret", p.filled[sel.Password])
			assert.Contains(t, p.navigated, "http://bot.test/")
			assert.Equal(t, "http://bot.test/page", p.navigated[len(p.navigated)-1])
			assert.Equal(t, []string{"state.json"}, p.saved)
		})
	}
}

func TestLoginFreshIgnoresState(t *testing.T) {
	sel := config.DefaultSelectors()
	p := newScriptedPage(sel.Email, sel.LoginButton, sel.LoggedIn)
	p.cookies = 3
	s := sessionOn(p, testConfig(), Options{FreshLogin: true})

	require.NoError(t, s.Login(context.Background()))
	assert.Equal(t, []string{"http://bot.test/", "http://bot.test/page"}, p.navigated)
	assert.NotEmpty(t, p.filled)
}

func TestLoginDismissesCookieBanner(t *testing.T) {
	sel := config.DefaultSelectors()
	p := newScriptedPage(sel.CookieBanner, sel.Email, sel.LoginButton)
	p.loginOK = true
	s := sessionOn(p, testConfig(), Options{FreshLogin: true})

	require.NoError(t, s.Login(context.Background()))
	assert.Equal(t, []string{sel.CookieBanner, sel.LoginButton}, p.clicked)
}

func TestLoginRejected(t *testing.T) {
	sel := config.DefaultSelectors()
	p := newScriptedPage(sel.Email, sel.LoginButton)
	p.present[sel.Password] = true
	s := sessionOn(p, testConfig(), Options{FreshLogin: true})

	err := s.Login(context.Background())
	require.ErrorIs(t, err, ErrLogin)
	assert.Contains(t, err.Error(), "check email and password")
	assert.Empty(t, p.saved, "a failed login must not save state")
}

func TestLoginMarkerMissing(t *testing.T) {
	sel := config.DefaultSelectors()
	p := newScriptedPage(sel.Email, sel.LoginButton)
	s := sessionOn(p, testConfig(), Options{FreshLogin: true})

	err := s.Login(context.Background())
	require.ErrorIs(t, err, ErrLogin)
	assert.Contains(t, err.Error(), "logged-in marker")
}

func TestSend(t *testing.T) {
	sel := config.DefaultSelectors()
	p := newScriptedPage(sel.MessageButton, sel.ChatInput)
	s := sessionOn(p, testConfig(), Options{})

	require.NoError(t, s.Send(context.Background(), "hello"))
	assert.Equal(t, []string{sel.MessageButton, sel.ChatInput}, p.clicked)
	assert.Equal(t, 1, p.keyRuns)
}

func TestSendWithoutChatButton(t *testing.T) {
	p := newScriptedPage()
	cfg := testConfig()
	cfg.Timeouts.Action = 50 * time.Millisecond
	s := sessionOn(p, cfg, Options{})

	err := s.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `send "hello"`)
	assert.Zero(t, p.keyRuns)
}
