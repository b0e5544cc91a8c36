package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chatcheck/chatcheck/internal/browser"
	"github.com/chatcheck/chatcheck/internal/cases"
	"github.com/chatcheck/chatcheck/internal/config"
	"github.com/chatcheck/chatcheck/internal/human"
)

const replyPollInterval = 200 * time.Millisecond

type Options struct {
	// FreshLogin ignores any saved storage state.
	FreshLogin bool
}

// BrowserSession is a Session over a Chrome tab.
type BrowserSession struct {
	cfg  *config.RuntimeConfig
	opts Options
	page page
	// tab is the context every page call is derived from.
	tab          context.Context
	closeBrowser func()
}

var _ Session = (*BrowserSession)(nil)

// Open launches a browser for cfg. The caller must Login before sending.
func Open(ctx context.Context, cfg *config.RuntimeConfig, opts Options) (*BrowserSession, error) {
	b, err := browser.Launch(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLogin, err)
	}
	return newBrowserSession(cfg, opts, cdpPage{}, b.Tab(), b.Close), nil
}

func newBrowserSession(cfg *config.RuntimeConfig, opts Options, p page, tab context.Context, closeFn func()) *BrowserSession {
	return &BrowserSession{cfg: cfg, opts: opts, page: p, tab: tab, closeBrowser: closeFn}
}

// scope derives a context from the tab that also ends when ctx does.
func (s *BrowserSession) scope(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	tctx, cancel := context.WithTimeout(s.tab, d)
	stop := context.AfterFunc(ctx, cancel)
	return tctx, func() {
		stop()
		cancel()
	}
}

func (s *BrowserSession) Login(ctx context.Context) error {
	if !s.opts.FreshLogin && s.cfg.StorageState != "" {
		ok, err := s.restore(ctx)
		switch {
		case err != nil:
			slog.Warn("storage state restore failed, logging in", "path", s.cfg.StorageState, "err", err)
		case ok:
			slog.Info("reused saved session", "path", s.cfg.StorageState)
			return nil
		}
	}

	if err := s.loginForm(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrLogin, err)
	}
	return nil
}

// restore installs saved cookies and checks they still yield a logged-in
// page. A missing state file is not an error.
func (s *BrowserSession) restore(ctx context.Context) (bool, error) {
	tctx, cancel := s.scope(ctx, s.cfg.Timeouts.Navigate)
	defer cancel()

	n, err := s.page.LoadState(tctx, s.cfg.StorageState)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil || n == 0 {
		return false, err
	}

	if err := s.page.Navigate(tctx, s.cfg.PageURL); err != nil {
		return false, fmt.Errorf("navigate %s: %w", s.cfg.PageURL, err)
	}
	if err := s.waitVisible(ctx, s.cfg.Selectors.LoggedIn, s.cfg.Timeouts.Cookie); err != nil {
		slog.Info("saved session is no longer logged in")
		return false, nil
	}
	return true, nil
}

func (s *BrowserSession) loginForm(ctx context.Context) error {
	sel := s.cfg.Selectors

	nctx, ncancel := s.scope(ctx, s.cfg.Timeouts.Navigate)
	err := s.page.Navigate(nctx, s.cfg.LoginURL)
	ncancel()
	if err != nil {
		return fmt.Errorf("navigate %s: %w", s.cfg.LoginURL, err)
	}

	s.dismissCookieBanner(ctx)

	if err := s.fillLoginForm(ctx); err != nil {
		return fmt.Errorf("fill login form: %w", err)
	}

	if err := s.waitVisible(ctx, sel.LoggedIn, s.cfg.Timeouts.Login); err != nil {
		if s.onLoginForm(ctx) {
			return errors.New("still on the login form after submitting; check email and password")
		}
		return fmt.Errorf("logged-in marker %s not visible after %v: %w", sel.LoggedIn, s.cfg.Timeouts.Login, err)
	}
	slog.Info("logged in", "email", s.cfg.Email)

	nctx, ncancel = s.scope(ctx, s.cfg.Timeouts.Navigate)
	defer ncancel()
	if err := s.page.Navigate(nctx, s.cfg.PageURL); err != nil {
		return fmt.Errorf("navigate %s: %w", s.cfg.PageURL, err)
	}

	if s.cfg.StorageState != "" {
		if err := s.page.SaveState(nctx, s.cfg.StorageState, s.cfg.LoginURL, s.cfg.PageURL); err != nil {
			slog.Warn("could not save storage state", "err", err)
		}
	}
	return nil
}

func (s *BrowserSession) fillLoginForm(ctx context.Context) error {
	sel := s.cfg.Selectors
	tctx, cancel := s.scope(ctx, s.cfg.Timeouts.Action)
	defer cancel()

	if err := s.page.WaitVisible(tctx, sel.Email); err != nil {
		return err
	}
	if err := s.page.SendKeys(tctx, sel.Email, s.cfg.Email); err != nil {
		return err
	}
	if err := s.page.SendKeys(tctx, sel.Password, s.cfg.Password); err != nil {
		return err
	}
	return s.page.Click(tctx, sel.LoginButton)
}

func (s *BrowserSession) onLoginForm(ctx context.Context) bool {
	tctx, cancel := s.scope(ctx, s.cfg.Timeouts.Action)
	defer cancel()
	ok, err := s.page.Present(tctx, s.cfg.Selectors.Password)
	return err == nil && ok
}

// dismissCookieBanner clicks the consent button if it shows up. Not seeing
// it within the cookie timeout is fine.
func (s *BrowserSession) dismissCookieBanner(ctx context.Context) {
	banner := s.cfg.Selectors.CookieBanner
	if banner == "" {
		return
	}
	tctx, cancel := s.scope(ctx, s.cfg.Timeouts.Cookie)
	defer cancel()
	if err := s.page.Click(tctx, banner); err != nil {
		slog.Debug("no cookie banner", "selector", banner)
		return
	}
	slog.Debug("dismissed cookie banner")
}

func (s *BrowserSession) waitVisible(ctx context.Context, selector string, d time.Duration) error {
	tctx, cancel := s.scope(ctx, d)
	defer cancel()
	return s.page.WaitVisible(tctx, selector)
}

func (s *BrowserSession) Send(ctx context.Context, message string) error {
	sel := s.cfg.Selectors
	mode := human.Mode(s.cfg.TypingMode)

	tctx, cancel := s.scope(ctx, s.cfg.Timeouts.Action+human.Budget(message, mode))
	defer cancel()

	err := s.page.Click(tctx, sel.MessageButton)
	if err == nil {
		err = s.page.WaitVisible(tctx, sel.ChatInput)
	}
	if err == nil {
		err = s.page.Click(tctx, sel.ChatInput)
	}
	if err == nil {
		keys := append(human.Type(message, mode), human.Submit(mode)...)
		err = s.page.Keys(tctx, keys...)
	}
	if err != nil {
		return fmt.Errorf("send %q: %w", message, err)
	}
	return nil
}

// WaitReply waits for the reply element, then polls its text until it
// satisfies c or the reply timeout runs out. The last text seen is reported
// in the mismatch.
func (s *BrowserSession) WaitReply(ctx context.Context, c cases.Case) (string, error) {
	sel := s.cfg.Selectors.BotReply
	timeout := s.cfg.Timeouts.Reply

	tctx, cancel := s.scope(ctx, timeout)
	defer cancel()

	if err := s.page.WaitVisible(tctx, sel); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %s not visible within %v", ErrReplyNotFound, sel, timeout)
	}

	ticker := time.NewTicker(replyPollInterval)
	defer ticker.Stop()

	var last string
	for {
		text, err := s.page.Text(tctx, sel)
		if err == nil && text != nil {
			last = *text
			matchErr := cases.Match(c, last)
			var mm *cases.MismatchError
			if !errors.As(matchErr, &mm) {
				return last, matchErr
			}
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-tctx.Done():
			if ctx.Err() != nil {
				return last, ctx.Err()
			}
			return last, &cases.MismatchError{Case: c, Actual: last}
		case <-ticker.C:
		}
	}
}

func (s *BrowserSession) Close() error {
	if s.closeBrowser != nil {
		s.closeBrowser()
	}
	return nil
}
