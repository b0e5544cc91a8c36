// Package browser owns the Chrome process (or remote CDP connection) a run
// drives, and the cookie storage state that lets runs skip the login form.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/chatcheck/chatcheck/internal/config"
)

const chromeStartTimeout = 15 * time.Second

var commonWindowSizes = [][2]int{
	{1920, 1080}, {1366, 768}, {1536, 864}, {1440, 900},
	{1280, 720}, {1600, 900}, {1280, 800},
}

func randomWindowSize() (int, int) {
	s := commonWindowSizes[rand.Intn(len(commonWindowSizes))]
	return s[0], s[1]
}

// Browser is a started Chrome with one page target ready to drive.
type Browser struct {
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
}

// Launch starts Chrome, or attaches to cfg.CdpURL when set, and waits for the
// first tab to come up. The returned browser lives until Close; ctx only
// bounds startup.
func Launch(ctx context.Context, cfg *config.RuntimeConfig) (*Browser, error) {
	allocCtx, allocCancel, err := setupAllocator(cfg)
	if err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	startCtx, startDone := context.WithTimeout(ctx, chromeStartTimeout)
	defer startDone()

	errCh := make(chan error, 1)
	go func() {
		errCh <- chromedp.Run(tabCtx, userAgentAction(cfg))
	}()

	select {
	case err := <-errCh:
		if err != nil {
			tabCancel()
			allocCancel()
			return nil, fmt.Errorf("start chrome: %w", err)
		}
	case <-startCtx.Done():
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: timed out after %v", chromeStartTimeout)
	}

	slog.Info("chrome ready", "headless", cfg.Headless, "remote", cfg.CdpURL != "")
	return &Browser{allocCancel: allocCancel, tabCtx: tabCtx, tabCancel: tabCancel}, nil
}

// Tab returns the context of the page target. Derive deadlines from it
// rather than replacing it.
func (b *Browser) Tab() context.Context {
	return b.tabCtx
}

// NewTab opens another page target in the same browser. It shares the
// browser's cookie jar.
func (b *Browser) NewTab() (context.Context, context.CancelFunc) {
	return chromedp.NewContext(b.tabCtx)
}

// Close shuts the tab and, for a locally launched browser, the Chrome
// process. A remote browser is only detached from.
func (b *Browser) Close() {
	if b.tabCancel != nil {
		b.tabCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
}

func setupAllocator(cfg *config.RuntimeConfig) (context.Context, context.CancelFunc, error) {
	if cfg.CdpURL != "" {
		slog.Info("connecting to Chrome", "url", cfg.CdpURL)
		ctx, cancel := chromedp.NewRemoteAllocator(context.Background(), cfg.CdpURL)
		return ctx, cancel, nil
	}

	if cfg.ProfileDir != "" {
		if err := os.MkdirAll(cfg.ProfileDir, 0755); err != nil {
			return nil, nil, fmt.Errorf("create profile dir: %w", err)
		}
		for _, lockName := range []string{"SingletonLock", "SingletonSocket", "SingletonCookie"} {
			if err := os.Remove(filepath.Join(cfg.ProfileDir, lockName)); err == nil {
				slog.Warn("removed stale lock", "file", lockName)
			}
		}
	}

	slog.Info("launching Chrome", "profile", cfg.ProfileDir, "headless", cfg.Headless)
	ctx, cancel := chromedp.NewExecAllocator(context.Background(), buildChromeOpts(cfg)...)
	return ctx, cancel, nil
}

func buildChromeOpts(cfg *config.RuntimeConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,

		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-session-crashed-bubble", true),

		chromedp.WindowSize(randomWindowSize()),
	}

	if cfg.ProfileDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.ProfileDir))
	}
	if cfg.ChromeBinary != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromeBinary))
	}
	opts = append(opts, parseExtraFlags(cfg.ChromeExtraFlags)...)

	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	return opts
}

// parseExtraFlags turns "--a=b --c" into chromedp flags.
func parseExtraFlags(s string) []chromedp.ExecAllocatorOption {
	var opts []chromedp.ExecAllocatorOption
	for _, f := range strings.Fields(s) {
		if k, v, ok := strings.Cut(f, "="); ok {
			opts = append(opts, chromedp.Flag(strings.TrimLeft(k, "-"), v))
		} else {
			opts = append(opts, chromedp.Flag(strings.TrimLeft(f, "-"), true))
		}
	}
	return opts
}
