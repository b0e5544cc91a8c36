package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Cookie is the on-disk form of a browser cookie.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Secure   bool    `json:"secure"`
	HTTPOnly bool    `json:"httpOnly"`
	SameSite string  `json:"sameSite,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
}

// StorageState is what a successful login leaves behind for the next run.
type StorageState struct {
	Cookies []Cookie `json:"cookies"`
	SavedAt string   `json:"savedAt"`
}

func fromNetwork(cookies []*network.Cookie) []Cookie {
	out := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		sc := Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: c.SameSite.String(),
		}
		if !c.Session && c.Expires > 0 {
			sc.Expires = c.Expires
		}
		out = append(out, sc)
	}
	return out
}

func (c Cookie) param() *network.CookieParam {
	p := &network.CookieParam{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
	}
	switch strings.ToLower(c.SameSite) {
	case "strict":
		p.SameSite = network.CookieSameSiteStrict
	case "lax":
		p.SameSite = network.CookieSameSiteLax
	case "none":
		p.SameSite = network.CookieSameSiteNone
	}
	if c.Expires > 0 {
		expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
		p.Expires = &expires
	}
	return p
}

// SaveStorageState writes the cookies visible to urls to path, 0600.
func SaveStorageState(ctx context.Context, path string, urls ...string) error {
	var cookies []*network.Cookie
	if err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().WithURLs(urls).Do(ctx)
			return err
		}),
	); err != nil {
		return fmt.Errorf("get cookies: %w", err)
	}

	state := StorageState{
		Cookies: fromNetwork(cookies),
		SavedAt: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal storage state: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write storage state: %w", err)
	}
	slog.Info("saved storage state", "cookies", len(state.Cookies), "path", path)
	return nil
}

// ReadStorageState parses a storage state file without touching a browser.
func ReadStorageState(path string) (*StorageState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state StorageState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse storage state %s: %w", path, err)
	}
	return &state, nil
}

// LoadStorageState installs the cookies saved at path into the browser and
// returns how many were set. A missing file is reported as os.ErrNotExist.
func LoadStorageState(ctx context.Context, path string) (int, error) {
	state, err := ReadStorageState(path)
	if err != nil {
		return 0, err
	}
	if len(state.Cookies) == 0 {
		return 0, nil
	}

	params := make([]*network.CookieParam, 0, len(state.Cookies))
	for _, c := range state.Cookies {
		if c.Name == "" {
			continue
		}
		params = append(params, c.param())
	}
	if err := chromedp.Run(ctx, network.SetCookies(params)); err != nil {
		return 0, fmt.Errorf("set cookies: %w", err)
	}
	slog.Debug("restored storage state", "cookies", len(params), "savedAt", state.SavedAt)
	return len(params), nil
}
