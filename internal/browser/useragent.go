package browser

import (
	"context"
	"runtime"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/chatcheck/chatcheck/internal/config"
)

// userAgentAction applies cfg.UserAgent with matching client hints. It is a
// no-op when no user agent is configured.
func userAgentAction(cfg *config.RuntimeConfig) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		override := userAgentOverride(cfg.UserAgent, cfg.ChromeVersion)
		if override == nil {
			return nil
		}
		return override.Do(ctx)
	})
}

// userAgentOverride builds the CDP override. chromeVersion is the full
// version, e.g. "144.0.7559.133"; brands carry its major part.
func userAgentOverride(userAgent, chromeVersion string) *emulation.SetUserAgentOverrideParams {
	if userAgent == "" {
		return nil
	}

	major, _, _ := strings.Cut(chromeVersion, ".")
	platform, name, arch := hostPlatform()

	return emulation.SetUserAgentOverride(userAgent).
		WithAcceptLanguage("en-US,en").
		WithPlatform(platform).
		WithUserAgentMetadata(&emulation.UserAgentMetadata{
			Platform:     name,
			Architecture: arch,
			Bitness:      "64",
			Brands: []*emulation.UserAgentBrandVersion{
				{Brand: "Not(A:Brand", Version: "99"},
				{Brand: "Google Chrome", Version: major},
				{Brand: "Chromium", Version: major},
			},
			FullVersionList: []*emulation.UserAgentBrandVersion{
				{Brand: "Not(A:Brand", Version: "99.0.0.0"},
				{Brand: "Google Chrome", Version: chromeVersion},
				{Brand: "Chromium", Version: chromeVersion},
			},
		})
}

// hostPlatform returns navigator.platform, the client-hint platform name
// and architecture for the running OS.
func hostPlatform() (navigator, name, arch string) {
	arch = "x86"
	if runtime.GOARCH == "arm64" {
		arch = "arm"
	}
	switch runtime.GOOS {
	case "darwin":
		return "MacIntel", "macOS", arch
	case "windows":
		return "Win32", "Windows", arch
	default:
		return "Linux x86_64", "Linux", arch
	}
}
