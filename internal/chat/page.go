package chat

import (
	"context"

	"github.com/chromedp/chromedp"

	"github.com/chatcheck/chatcheck/internal/browser"
)

// page is what a BrowserSession needs from its tab. Every call blocks until
// done or until ctx ends.
type page interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string) error
	Present(ctx context.Context, selector string) (bool, error)
	Click(ctx context.Context, selector string) error
	SendKeys(ctx context.Context, selector, text string) error
	Keys(ctx context.Context, actions ...chromedp.Action) error
	Text(ctx context.Context, selector string) (*string, error)
	LoadState(ctx context.Context, path string) (int, error)
	SaveState(ctx context.Context, path string, urls ...string) error
}

// cdpPage drives the tab carried by ctx.
type cdpPage struct{}

var _ page = cdpPage{}

func (cdpPage) Navigate(ctx context.Context, url string) error {
	return browser.NavigatePage(ctx, url)
}

func (cdpPage) WaitVisible(ctx context.Context, selector string) error {
	return chromedp.Run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (cdpPage) Present(ctx context.Context, selector string) (bool, error) {
	return browser.Present(ctx, selector)
}

func (cdpPage) Click(ctx context.Context, selector string) error {
	return chromedp.Run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (cdpPage) SendKeys(ctx context.Context, selector, text string) error {
	return chromedp.Run(ctx, chromedp.SendKeys(selector, text, chromedp.ByQuery))
}

func (cdpPage) Keys(ctx context.Context, actions ...chromedp.Action) error {
	return chromedp.Run(ctx, actions...)
}

func (cdpPage) Text(ctx context.Context, selector string) (*string, error) {
	return browser.InnerText(ctx, selector)
}

func (cdpPage) LoadState(ctx context.Context, path string) (int, error) {
	return browser.LoadStorageState(ctx, path)
}

func (cdpPage) SaveState(ctx context.Context, path string, urls ...string) error {
	return browser.SaveStorageState(ctx, path, urls...)
}
