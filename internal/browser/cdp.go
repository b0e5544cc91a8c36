package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const readyPollInterval = 200 * time.Millisecond

// NavigatePage loads url in the tab and returns once the new document is
// interactive. ctx bounds the whole wait; a network failure reported by
// Chrome is returned as the error.
func NavigatePage(ctx context.Context, url string) error {
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, errorText, _, err := page.Navigate(url).Do(ctx)
		if err == nil && errorText != "" {
			err = errors.New(errorText)
		}
		return err
	}))
	if err != nil {
		return err
	}
	return waitReady(ctx)
}

// waitReady polls document.readyState. Evaluation errors while the page is
// swapping documents are retried.
func waitReady(ctx context.Context) error {
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()
	for {
		var state string
		if err := chromedp.Run(ctx, chromedp.Evaluate(`document.readyState`, &state)); err == nil && state != "" && state != "loading" {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// jsString encodes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// Present reports whether selector matches at least one node right now. It
// does not wait.
func Present(ctx context.Context, selector string) (bool, error) {
	var n int
	err := chromedp.Run(ctx,
		chromedp.Evaluate(fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(selector)), &n),
	)
	return n > 0, err
}

// InnerText reads the innerText of the first node matching selector. It is
// nil when nothing matches.
func InnerText(ctx context.Context, selector string) (*string, error) {
	var text *string
	err := chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(
		`(() => { const el = document.querySelector(%s); return el ? el.innerText : null; })()`, jsString(selector),
	), &text))
	return text, err
}
