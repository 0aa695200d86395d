package browser

import (
	"context"
	"time"

	"github.com/playwright-community/playwright-go"
)

// playwrightPage adapts a live playwright page to the Page interface the
// driver works against.
type playwrightPage struct {
	page playwright.Page
}

// NewPlaywrightPage wraps a playwright page for the driver.
func NewPlaywrightPage(page playwright.Page) Page {
	return &playwrightPage{page: page}
}

func (p *playwrightPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	return err
}

func (p *playwrightPage) Find(selector string) (Element, bool) {
	el, err := p.page.QuerySelector(selector)
	if err != nil || el == nil {
		return nil, false
	}
	if visible, err := el.IsVisible(); err != nil || !visible {
		return nil, false
	}
	return &playwrightElement{el: el}, true
}

func (p *playwrightPage) WaitFor(selector string, timeout time.Duration) (Element, bool) {
	el, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil || el == nil {
		return nil, false
	}
	return &playwrightElement{el: el}, true
}

func (p *playwrightPage) Screenshot(path string, fullPage bool) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(fullPage),
	})
	return err
}

func (p *playwrightPage) Closed() bool {
	return p.page.IsClosed()
}

type playwrightElement struct {
	el playwright.ElementHandle
}

func (e *playwrightElement) Click() error {
	return e.el.Click()
}

func (e *playwrightElement) Type(text string) error {
	return e.el.Type(text)
}

func (e *playwrightElement) Fill(text string) error {
	return e.el.Fill(text)
}

func (e *playwrightElement) Press(key string) error {
	return e.el.Press(key)
}

func (e *playwrightElement) Value() (string, error) {
	return e.el.InputValue()
}

func (e *playwrightElement) Text() (string, error) {
	return e.el.InnerText()
}

func (e *playwrightElement) HTML() (string, error) {
	return e.el.InnerHTML()
}
