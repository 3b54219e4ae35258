package driver

import (
	"context"
	"fmt"

	"github.com/jimezsa/jobcrawl/internal/models"
	"github.com/playwright-community/playwright-go"
)

// Playwright renders pages in Chromium so client-side markup is present in
// PageSource.
type Playwright struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	loaded  bool
}

func NewPlaywright(cfg models.DriverConfig) (*Playwright, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	}
	if len(cfg.Proxies) > 0 {
		launch.Proxy = &playwright.Proxy{Server: cfg.Proxies[0]}
	}

	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{}
	if cfg.UserAgent != "" {
		contextOpts.UserAgent = playwright.String(cfg.UserAgent)
	}
	browserContext, err := browser.NewContext(contextOpts)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("new browser context: %w", err)
	}

	page, err := browserContext.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("new page: %w", err)
	}
	if cfg.Timeout > 0 {
		page.SetDefaultNavigationTimeout(float64(cfg.Timeout.Milliseconds()))
	}

	return &Playwright{pw: pw, browser: browser, page: page}, nil
}

func (p *Playwright) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	p.loaded = true
	return nil
}

func (p *Playwright) PageSource(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !p.loaded {
		return "", ErrNoPage
	}
	return p.page.Content()
}

func (p *Playwright) Close() error {
	var firstErr error
	if p.browser != nil {
		if err := p.browser.Close(); err != nil {
			firstErr = err
		}
	}
	if p.pw != nil {
		if err := p.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
