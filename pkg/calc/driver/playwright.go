package driver

import (
	"context"
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

type playwrightBrowser int

const (
	playwrightChromium playwrightBrowser = iota
	playwrightFirefox
	playwrightWebKit
)

// playwrightSession owns a Playwright driver process, one browser and one page.
// playwright-go calls are not context-aware; cancellation is checked before
// each call and the page default timeout bounds the call itself.
type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

func playwrightOpener(kind playwrightBrowser) Opener {
	return func(ctx context.Context, cfg Config) (Session, error) {
		return openPlaywright(ctx, kind, cfg)
	}
}

func openPlaywright(ctx context.Context, kind playwrightBrowser, cfg Config) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Browsers are installed ahead of time:
	//   go run github.com/playwright-community/playwright-go/cmd/playwright install
	pw, err := playwright.Run(&playwright.RunOptions{SkipInstallBrowsers: true})
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	var bt playwright.BrowserType
	switch kind {
	case playwrightFirefox:
		bt = pw.Firefox
	case playwrightWebKit:
		bt = pw.WebKit
	default:
		bt = pw.Chromium
	}

	browser, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch %s: %w", bt.Name(), err)
	}

	page, err := browser.NewPage(playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{Width: cfg.WindowWidth, Height: cfg.WindowHeight},
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	page.SetDefaultTimeout(float64(cfg.ElementTimeout.Milliseconds()))
	page.SetDefaultNavigationTimeout(float64(cfg.NavTimeout.Milliseconds()))

	return &playwrightSession{pw: pw, browser: browser, page: page}, nil
}

func (s *playwrightSession) locate(xpath string) playwright.Locator {
	return s.page.Locator("xpath=" + xpath).First()
}

func (s *playwrightSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	}); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *playwrightSession) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.page.Title()
}

func (s *playwrightSession) Count(ctx context.Context, xpath string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := s.page.Locator("xpath=" + xpath).Count()
	if err != nil {
		return 0, fmt.Errorf("failed to query %s: %w", xpath, err)
	}
	return n, nil
}

func (s *playwrightSession) Text(ctx context.Context, xpath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := s.locate(xpath).InnerText()
	if err != nil {
		return "", fmt.Errorf("failed to read text of %s: %w", xpath, notFound(err))
	}
	return text, nil
}

func (s *playwrightSession) Attribute(ctx context.Context, xpath, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, err := s.locate(xpath).GetAttribute(name)
	if err != nil {
		return "", fmt.Errorf("failed to read %s of %s: %w", name, xpath, notFound(err))
	}
	return v, nil
}

func (s *playwrightSession) Click(ctx context.Context, xpath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.locate(xpath).Click(); err != nil {
		return fmt.Errorf("failed to click %s: %w", xpath, notFound(err))
	}
	return nil
}

func (s *playwrightSession) Hover(ctx context.Context, xpath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.locate(xpath).Hover(); err != nil {
		return fmt.Errorf("failed to hover %s: %w", xpath, notFound(err))
	}
	return nil
}

func (s *playwrightSession) Fill(ctx context.Context, xpath, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.locate(xpath).Fill(value); err != nil {
		return fmt.Errorf("failed to fill %s: %w", xpath, notFound(err))
	}
	return nil
}

func (s *playwrightSession) Submit(ctx context.Context, xpath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.locate(xpath).Press("Enter"); err != nil {
		return fmt.Errorf("failed to submit %s: %w", xpath, notFound(err))
	}
	return nil
}

func (s *playwrightSession) Eval(ctx context.Context, expr string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := s.page.Evaluate(expr)
	if err != nil {
		return nil, fmt.Errorf("eval failed: %w", err)
	}
	return v, nil
}

func (s *playwrightSession) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.page.Screenshot()
}

// Close shuts the browser and the driver process; both errors are reported.
func (s *playwrightSession) Close() error {
	return errors.Join(s.browser.Close(), s.pw.Stop())
}

// notFound marks Playwright lookup timeouts with context.DeadlineExceeded so
// callers can treat every engine's missing element the same way.
func notFound(err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return err
}
