package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// rodSession wraps a Rod browser with a single page.
type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	cfg      Config
}

// OpenRod launches a headless Chromium through Rod's launcher.
// The browser is configured with:
//   - No sandbox (for container compatibility)
//   - No GPU
//   - A fixed window size so dropdown geometry is stable
func OpenRod(ctx context.Context, cfg Config) (Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("window-size", fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight))
	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch Chrome: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to Chrome: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &rodSession{launcher: l, browser: browser, page: page, cfg: cfg}, nil
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("page did not load at %s: %w", url, err)
	}
	return nil
}

func (s *rodSession) Title(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("failed to read title: %w", err)
	}
	return info.Title, nil
}

func (s *rodSession) Count(ctx context.Context, xpath string) (int, error) {
	els, err := s.page.Context(ctx).ElementsX(xpath)
	if err != nil {
		return 0, fmt.Errorf("failed to query %s: %w", xpath, err)
	}
	return len(els), nil
}

// find waits up to the element timeout for xpath and returns the element
// bound to ctx.
func (s *rodSession) find(ctx context.Context, xpath string) (*rod.Element, error) {
	lookup, cancel := context.WithTimeout(ctx, s.cfg.ElementTimeout)
	defer cancel()

	el, err := s.page.Context(lookup).ElementX(xpath)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("element %s not found: %w", xpath, err)
		}
		return nil, fmt.Errorf("failed to find %s: %w", xpath, err)
	}
	return el.Context(ctx), nil
}

func (s *rodSession) Text(ctx context.Context, xpath string) (string, error) {
	el, err := s.find(ctx, xpath)
	if err != nil {
		return "", err
	}
	return el.Text()
}

func (s *rodSession) Attribute(ctx context.Context, xpath, name string) (string, error) {
	el, err := s.find(ctx, xpath)
	if err != nil {
		return "", err
	}
	v, err := el.Attribute(name)
	if err != nil {
		return "", fmt.Errorf("failed to read %s of %s: %w", name, xpath, err)
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (s *rodSession) Click(ctx context.Context, xpath string) error {
	el, err := s.find(ctx, xpath)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (s *rodSession) Hover(ctx context.Context, xpath string) error {
	el, err := s.find(ctx, xpath)
	if err != nil {
		return err
	}
	return el.Hover()
}

func (s *rodSession) Fill(ctx context.Context, xpath, value string) error {
	el, err := s.find(ctx, xpath)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", xpath, err)
	}
	return el.Input(value)
}

func (s *rodSession) Submit(ctx context.Context, xpath string) error {
	el, err := s.find(ctx, xpath)
	if err != nil {
		return err
	}
	return el.Type(input.Enter)
}

func (s *rodSession) Eval(ctx context.Context, expr string) (any, error) {
	res, err := s.page.Context(ctx).Eval("() => (" + strings.TrimSpace(expr) + ")")
	if err != nil {
		return nil, fmt.Errorf("eval failed: %w", err)
	}
	return res.Value.Val(), nil
}

func (s *rodSession) Screenshot(ctx context.Context) ([]byte, error) {
	return s.page.Context(ctx).Screenshot(false, nil)
}

// Close cleans up browser resources and the launcher's process.
func (s *rodSession) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	return err
}
