package driver

import (
	"context"
	"fmt"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"
)

// webDriverSession talks to a remote WebDriver server (Selenium, geckodriver,
// chromedriver). Lookups use the server's implicit wait.
type webDriverSession struct {
	wd selenium.WebDriver
}

func webDriverOpener(browserName string) Opener {
	return func(ctx context.Context, cfg Config) (Session, error) {
		return openWebDriver(ctx, browserName, cfg)
	}
}

func openWebDriver(ctx context.Context, browserName string, cfg Config) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	caps := selenium.Capabilities{"browserName": browserName}
	size := fmt.Sprintf("--window-size=%d,%d", cfg.WindowWidth, cfg.WindowHeight)
	switch browserName {
	case "firefox":
		var args []string
		if cfg.Headless {
			args = append(args, "-headless")
		}
		caps.AddFirefox(firefox.Capabilities{Args: args})
	case "chrome":
		args := []string{"--no-sandbox", size}
		if cfg.Headless {
			args = append(args, "--headless")
		}
		caps.AddChrome(chrome.Capabilities{Args: args, W3C: true})
	}

	wd, err := selenium.NewRemote(caps, cfg.WebDriverURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to WebDriver at %s: %w", cfg.WebDriverURL, err)
	}
	if err := wd.SetImplicitWaitTimeout(cfg.ElementTimeout); err != nil {
		_ = wd.Quit()
		return nil, fmt.Errorf("failed to set implicit wait: %w", err)
	}
	if err := wd.SetPageLoadTimeout(cfg.NavTimeout); err != nil {
		_ = wd.Quit()
		return nil, fmt.Errorf("failed to set page load timeout: %w", err)
	}
	if err := wd.ResizeWindow("", cfg.WindowWidth, cfg.WindowHeight); err != nil {
		_ = wd.Quit()
		return nil, fmt.Errorf("failed to size window: %w", err)
	}
	return &webDriverSession{wd: wd}, nil
}

func (s *webDriverSession) find(ctx context.Context, xpath string) (selenium.WebElement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	el, err := s.wd.FindElement(selenium.ByXPATH, xpath)
	if err != nil {
		return nil, fmt.Errorf("element %s not found: %w", xpath, err)
	}
	return el, nil
}

func (s *webDriverSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.wd.Get(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *webDriverSession) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.wd.Title()
}

// Count evaluates the XPath in the page so it never waits on the implicit timeout.
func (s *webDriverSession) Count(ctx context.Context, xpath string) (int, error) {
	v, err := s.Eval(ctx, CountExpr(xpath))
	if err != nil {
		return 0, fmt.Errorf("failed to query %s: %w", xpath, err)
	}
	return ToInt(v)
}

func (s *webDriverSession) Text(ctx context.Context, xpath string) (string, error) {
	el, err := s.find(ctx, xpath)
	if err != nil {
		return "", err
	}
	return el.Text()
}

func (s *webDriverSession) Attribute(ctx context.Context, xpath, name string) (string, error) {
	el, err := s.find(ctx, xpath)
	if err != nil {
		return "", err
	}
	v, err := el.GetAttribute(name)
	if err != nil {
		// WebDriver reports a missing attribute as an error.
		return "", nil
	}
	return v, nil
}

func (s *webDriverSession) Click(ctx context.Context, xpath string) error {
	el, err := s.find(ctx, xpath)
	if err != nil {
		return err
	}
	return el.Click()
}

// Hover moves the pointer to the element's center.
func (s *webDriverSession) Hover(ctx context.Context, xpath string) error {
	el, err := s.find(ctx, xpath)
	if err != nil {
		return err
	}
	size, err := el.Size()
	if err != nil {
		return fmt.Errorf("failed to size %s: %w", xpath, err)
	}
	return el.MoveTo(size.Width/2, size.Height/2)
}

func (s *webDriverSession) Fill(ctx context.Context, xpath, value string) error {
	el, err := s.find(ctx, xpath)
	if err != nil {
		return err
	}
	if err := el.Clear(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", xpath, err)
	}
	return el.SendKeys(value)
}

func (s *webDriverSession) Submit(ctx context.Context, xpath string) error {
	el, err := s.find(ctx, xpath)
	if err != nil {
		return err
	}
	return el.SendKeys(selenium.EnterKey)
}

func (s *webDriverSession) Eval(ctx context.Context, expr string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := s.wd.ExecuteScript("return ("+expr+");", nil)
	if err != nil {
		return nil, fmt.Errorf("eval failed: %w", err)
	}
	return v, nil
}

func (s *webDriverSession) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.wd.Screenshot()
}

func (s *webDriverSession) Close() error {
	return s.wd.Quit()
}
