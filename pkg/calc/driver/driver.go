// Package driver provides browser sessions behind one small interface so the
// calculator runner can be parameterized across browser engines.
//
// Elements are addressed by XPath in every engine. Element lookups wait up to
// Config.ElementTimeout for the element to appear.
package driver

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Engine names a browser backend.
type Engine string

const (
	// EngineRod drives Chromium through go-rod.
	EngineRod Engine = "rod"
	// EngineChromedp drives Chrome through chromedp.
	EngineChromedp Engine = "chromedp"
	// EnginePlaywrightChromium drives Chromium through playwright-go.
	EnginePlaywrightChromium Engine = "playwright-chromium"
	// EnginePlaywrightFirefox drives Firefox through playwright-go.
	EnginePlaywrightFirefox Engine = "playwright-firefox"
	// EnginePlaywrightWebKit drives WebKit through playwright-go.
	EnginePlaywrightWebKit Engine = "playwright-webkit"
	// EngineWebDriverFirefox drives Firefox through a remote WebDriver server.
	EngineWebDriverFirefox Engine = "webdriver-firefox"
	// EngineWebDriverChrome drives Chrome through a remote WebDriver server.
	EngineWebDriverChrome Engine = "webdriver-chrome"
)

// DefaultEngines mirrors a Firefox plus Chrome pair.
var DefaultEngines = []Engine{EnginePlaywrightFirefox, EngineRod}

// Title is the display name of the engine used in case names, e.g. "Firefox".
func (e Engine) Title() string {
	switch e {
	case EngineRod:
		return "Rod"
	case EngineChromedp:
		return "Chromedp"
	case EnginePlaywrightChromium:
		return "PlaywrightChromium"
	case EnginePlaywrightFirefox:
		return "Firefox"
	case EnginePlaywrightWebKit:
		return "WebKit"
	case EngineWebDriverFirefox:
		return "WebDriverFirefox"
	case EngineWebDriverChrome:
		return "WebDriverChrome"
	default:
		return string(e)
	}
}

// Session is one browser instance with one open page.
// A Session is not safe for concurrent use.
type Session interface {
	// Navigate loads url in the page.
	Navigate(ctx context.Context, url string) error

	// Title returns the document title.
	Title(ctx context.Context) (string, error)

	// Count returns the number of elements matching xpath without waiting.
	Count(ctx context.Context, xpath string) (int, error)

	// Text returns the rendered text of the first element matching xpath.
	Text(ctx context.Context, xpath string) (string, error)

	// Attribute returns an attribute of the first element matching xpath.
	// A missing attribute yields "".
	Attribute(ctx context.Context, xpath, name string) (string, error)

	// Click performs a left mouse click on the element.
	Click(ctx context.Context, xpath string) error

	// Hover moves the mouse over the element.
	Hover(ctx context.Context, xpath string) error

	// Fill clears the input and types value into it.
	Fill(ctx context.Context, xpath, value string) error

	// Submit presses Enter with focus on the element.
	Submit(ctx context.Context, xpath string) error

	// Eval evaluates a JavaScript expression in the page and returns its
	// JSON-compatible value (numbers, strings, bools, nil, maps, slices).
	Eval(ctx context.Context, expr string) (any, error)

	// Screenshot captures the visible viewport as PNG.
	Screenshot(ctx context.Context) ([]byte, error)

	// Close tears down the page and the browser.
	Close() error
}

// Config configures browser launch and lookup behavior.
type Config struct {
	Headless       bool          // Run without a visible window (default: true)
	ElementTimeout time.Duration // Bound on a single element lookup (default: 1s)
	NavTimeout     time.Duration // Bound on page navigation (default: 30s)
	WebDriverURL   string        // Remote WebDriver endpoint for webdriver-* engines
	BrowserBin     string        // Optional browser binary path for rod and chromedp
	WindowWidth    int
	WindowHeight   int
}

// DefaultConfig returns sensible defaults for UI testing.
func DefaultConfig() Config {
	return Config{
		Headless:       true,
		ElementTimeout: time.Second,
		NavTimeout:     30 * time.Second,
		WebDriverURL:   "http://localhost:4444/wd/hub",
		WindowWidth:    1280,
		WindowHeight:   1024,
	}
}

// Opener creates a new Session.
type Opener func(ctx context.Context, cfg Config) (Session, error)

var openers = map[Engine]Opener{
	EngineRod:                OpenRod,
	EngineChromedp:           OpenChromedp,
	EnginePlaywrightChromium: playwrightOpener(playwrightChromium),
	EnginePlaywrightFirefox:  playwrightOpener(playwrightFirefox),
	EnginePlaywrightWebKit:   playwrightOpener(playwrightWebKit),
	EngineWebDriverFirefox:   webDriverOpener("firefox"),
	EngineWebDriverChrome:    webDriverOpener("chrome"),
}

// Engines lists every known engine in a stable order.
func Engines() []Engine {
	out := make([]Engine, 0, len(openers))
	for e := range openers {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseEngine validates an engine name.
func ParseEngine(s string) (Engine, error) {
	e := Engine(s)
	if _, ok := openers[e]; !ok {
		return "", fmt.Errorf("unknown engine %q (known: %v)", s, Engines())
	}
	return e, nil
}

// Open launches a browser for engine and returns a session with one blank page.
// Always Close the session (via defer) to avoid orphaned browser processes.
func Open(ctx context.Context, engine Engine, cfg Config) (Session, error) {
	open, ok := openers[engine]
	if !ok {
		return nil, fmt.Errorf("unknown engine %q", engine)
	}
	s, err := open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s session: %w", engine, err)
	}
	return s, nil
}
