package driver

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

type chromedpSession struct {
	ctx     context.Context // browser context, outlives every call
	cancels []context.CancelFunc
	cfg     Config
}

// OpenChromedp starts Chrome through chromedp's exec allocator.
func OpenChromedp(ctx context.Context, cfg Config) (Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.NoSandbox,
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.BrowserBin != "" {
		opts = append(opts, chromedp.ExecPath(cfg.BrowserBin))
	}

	// The allocator is rooted at Background so the browser lives until Close,
	// not until the caller's launch context ends.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	s := &chromedpSession{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{cancelAlloc, cancelBrowser},
		cfg:     cfg,
	}

	// First Run starts the browser.
	runCtx, cancel := s.bind(ctx)
	defer cancel()
	if err := chromedp.Run(runCtx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to start Chrome: %w", err)
	}
	return s, nil
}

// bind derives a context from the browser context that also honors the
// caller's cancellation and deadline.
func (s *chromedpSession) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	run, cancel := context.WithCancel(s.ctx)
	if d, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		run, cancelDeadline = context.WithDeadline(run, d)
		prev := cancel
		cancel = func() { cancelDeadline(); prev() }
	}
	stop := context.AfterFunc(ctx, cancel)
	return run, func() {
		stop()
		cancel()
	}
}

// run executes actions with the element timeout applied to lookups.
func (s *chromedpSession) run(ctx context.Context, actions ...chromedp.Action) error {
	run, cancel := s.bind(ctx)
	defer cancel()
	run, cancelLookup := context.WithTimeout(run, s.cfg.ElementTimeout)
	defer cancelLookup()
	return chromedp.Run(run, actions...)
}

func (s *chromedpSession) Navigate(ctx context.Context, url string) error {
	run, cancel := s.bind(ctx)
	defer cancel()
	run, cancelNav := context.WithTimeout(run, s.cfg.NavTimeout)
	defer cancelNav()

	if err := chromedp.Run(run, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *chromedpSession) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.run(ctx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("failed to read title: %w", err)
	}
	return title, nil
}

func (s *chromedpSession) Count(ctx context.Context, xpath string) (int, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(xpath, &nodes, chromedp.BySearch, chromedp.AtLeast(0))); err != nil {
		return 0, fmt.Errorf("failed to query %s: %w", xpath, err)
	}
	return len(nodes), nil
}

func (s *chromedpSession) Text(ctx context.Context, xpath string) (string, error) {
	var text string
	if err := s.run(ctx, chromedp.Text(xpath, &text, chromedp.BySearch, chromedp.NodeReady)); err != nil {
		return "", fmt.Errorf("failed to read text of %s: %w", xpath, err)
	}
	return text, nil
}

func (s *chromedpSession) Attribute(ctx context.Context, xpath, name string) (string, error) {
	var (
		value string
		ok    bool
	)
	if err := s.run(ctx, chromedp.AttributeValue(xpath, name, &value, &ok, chromedp.BySearch, chromedp.NodeReady)); err != nil {
		return "", fmt.Errorf("failed to read %s of %s: %w", name, xpath, err)
	}
	return value, nil
}

func (s *chromedpSession) Click(ctx context.Context, xpath string) error {
	if err := s.run(ctx, chromedp.Click(xpath, chromedp.BySearch, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("failed to click %s: %w", xpath, err)
	}
	return nil
}

// Hover dispatches a mouse move to the center of the element's box.
func (s *chromedpSession) Hover(ctx context.Context, xpath string) error {
	var center struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	expr := fmt.Sprintf(`(() => {
		const n = %s;
		n.scrollIntoView({block: "nearest"});
		const r = n.getBoundingClientRect();
		return {x: r.left + r.width / 2, y: r.top + r.height / 2};
	})()`, NodeExpr(xpath))

	err := s.run(ctx,
		chromedp.WaitVisible(xpath, chromedp.BySearch),
		chromedp.Evaluate(expr, &center),
	)
	if err != nil {
		return fmt.Errorf("failed to locate %s: %w", xpath, err)
	}

	// Coordinates are only known after the first run.
	if err := s.run(ctx, chromedp.MouseEvent(input.MouseMoved, center.X, center.Y)); err != nil {
		return fmt.Errorf("failed to hover %s: %w", xpath, err)
	}
	return nil
}

func (s *chromedpSession) Fill(ctx context.Context, xpath, value string) error {
	err := s.run(ctx,
		chromedp.Clear(xpath, chromedp.BySearch),
		chromedp.SendKeys(xpath, value, chromedp.BySearch),
	)
	if err != nil {
		return fmt.Errorf("failed to fill %s: %w", xpath, err)
	}
	return nil
}

func (s *chromedpSession) Submit(ctx context.Context, xpath string) error {
	if err := s.run(ctx, chromedp.SendKeys(xpath, kb.Enter, chromedp.BySearch)); err != nil {
		return fmt.Errorf("failed to submit %s: %w", xpath, err)
	}
	return nil
}

func (s *chromedpSession) Eval(ctx context.Context, expr string) (any, error) {
	var res any
	run, cancel := s.bind(ctx)
	defer cancel()
	if err := chromedp.Run(run, chromedp.Evaluate(expr, &res)); err != nil {
		return nil, fmt.Errorf("eval failed: %w", err)
	}
	return res, nil
}

func (s *chromedpSession) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	run, cancel := s.bind(ctx)
	defer cancel()
	if err := chromedp.Run(run, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// Close cancels the browser context first, then the allocator.
func (s *chromedpSession) Close() error {
	err := chromedp.Cancel(s.ctx)
	for i := len(s.cancels) - 1; i >= 0; i-- {
		s.cancels[i]()
	}
	return err
}
