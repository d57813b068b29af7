package calc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/thesyncim/calctest/pkg/calc/driver"
	"github.com/thesyncim/calctest/pkg/calc/internal"
)

// DefaultURL is where a local checkout of the calculator is usually served.
const DefaultURL = "http://localhost:8001/calc.html"

// RunnerOption configures a Runner.
type RunnerOption func(*Runner) error

// Runner drives one scenario through one browser session.
type Runner struct {
	session driver.Session
	url     string
	title   string

	loadTimeout    time.Duration
	stateTimeout   time.Duration
	pollInterval   time.Duration
	dropdownHeight int

	clock  internal.Clock
	logger *log.Logger
}

// WithURL sets the calculator URL.
// Default: DefaultURL
func WithURL(url string) RunnerOption {
	return func(r *Runner) error {
		if url == "" {
			return errors.New("URL must not be empty")
		}
		r.url = url
		return nil
	}
}

// WithLoadTimeout bounds the wait for the page-ready marker.
// Default: 10 seconds
func WithLoadTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) error {
		if d <= 0 {
			return errors.New("load timeout must be positive")
		}
		r.loadTimeout = d
		return nil
	}
}

// WithStateTimeout bounds each wait for a UI state change
// (row added, dropdown opened).
// Default: 10 seconds
func WithStateTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) error {
		if d <= 0 {
			return errors.New("state timeout must be positive")
		}
		r.stateTimeout = d
		return nil
	}
}

// WithPollInterval sets how often waits re-check the page.
// Default: 100 milliseconds
func WithPollInterval(d time.Duration) RunnerOption {
	return func(r *Runner) error {
		if d <= 0 {
			return errors.New("poll interval must be positive")
		}
		r.pollInterval = d
		return nil
	}
}

// WithDropdownHeight sets the clientHeight that marks an item picker as open.
// Default: DropdownOpenHeight
func WithDropdownHeight(px int) RunnerOption {
	return func(r *Runner) error {
		if px <= 0 {
			return errors.New("dropdown height must be positive")
		}
		r.dropdownHeight = px
		return nil
	}
}

// WithLogger sets the logger used for step-level events.
func WithLogger(l *log.Logger) RunnerOption {
	return func(r *Runner) error {
		if l != nil {
			r.logger = l
		}
		return nil
	}
}

// withClock replaces the time source of waits.
func withClock(c internal.Clock) RunnerOption {
	return func(r *Runner) error {
		r.clock = c
		return nil
	}
}

// NewRunner creates a Runner bound to session.
func NewRunner(session driver.Session, opts ...RunnerOption) (*Runner, error) {
	if session == nil {
		return nil, errors.New("session must not be nil")
	}

	r := &Runner{
		session:        session,
		url:            DefaultURL,
		title:          PageTitle,
		loadTimeout:    10 * time.Second,
		stateTimeout:   10 * time.Second,
		pollInterval:   100 * time.Millisecond,
		dropdownHeight: DropdownOpenHeight,
		clock:          internal.SystemClock{},
		logger:         &log.DefaultLogger,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Run loads the page, applies settings, enters targets and verifies the
// totals table. The first failure ends the scenario.
func (r *Runner) Run(ctx context.Context, sc Scenario) error {
	r.logger.Debug().Str("scenario", sc.Name).Str("url", r.url).Msg("loading page")
	if err := r.LoadPage(ctx); err != nil {
		return err
	}
	if err := r.ApplySettings(ctx, sc.Settings); err != nil {
		return err
	}
	if err := r.SetTargets(ctx, sc.Targets); err != nil {
		return err
	}
	return r.Verify(ctx, sc)
}

// LoadPage navigates to the calculator, checks its title and waits until the
// page reports it has rendered its first display.
func (r *Runner) LoadPage(ctx context.Context) error {
	if err := r.session.Navigate(ctx, r.url); err != nil {
		return err
	}

	title, err := r.session.Title(ctx)
	if err != nil {
		return err
	}
	if title != r.title {
		return &TitleError{Want: r.title, Got: title}
	}

	var last string
	err = internal.Until(ctx, r.clock, r.loadTimeout, r.pollInterval, func(ctx context.Context) (bool, error) {
		text, err := r.session.Text(ctx, xpDisplayCount)
		if err != nil {
			// Not rendered yet.
			return false, ctx.Err()
		}
		last = text
		return strings.Contains(text, "1"), nil
	})
	if err != nil {
		return timeoutError(fmt.Sprintf("page not ready (display_count=%q)", last), err)
	}
	return nil
}

// ApplySettings opens the settings panel, picks each configured dropdown
// option and returns to the totals view. Empty settings are a no-op.
func (r *Runner) ApplySettings(ctx context.Context, s Settings) error {
	if s.Empty() {
		return nil
	}

	if err := r.session.Click(ctx, xpSettingsButton); err != nil {
		return fmt.Errorf("failed to open settings: %w", err)
	}

	norm := s.Normalized()
	for _, id := range s.Keys() {
		n := norm[id]
		r.logger.Debug().Str("setting", id).Int("option", n).Msg("applying setting")

		if err := r.session.Hover(ctx, xpSettingDropdown(id)); err != nil {
			return fmt.Errorf("setting %s: %w", id, err)
		}
		if err := r.session.Click(ctx, xpSettingOption(id, n)); err != nil {
			return fmt.Errorf("setting %s option %d: %w", id, n, err)
		}
	}

	if err := r.session.Click(ctx, xpTotalsButton); err != nil {
		return fmt.Errorf("failed to return to totals: %w", err)
	}
	return nil
}

// SetTargets enters every target into its own row, adding rows as needed.
func (r *Runner) SetTargets(ctx context.Context, targets []Target) error {
	for i, t := range targets {
		row := i + 1
		if row != 1 {
			if err := r.addRow(ctx); err != nil {
				return fmt.Errorf("target %d (%s): %w", row, t.Item, err)
			}
		}
		if err := r.setTarget(ctx, row, t); err != nil {
			return fmt.Errorf("target %d (%s): %w", row, t.Item, err)
		}
	}
	return nil
}

// addRow clicks the last row's add button and waits for a new row.
func (r *Runner) addRow(ctx context.Context) error {
	before, err := r.session.Count(ctx, xpTargetChildren)
	if err != nil {
		return err
	}
	if err := r.session.Click(ctx, xpAddTarget); err != nil {
		return fmt.Errorf("failed to add row: %w", err)
	}

	want := before + 1
	err = internal.Until(ctx, r.clock, r.stateTimeout, r.pollInterval, func(ctx context.Context) (bool, error) {
		n, err := r.session.Count(ctx, xpTargetChildren)
		if err != nil {
			return false, err
		}
		return n == want, nil
	})
	if err != nil {
		return timeoutError(fmt.Sprintf("waiting for %d target rows", want), err)
	}
	return nil
}

// setTarget picks the item in row i and enters its value.
func (r *Runner) setTarget(ctx context.Context, i int, t Target) error {
	dropdown := xpTargetDropdown(i)
	item := xpTargetItem(i, t.Item)
	input := xpTargetInput(i, t.Kind)

	r.logger.Debug().Int("row", i).Str("item", t.Item).Str("kind", t.Kind.String()).Str("value", t.Value).Msg("setting target")

	// The picker expands on hover.
	if err := r.session.Hover(ctx, dropdown); err != nil {
		return fmt.Errorf("failed to open picker: %w", err)
	}
	err := internal.Until(ctx, r.clock, r.stateTimeout, r.pollInterval, func(ctx context.Context) (bool, error) {
		v, err := r.session.Eval(ctx, jsClientHeight(dropdown))
		if err != nil {
			return false, err
		}
		h, err := driver.ToInt(v)
		if err != nil {
			return false, err
		}
		return h == r.dropdownHeight, nil
	})
	if err != nil {
		return timeoutError("waiting for picker to open", err)
	}

	if _, err := r.session.Eval(ctx, jsScrollTo(dropdown, item)); err != nil {
		return fmt.Errorf("failed to scroll to %s: %w", t.Item, err)
	}
	if err := r.session.Click(ctx, item); err != nil {
		return fmt.Errorf("failed to pick %s: %w", t.Item, err)
	}
	// Moving to the row button collapses the picker.
	if err := r.session.Hover(ctx, xpTargetButton(i)); err != nil {
		return fmt.Errorf("failed to close picker: %w", err)
	}

	if err := r.session.Fill(ctx, input, t.Value); err != nil {
		return fmt.Errorf("failed to enter %s value: %w", t.Kind, err)
	}
	if err := r.session.Submit(ctx, input); err != nil {
		return fmt.Errorf("failed to submit value: %w", err)
	}
	return nil
}

// ReadTotals scrapes the result rows of the totals table. The table's header
// row and its trailing row are not results.
func (r *Runner) ReadTotals(ctx context.Context) ([]Result, error) {
	n, err := r.session.Count(ctx, xpTotalsRows)
	if err != nil {
		return nil, err
	}
	n-- // trailing row

	out := make([]Result, 0, max(n, 0))
	for row := 1; row <= n; row++ {
		res, err := r.readRow(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *Runner) readRow(ctx context.Context, row int) (Result, error) {
	item, err := r.session.Attribute(ctx, xpTotalsItem(row), "alt")
	if err != nil {
		return Result{}, fmt.Errorf("totals row %d item: %w", row, err)
	}
	rate, err := r.session.Text(ctx, xpTotalsRate(row))
	if err != nil {
		return Result{}, fmt.Errorf("totals row %d rate: %w", row, err)
	}
	return Result{Item: item, Rate: strings.TrimSpace(rate)}, nil
}

// Verify compares the rendered totals with the scenario's expected results.
// A row count difference fails immediately; otherwise every differing row
// is reported in one MismatchError.
func (r *Runner) Verify(ctx context.Context, sc Scenario) error {
	n, err := r.session.Count(ctx, xpTotalsRows)
	if err != nil {
		return err
	}

	mismatch := &MismatchError{
		Scenario:      sc.Name,
		ExpectedCount: len(sc.Results),
		ActualCount:   max(n-1, 0),
	}
	if mismatch.CountMismatch() {
		return mismatch
	}

	for i, want := range sc.Results {
		got, err := r.readRow(ctx, i+1)
		if err != nil {
			return err
		}
		if got != want {
			mismatch.Rows = append(mismatch.Rows, RowDiff{Row: i + 1, Expected: want, Actual: got})
		}
	}
	if len(mismatch.Rows) > 0 {
		return mismatch
	}

	r.logger.Debug().Str("scenario", sc.Name).Int("rows", len(sc.Results)).Msg("totals match")
	return nil
}
