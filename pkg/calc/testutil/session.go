// session.go provides an in-memory driver.Session that imitates the
// calculator page closely enough to exercise the runner without a browser.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Action is one recorded interaction with a FakeSession.
type Action struct {
	Kind  string // navigate, click, hover, fill, submit, eval, screenshot
	XPath string
	Value string
}

func (a Action) String() string {
	if a.Value != "" {
		return fmt.Sprintf("%s %s %q", a.Kind, a.XPath, a.Value)
	}
	return fmt.Sprintf("%s %s", a.Kind, a.XPath)
}

// Row is one rendered totals row.
type Row struct {
	Item string
	Rate string
}

// FakeSession is a scripted driver.Session. Zero values describe a loaded
// calculator with one target row and an empty totals table.
type FakeSession struct {
	mu sync.Mutex

	// PageTitle is returned by Title.
	PageTitle string

	// ReadyAfter is the number of display_count reads that return "0"
	// before "1" is shown. Negative means never ready.
	ReadyAfter int

	// RowDelay is the number of row counts observed after an add click
	// before the new row appears. Negative means the row never appears.
	RowDelay int

	// OpenAfter is the number of clientHeight reads before the picker reports
	// OpenHeight. Negative means it never opens.
	OpenAfter  int
	OpenHeight int

	// Totals are the rendered result rows; a trailing row is always added.
	Totals []Row

	// Missing makes lookups of xpaths containing any of these fragments fail.
	Missing []string

	// ScreenshotErr is returned by Screenshot when set.
	ScreenshotErr error

	rows       int
	pendingAdd int
	adding     bool
	displayN   int
	heightN    int
	actions    []Action
	closed     int
}

// NewFakeSession returns a session for a page titled "Factorio Calculator"
// whose pickers open to 313px.
func NewFakeSession(totals ...Row) *FakeSession {
	return &FakeSession{
		PageTitle:  "Factorio Calculator",
		OpenHeight: 313,
		Totals:     totals,
		rows:       1,
	}
}

var (
	reTotalsItem = regexp.MustCompile(`\)\[(\d+)\]/td\[1\]/img$`)
	reTotalsRate = regexp.MustCompile(`\)\[(\d+)\]/td\[2\]/tt$`)
)

// ErrNotFound is returned for lookups listed in Missing.
var ErrNotFound = errors.New("element not found")

func (f *FakeSession) record(kind, xpath, value string) {
	f.actions = append(f.actions, Action{Kind: kind, XPath: xpath, Value: value})
}

func (f *FakeSession) lookup(xpath string) error {
	for _, m := range f.Missing {
		if strings.Contains(xpath, m) {
			return fmt.Errorf("%s: %w", xpath, ErrNotFound)
		}
	}
	return nil
}

func (f *FakeSession) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("navigate", url, "")
	return ctx.Err()
}

func (f *FakeSession) Title(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.PageTitle, ctx.Err()
}

func (f *FakeSession) Count(ctx context.Context, xpath string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	switch {
	case strings.Contains(xpath, "@id='targets'") && strings.HasSuffix(xpath, "/*"):
		if f.adding {
			if f.pendingAdd == 0 {
				f.rows++
				f.adding = false
			} else if f.pendingAdd > 0 {
				f.pendingAdd--
			}
		}
		return f.rows, nil
	case strings.Contains(xpath, "@id='totals'"):
		return len(f.Totals) + 1, nil
	}
	return 0, nil
}

func (f *FakeSession) Text(ctx context.Context, xpath string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := f.lookup(xpath); err != nil {
		return "", err
	}

	if strings.Contains(xpath, "display_count") {
		f.displayN++
		if f.ReadyAfter < 0 || f.displayN <= f.ReadyAfter {
			return "0", nil
		}
		return "1", nil
	}
	if m := reTotalsRate.FindStringSubmatch(xpath); m != nil {
		row, err := f.totalsRow(m[1])
		if err != nil {
			return "", err
		}
		return "  " + row.Rate + "\n", nil
	}
	return "", fmt.Errorf("%s: %w", xpath, ErrNotFound)
}

func (f *FakeSession) Attribute(ctx context.Context, xpath, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := f.lookup(xpath); err != nil {
		return "", err
	}

	if m := reTotalsItem.FindStringSubmatch(xpath); m != nil && name == "alt" {
		row, err := f.totalsRow(m[1])
		if err != nil {
			return "", err
		}
		return row.Item, nil
	}
	return "", nil
}

func (f *FakeSession) totalsRow(s string) (Row, error) {
	n, _ := strconv.Atoi(s)
	if n < 1 || n > len(f.Totals) {
		return Row{}, fmt.Errorf("totals row %d: %w", n, ErrNotFound)
	}
	return f.Totals[n-1], nil
}

func (f *FakeSession) Click(ctx context.Context, xpath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.lookup(xpath); err != nil {
		return err
	}
	f.record("click", xpath, "")

	if strings.HasSuffix(xpath, "/li[last()]/button") && f.RowDelay >= 0 {
		f.adding = true
		f.pendingAdd = f.RowDelay
	}
	return nil
}

func (f *FakeSession) Hover(ctx context.Context, xpath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.lookup(xpath); err != nil {
		return err
	}
	f.record("hover", xpath, "")
	if strings.Contains(xpath, "dropdown") {
		f.heightN = 0
	}
	return nil
}

func (f *FakeSession) Fill(ctx context.Context, xpath, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.lookup(xpath); err != nil {
		return err
	}
	f.record("fill", xpath, value)
	return nil
}

func (f *FakeSession) Submit(ctx context.Context, xpath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	f.record("submit", xpath, "")
	return nil
}

func (f *FakeSession) Eval(ctx context.Context, expr string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case strings.HasSuffix(expr, ".clientHeight"):
		f.heightN++
		if f.OpenAfter < 0 || f.heightN <= f.OpenAfter {
			return float64(0), nil
		}
		return float64(f.OpenHeight), nil
	case strings.Contains(expr, "scrollTop"):
		f.record("scroll", expr, "")
		return float64(0), nil
	}
	return nil, nil
}

func (f *FakeSession) Screenshot(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("screenshot", "", "")
	if f.ScreenshotErr != nil {
		return nil, f.ScreenshotErr
	}
	// PNG signature; enough for callers that only persist the bytes.
	return []byte("\x89PNG\r\n\x1a\n"), nil
}

func (f *FakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

// Actions returns the recorded interactions in order.
func (f *FakeSession) Actions() []Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Action(nil), f.actions...)
}

// ActionsOf returns the recorded interactions of one kind.
func (f *FakeSession) ActionsOf(kind string) []Action {
	var out []Action
	for _, a := range f.Actions() {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// Rows reports the current number of target rows.
func (f *FakeSession) Rows() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows
}

// Closed reports how many times Close was called.
func (f *FakeSession) Closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
