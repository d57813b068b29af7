package calc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/thesyncim/calctest/pkg/calc/internal"
)

// ErrTimeout is wrapped by every failure caused by the page not reaching
// an expected state within its bounded wait.
var ErrTimeout = errors.New("timed out waiting for page state")

// timeoutError converts a poll deadline into ErrTimeout with context about the wait.
func timeoutError(what string, err error) error {
	if errors.Is(err, internal.ErrDeadline) {
		return fmt.Errorf("%s: %w: %v", what, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// TitleError reports that the loaded page is not the calculator.
type TitleError struct {
	Want string
	Got  string
}

func (e *TitleError) Error() string {
	return fmt.Sprintf("unexpected page title: got %q, want %q", e.Got, e.Want)
}

// RowDiff describes one totals row that did not match its expectation.
type RowDiff struct {
	Row      int // 1-based result row
	Expected Result
	Actual   Result
}

func (d RowDiff) String() string {
	return fmt.Sprintf("row %d: got (%s, %s), want (%s, %s)",
		d.Row, d.Actual.Item, d.Actual.Rate, d.Expected.Item, d.Expected.Rate)
}

// MismatchError reports a difference between the expected results and the
// rendered totals table.
type MismatchError struct {
	Scenario      string
	ExpectedCount int
	ActualCount   int
	Rows          []RowDiff
}

// CountMismatch reports whether the number of rendered rows was wrong.
func (e *MismatchError) CountMismatch() bool {
	return e.ExpectedCount != e.ActualCount
}

func (e *MismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario %s: totals mismatch", e.Scenario)
	if e.CountMismatch() {
		fmt.Fprintf(&b, ": got %d result rows, want %d", e.ActualCount, e.ExpectedCount)
	}
	for _, d := range e.Rows {
		b.WriteString("; ")
		b.WriteString(d.String())
	}
	return b.String()
}

// UnknownScenarioError is returned when a requested scenario name does not exist.
type UnknownScenarioError struct {
	Name string
}

func (e *UnknownScenarioError) Error() string {
	return fmt.Sprintf("unknown scenario %q", e.Name)
}
