package calc

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/calctest/pkg/calc/internal"
	"github.com/thesyncim/calctest/pkg/calc/testutil"
)

var quietLogger = &log.Logger{Level: log.ErrorLevel, Writer: &log.IOWriter{Writer: io.Discard}}

func rowsOf(results []Result) []testutil.Row {
	rows := make([]testutil.Row, len(results))
	for i, r := range results {
		rows[i] = testutil.Row{Item: r.Item, Rate: r.Rate}
	}
	return rows
}

func newTestRunner(t *testing.T, s *testutil.FakeSession, opts ...RunnerOption) (*Runner, *internal.MockClock) {
	t.Helper()
	clock := internal.NewMockClock(time.Time{})
	opts = append([]RunnerOption{withClock(clock), WithLogger(quietLogger)}, opts...)
	r, err := NewRunner(s, opts...)
	require.NoError(t, err)
	return r, clock
}

func scenario(t *testing.T, name string) Scenario {
	t.Helper()
	sc, err := Select(Scenarios(), []string{name})
	require.NoError(t, err)
	require.Len(t, sc, 1)
	return sc[0]
}

func TestNewRunner_Defaults(t *testing.T) {
	r, err := NewRunner(testutil.NewFakeSession())
	require.NoError(t, err)

	assert.Equal(t, DefaultURL, r.url)
	assert.Equal(t, PageTitle, r.title)
	assert.Equal(t, 10*time.Second, r.loadTimeout)
	assert.Equal(t, 10*time.Second, r.stateTimeout)
	assert.Equal(t, DropdownOpenHeight, r.dropdownHeight)
}

func TestNewRunner_InvalidOptions(t *testing.T) {
	s := testutil.NewFakeSession()

	_, err := NewRunner(nil)
	assert.Error(t, err)

	for _, opt := range []RunnerOption{
		WithURL(""),
		WithLoadTimeout(0),
		WithStateTimeout(-time.Second),
		WithPollInterval(0),
		WithDropdownHeight(0),
	} {
		_, err := NewRunner(s, opt)
		assert.Error(t, err)
	}
}

func TestRunner_RunDefaultScenario(t *testing.T) {
	sc := scenario(t, "Default")
	s := testutil.NewFakeSession(rowsOf(sc.Results)...)
	s.ReadyAfter = 3
	s.OpenAfter = 2

	r, _ := newTestRunner(t, s, WithURL("http://calc.test/calc.html"))
	require.NoError(t, r.Run(context.Background(), sc))

	nav := s.ActionsOf("navigate")
	require.Len(t, nav, 1)
	assert.Equal(t, "http://calc.test/calc.html", nav[0].XPath)

	// No settings: the settings panel is never opened.
	for _, a := range s.ActionsOf("click") {
		assert.NotContains(t, a.XPath, "settings_button")
	}

	fills := s.ActionsOf("fill")
	require.Len(t, fills, 1)
	assert.Equal(t, "//*[@id='targets']/li[1]/input[1]", fills[0].XPath)
	assert.Equal(t, "1", fills[0].Value)
	assert.Len(t, s.ActionsOf("submit"), 1)
}

func TestRunner_StepOrderForTarget(t *testing.T) {
	sc := scenario(t, "Default")
	s := testutil.NewFakeSession(rowsOf(sc.Results)...)

	r, _ := newTestRunner(t, s)
	require.NoError(t, r.SetTargets(context.Background(), sc.Targets))

	var kinds []string
	for _, a := range s.Actions() {
		kinds = append(kinds, a.Kind)
	}
	assert.Equal(t, []string{"hover", "scroll", "click", "hover", "fill", "submit"}, kinds)

	acts := s.Actions()
	assert.Equal(t, "//*[@id='targets']/li[1]/div[contains(@class, 'dropdown')]", acts[0].XPath)
	assert.Equal(t, "//*[@id='targets']/li[1]/div[contains(@class, 'dropdown')]/label/img[@alt='advanced-circuit']", acts[2].XPath)
	assert.Equal(t, "//*[@id='targets']/li[1]/button", acts[3].XPath)
}

func TestRunner_AddsRowsForLaterTargets(t *testing.T) {
	sc := scenario(t, "Oil")
	s := testutil.NewFakeSession(rowsOf(sc.Results)...)
	s.RowDelay = 3

	r, clock := newTestRunner(t, s)
	require.NoError(t, r.Run(context.Background(), sc))

	assert.Equal(t, 2, s.Rows())
	assert.Greater(t, clock.Sleeps(), 0, "row wait should have polled")

	clicks := s.ActionsOf("click")
	var adds int
	for _, c := range clicks {
		if strings.HasSuffix(c.XPath, "/li[last()]/button") {
			adds++
		}
	}
	assert.Equal(t, 1, adds)

	fills := s.ActionsOf("fill")
	require.Len(t, fills, 2)
	assert.Equal(t, "//*[@id='targets']/li[1]/input[2]", fills[0].XPath)
	assert.Equal(t, "10", fills[0].Value)
	assert.Equal(t, "//*[@id='targets']/li[2]/input[2]", fills[1].XPath)
	assert.Equal(t, "45", fills[1].Value)
}

func TestRunner_AppliesSettings(t *testing.T) {
	sc := scenario(t, "Circuit")
	s := testutil.NewFakeSession(rowsOf(sc.Results)...)

	r, _ := newTestRunner(t, s)
	require.NoError(t, r.Run(context.Background(), sc))

	clicks := s.ActionsOf("click")
	require.GreaterOrEqual(t, len(clicks), 3)
	assert.Equal(t, "//*[@id='settings_button']", clicks[0].XPath)
	assert.Equal(t, "//span[@id='minimum_assembler']/div/label[3]/img", clicks[1].XPath)
	assert.Equal(t, "//*[@id='totals_button']", clicks[2].XPath)

	hovers := s.ActionsOf("hover")
	require.NotEmpty(t, hovers)
	assert.Equal(t, "//span[@id='minimum_assembler']/div", hovers[0].XPath)
}

func TestRunner_PageNeverReady(t *testing.T) {
	s := testutil.NewFakeSession()
	s.ReadyAfter = -1

	r, clock := newTestRunner(t, s, WithLoadTimeout(2*time.Second), WithPollInterval(500*time.Millisecond))
	start := clock.Now()

	err := r.LoadPage(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), `display_count="0"`)
	assert.Equal(t, 2*time.Second, clock.Now().Sub(start))
}

func TestRunner_PageNotYetRendered(t *testing.T) {
	s := testutil.NewFakeSession()
	s.Missing = []string{"display_count"}

	r, _ := newTestRunner(t, s, WithLoadTimeout(time.Second))
	err := r.LoadPage(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRunner_WrongTitle(t *testing.T) {
	s := testutil.NewFakeSession()
	s.PageTitle = "404 Not Found"

	r, _ := newTestRunner(t, s)
	err := r.LoadPage(context.Background())

	var te *TitleError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "404 Not Found", te.Got)
	assert.Equal(t, PageTitle, te.Want)
}

func TestRunner_RowNeverAppears(t *testing.T) {
	sc := scenario(t, "Oil")
	s := testutil.NewFakeSession(rowsOf(sc.Results)...)
	s.RowDelay = -1

	r, _ := newTestRunner(t, s, WithStateTimeout(time.Second))
	err := r.SetTargets(context.Background(), sc.Targets)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "target 2 (petroleum-gas)")
	assert.Contains(t, err.Error(), "waiting for 2 target rows")
}

func TestRunner_PickerNeverOpens(t *testing.T) {
	sc := scenario(t, "Default")
	s := testutil.NewFakeSession(rowsOf(sc.Results)...)
	s.OpenAfter = -1

	r, _ := newTestRunner(t, s)
	err := r.SetTargets(context.Background(), sc.Targets)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "picker")
	assert.Empty(t, s.ActionsOf("fill"))
}

func TestRunner_CustomDropdownHeight(t *testing.T) {
	sc := scenario(t, "Default")
	s := testutil.NewFakeSession(rowsOf(sc.Results)...)
	s.OpenHeight = 280

	r, _ := newTestRunner(t, s, WithDropdownHeight(280))
	require.NoError(t, r.SetTargets(context.Background(), sc.Targets))
}

func TestRunner_MissingItemImage(t *testing.T) {
	sc := scenario(t, "Default")
	s := testutil.NewFakeSession(rowsOf(sc.Results)...)
	s.Missing = []string{"@alt='advanced-circuit'"}

	r, _ := newTestRunner(t, s)
	err := r.SetTargets(context.Background(), sc.Targets)
	require.Error(t, err)
	assert.ErrorIs(t, err, testutil.ErrNotFound)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestRunner_VerifyCountMismatch(t *testing.T) {
	sc := scenario(t, "Oil")
	s := testutil.NewFakeSession(rowsOf(sc.Results[:3])...)

	r, _ := newTestRunner(t, s)
	err := r.Verify(context.Background(), sc)

	var me *MismatchError
	require.True(t, errors.As(err, &me))
	assert.True(t, me.CountMismatch())
	assert.Equal(t, 5, me.ExpectedCount)
	assert.Equal(t, 3, me.ActualCount)
	assert.Contains(t, err.Error(), "got 3 result rows, want 5")
}

func TestRunner_VerifyRowMismatch(t *testing.T) {
	sc := scenario(t, "Oil")
	rows := rowsOf(sc.Results)
	rows[1].Rate = "23.461"
	rows[4].Item = "water"

	s := testutil.NewFakeSession(rows...)
	r, _ := newTestRunner(t, s)
	err := r.Verify(context.Background(), sc)

	var me *MismatchError
	require.True(t, errors.As(err, &me))
	assert.False(t, me.CountMismatch())
	require.Len(t, me.Rows, 2)
	assert.Equal(t, 2, me.Rows[0].Row)
	assert.Equal(t, "23.462", me.Rows[0].Expected.Rate)
	assert.Equal(t, "23.461", me.Rows[0].Actual.Rate)
	assert.Equal(t, 5, me.Rows[1].Row)
	assert.Equal(t, "crude-oil", me.Rows[1].Expected.Item)
	assert.Contains(t, err.Error(), "row 2: got (light-oil, 23.461), want (light-oil, 23.462)")
}

func TestRunner_ReadTotalsTrimsRates(t *testing.T) {
	s := testutil.NewFakeSession(
		testutil.Row{Item: "iron-plate", Rate: "15"},
		testutil.Row{Item: "iron-ore", Rate: "15"},
	)
	r, _ := newTestRunner(t, s)

	got, err := r.ReadTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Result{
		{Item: "iron-plate", Rate: "15"},
		{Item: "iron-ore", Rate: "15"},
	}, got)
}

func TestRunner_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, _ := newTestRunner(t, testutil.NewFakeSession())
	err := r.Run(ctx, scenario(t, "Default"))
	assert.ErrorIs(t, err, context.Canceled)
}
