package calc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/thesyncim/calctest/pkg/calc/driver"
)

// Case is one scenario on one engine.
type Case struct {
	Engine   driver.Engine
	Scenario Scenario
}

// Name is the engine display name followed by the scenario name, e.g. "FirefoxOil".
func (c Case) Name() string {
	return c.Engine.Title() + c.Scenario.Name
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Case
	Err        error
	Duration   time.Duration
	Screenshot string // path of the failure screenshot, if one was saved
}

// Passed reports whether the case succeeded.
func (r CaseResult) Passed() bool {
	return r.Err == nil
}

// Report collects the results of a suite run.
type Report struct {
	RunID    string
	Results  []CaseResult
	Duration time.Duration
}

// Passed returns the number of successful cases.
func (r Report) Passed() int {
	n := 0
	for _, c := range r.Results {
		if c.Passed() {
			n++
		}
	}
	return n
}

// Failed returns the number of failed cases.
func (r Report) Failed() int {
	return len(r.Results) - r.Passed()
}

// OK reports whether every case passed.
func (r Report) OK() bool {
	return r.Failed() == 0
}

// SessionOpener opens a fresh browser session for an engine.
type SessionOpener func(ctx context.Context, engine driver.Engine) (driver.Session, error)

// SuiteOption configures a Suite.
type SuiteOption func(*Suite) error

// Suite runs every scenario on every engine, one fresh session per case.
// Cases run sequentially.
type Suite struct {
	engines      []driver.Engine
	scenarios    []Scenario
	open         SessionOpener
	runnerOpts   []RunnerOption
	artifactsDir string
	caseTimeout  time.Duration
	logger       *log.Logger
}

// WithDriverConfig opens sessions with driver.Open and cfg.
func WithDriverConfig(cfg driver.Config) SuiteOption {
	return func(s *Suite) error {
		s.open = func(ctx context.Context, engine driver.Engine) (driver.Session, error) {
			return driver.Open(ctx, engine, cfg)
		}
		return nil
	}
}

// WithSessionOpener replaces how sessions are created.
func WithSessionOpener(open SessionOpener) SuiteOption {
	return func(s *Suite) error {
		if open == nil {
			return errors.New("session opener must not be nil")
		}
		s.open = open
		return nil
	}
}

// WithRunnerOptions passes options to every case's Runner.
func WithRunnerOptions(opts ...RunnerOption) SuiteOption {
	return func(s *Suite) error {
		s.runnerOpts = append(s.runnerOpts, opts...)
		return nil
	}
}

// WithArtifactsDir saves a screenshot of every failed case under
// dir/<run id>/<case name>.png.
func WithArtifactsDir(dir string) SuiteOption {
	return func(s *Suite) error {
		s.artifactsDir = dir
		return nil
	}
}

// WithCaseTimeout bounds the whole of a single case, browser launch included.
// Zero means no bound beyond the individual waits.
func WithCaseTimeout(d time.Duration) SuiteOption {
	return func(s *Suite) error {
		if d < 0 {
			return errors.New("case timeout must not be negative")
		}
		s.caseTimeout = d
		return nil
	}
}

// WithSuiteLogger sets the logger for case results. It is also handed to
// each Runner unless WithRunnerOptions sets one.
func WithSuiteLogger(l *log.Logger) SuiteOption {
	return func(s *Suite) error {
		if l != nil {
			s.logger = l
		}
		return nil
	}
}

// NewSuite creates a suite over engines × scenarios.
func NewSuite(engines []driver.Engine, scenarios []Scenario, opts ...SuiteOption) (*Suite, error) {
	if len(engines) == 0 {
		return nil, errors.New("at least one engine is required")
	}
	if len(scenarios) == 0 {
		return nil, errors.New("at least one scenario is required")
	}

	s := &Suite{
		engines:   engines,
		scenarios: scenarios,
		logger:    &log.DefaultLogger,
	}
	if err := WithDriverConfig(driver.DefaultConfig())(s); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Cases lists every case in run order: engines outer, scenarios inner.
func (s *Suite) Cases() []Case {
	cases := make([]Case, 0, len(s.engines)*len(s.scenarios))
	for _, e := range s.engines {
		for _, sc := range s.scenarios {
			cases = append(cases, Case{Engine: e, Scenario: sc})
		}
	}
	return cases
}

// Run executes every case sequentially. A failing case never stops the run.
func (s *Suite) Run(ctx context.Context) Report {
	report := Report{RunID: uuid.NewString()}
	start := time.Now()

	for _, c := range s.Cases() {
		if ctx.Err() != nil {
			report.Results = append(report.Results, CaseResult{Case: c, Err: ctx.Err()})
			continue
		}
		res := s.RunCase(ctx, report.RunID, c)
		report.Results = append(report.Results, res)

		if res.Passed() {
			s.logger.Info().Str("case", c.Name()).Dur("duration", res.Duration).Msg("PASS")
		} else {
			s.logger.Error().Str("case", c.Name()).Dur("duration", res.Duration).Err(res.Err).Msg("FAIL")
		}
	}

	report.Duration = time.Since(start)
	return report
}

// RunCase opens a session, runs the scenario, and always closes the session.
func (s *Suite) RunCase(ctx context.Context, runID string, c Case) (res CaseResult) {
	res.Case = c
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	if s.caseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.caseTimeout)
		defer cancel()
	}

	session, err := s.open(ctx, c.Engine)
	if err != nil {
		res.Err = err
		return res
	}
	defer func() {
		if err := session.Close(); err != nil {
			s.logger.Warn().Str("case", c.Name()).Err(err).Msg("browser close error")
		}
	}()

	opts := append([]RunnerOption{WithLogger(s.logger)}, s.runnerOpts...)
	runner, err := NewRunner(session, opts...)
	if err != nil {
		res.Err = err
		return res
	}

	if err := runner.Run(ctx, c.Scenario); err != nil {
		res.Err = err
		res.Screenshot = s.saveScreenshot(ctx, session, runID, c)
	}
	return res
}

// saveScreenshot stores a failure screenshot and returns its path, or "" when
// artifacts are disabled or capture fails.
func (s *Suite) saveScreenshot(ctx context.Context, session driver.Session, runID string, c Case) string {
	if s.artifactsDir == "" {
		return ""
	}

	// The case context may already be expired when the failure was a timeout.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	png, err := session.Screenshot(ctx)
	if err != nil {
		s.logger.Warn().Str("case", c.Name()).Err(err).Msg("screenshot failed")
		return ""
	}

	dir := filepath.Join(s.artifactsDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Warn().Str("dir", dir).Err(err).Msg("failed to create artifacts directory")
		return ""
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.png", c.Name()))
	if err := os.WriteFile(path, png, 0o644); err != nil {
		s.logger.Warn().Str("path", path).Err(err).Msg("failed to write screenshot")
		return ""
	}
	return path
}
