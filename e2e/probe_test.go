//go:build e2e

package e2e

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/thesyncim/calctest/cmd/calctest/server"
	"github.com/thesyncim/calctest/pkg/calc"
	"github.com/thesyncim/calctest/pkg/calc/driver"
)

// startProbe serves the probe page on a random port and returns its URL.
func startProbe(t *testing.T) string {
	t.Helper()
	srv, err := server.NewServer(server.DefaultConfig())
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	if _, err := srv.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			t.Errorf("server shutdown error: %v", err)
		}
	})
	return srv.URL() + server.ProbePath
}

func openSession(t *testing.T, engine driver.Engine) driver.Session {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s, err := driver.Open(ctx, engine, driverConfig())
	if err != nil {
		t.Fatalf("failed to open %s: %v", engine, err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("browser close error: %v", err)
		}
	})
	return s
}

// probeScenarios have hand-computed totals for the probe page, where every
// rate equals its factory count.
var probeScenarios = []calc.Scenario{
	{
		Name:    "Single",
		Targets: []calc.Target{{Item: "coal", Kind: calc.KindRate, Value: "2"}},
		Results: []calc.Result{{Item: "coal", Rate: "2"}},
	},
	{
		// plastic-bar sits below the fold of an open picker.
		Name: "Scrolled",
		Targets: []calc.Target{
			{Item: "iron-plate", Kind: calc.KindFixed, Value: "3"},
			{Item: "plastic-bar", Kind: calc.KindRate, Value: "1.5"},
		},
		Results: []calc.Result{
			{Item: "iron-plate", Rate: "3"},
			{Item: "plastic-bar", Rate: "1.5"},
		},
	},
	{
		Name:     "Settings",
		Settings: calc.MinAssembler(3),
		Targets:  []calc.Target{{Item: "copper-ore", Kind: calc.KindFixed, Value: "4"}},
		Results:  []calc.Result{{Item: "copper-ore", Rate: "4"}},
	},
}

// TestDriver_Primitives checks each Session method against the probe page.
func TestDriver_Primitives(t *testing.T) {
	url := startProbe(t)

	for _, engine := range engines(t) {
		t.Run(engine.Title(), func(t *testing.T) {
			s := openSession(t, engine)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			if err := s.Navigate(ctx, url); err != nil {
				t.Fatalf("navigate: %v", err)
			}

			title, err := s.Title(ctx)
			if err != nil || title != calc.PageTitle {
				t.Fatalf("title = %q, %v; want %q", title, err, calc.PageTitle)
			}

			n, err := s.Count(ctx, "//*[@id='targets']/li")
			if err != nil || n != 2 {
				t.Errorf("target items = %d, %v; want 2", n, err)
			}
			n, err = s.Count(ctx, "//*[@id='no-such-element']")
			if err != nil || n != 0 {
				t.Errorf("missing element count = %d, %v; want 0", n, err)
			}

			alt, err := s.Attribute(ctx, "//*[@id='minimum_assembler']/div/label[2]/img", "alt")
			if err != nil || alt != "assembling-machine-2" {
				t.Errorf("alt = %q, %v", alt, err)
			}

			v, err := s.Eval(ctx, "1 + 2")
			if err != nil {
				t.Fatalf("eval: %v", err)
			}
			if got, err := driver.ToInt(v); err != nil || got != 3 {
				t.Errorf("eval 1 + 2 = %v (%v)", v, err)
			}

			if err := s.Click(ctx, "//*[@id='targets']/li[last()]/button"); err != nil {
				t.Fatalf("click add: %v", err)
			}
			waitForCount(t, ctx, s, "//*[@id='targets']/li", 3)

			input := "//*[@id='targets']/li[1]/input[2]"
			if err := s.Fill(ctx, input, "7"); err != nil {
				t.Fatalf("fill: %v", err)
			}
			if err := s.Submit(ctx, input); err != nil {
				t.Fatalf("submit: %v", err)
			}
			text, err := s.Text(ctx, "(//*[@id='totals']/tr[position() > 1])[1]/td[2]/tt")
			if err != nil || strings.TrimSpace(text) != "7" {
				t.Errorf("rate = %q, %v; want 7", text, err)
			}

			png, err := s.Screenshot(ctx)
			if err != nil {
				t.Fatalf("screenshot: %v", err)
			}
			if len(png) < 8 || string(png[1:4]) != "PNG" {
				t.Errorf("screenshot is not a PNG (%d bytes)", len(png))
			}
		})
	}
}

// TestProbe_Scenarios runs the full runner against the probe page.
func TestProbe_Scenarios(t *testing.T) {
	url := startProbe(t)

	suite, err := calc.NewSuite(engines(t), probeScenarios,
		calc.WithDriverConfig(driverConfig()),
		calc.WithRunnerOptions(calc.WithURL(url)),
		calc.WithArtifactsDir(t.TempDir()),
		calc.WithCaseTimeout(2*time.Minute),
	)
	if err != nil {
		t.Fatalf("failed to create suite: %v", err)
	}

	runSuite(t, suite)
}

func runSuite(t *testing.T, suite *calc.Suite) {
	t.Helper()
	for _, c := range suite.Cases() {
		t.Run(c.Name(), func(t *testing.T) {
			res := suite.RunCase(context.Background(), t.Name(), c)
			if res.Err != nil {
				t.Errorf("%s failed after %v: %v", c.Name(), res.Duration, res.Err)
				if res.Screenshot != "" {
					t.Logf("screenshot: %s", res.Screenshot)
				}
				return
			}
			t.Logf("%s passed in %v", c.Name(), res.Duration)
		})
	}
}

// waitForCount polls until xpath matches want elements.
func waitForCount(t *testing.T, ctx context.Context, s driver.Session, xpath string, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		n, err := s.Count(ctx, xpath)
		if err == nil && n == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("count(%s) = %d, %v; want %d", xpath, n, err, want)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
