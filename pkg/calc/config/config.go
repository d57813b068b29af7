// Package config loads calctest settings from a TOML file.
//
//	url = "http://localhost:8001/calc.html"
//	engines = ["playwright-firefox", "rod"]
//	scenarios = ["Default", "Oil"]
//	scenario_file = "scenarios.yaml"
//	artifacts_dir = "test/results"
//
//	[browser]
//	headless = true
//	element_timeout = "1s"
//	webdriver_url = "http://localhost:4444/wd/hub"
//
//	[waits]
//	load_timeout = "10s"
//	state_timeout = "10s"
//	poll_interval = "100ms"
//
//	[logging]
//	level = "info"
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/thesyncim/calctest/pkg/calc"
	"github.com/thesyncim/calctest/pkg/calc/driver"
)

// Config is the on-disk configuration shape (TOML).
type Config struct {
	URL          string   `toml:"url" validate:"required,url"`
	Engines      []string `toml:"engines" validate:"min=1,dive,required"`
	Scenarios    []string `toml:"scenarios"`
	ScenarioFile string   `toml:"scenario_file"`
	ArtifactsDir string   `toml:"artifacts_dir"`
	CaseTimeout  Duration `toml:"case_timeout"`

	Browser BrowserConfig `toml:"browser"`
	Waits   WaitConfig    `toml:"waits"`
	Logging LoggingConfig `toml:"logging"`
}

type BrowserConfig struct {
	Headless       *bool    `toml:"headless"`
	ElementTimeout Duration `toml:"element_timeout"`
	NavTimeout     Duration `toml:"nav_timeout"`
	WebDriverURL   string   `toml:"webdriver_url" validate:"omitempty,url"`
	Bin            string   `toml:"bin"`
	Width          int      `toml:"width" validate:"gte=0"`
	Height         int      `toml:"height" validate:"gte=0"`
}

type WaitConfig struct {
	LoadTimeout    Duration `toml:"load_timeout"`
	StateTimeout   Duration `toml:"state_timeout"`
	PollInterval   Duration `toml:"poll_interval"`
	DropdownHeight int      `toml:"dropdown_height" validate:"gte=0"`
}

type LoggingConfig struct {
	Level string `toml:"level" validate:"omitempty,oneof=trace debug info warn error"`
}

// Duration is a time.Duration written as a string such as "1500ms" in TOML.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// applyDefaults fills every unset field.
func (c *Config) applyDefaults() {
	dc := driver.DefaultConfig()

	if c.URL == "" {
		c.URL = calc.DefaultURL
	}
	if len(c.Engines) == 0 {
		for _, e := range driver.DefaultEngines {
			c.Engines = append(c.Engines, string(e))
		}
	}
	if c.Browser.Headless == nil {
		h := dc.Headless
		c.Browser.Headless = &h
	}
	if c.Browser.ElementTimeout == 0 {
		c.Browser.ElementTimeout = Duration(dc.ElementTimeout)
	}
	if c.Browser.NavTimeout == 0 {
		c.Browser.NavTimeout = Duration(dc.NavTimeout)
	}
	if c.Browser.WebDriverURL == "" {
		c.Browser.WebDriverURL = dc.WebDriverURL
	}
	if c.Browser.Width == 0 {
		c.Browser.Width = dc.WindowWidth
	}
	if c.Browser.Height == 0 {
		c.Browser.Height = dc.WindowHeight
	}
	if c.Waits.LoadTimeout == 0 {
		c.Waits.LoadTimeout = Duration(10 * time.Second)
	}
	if c.Waits.StateTimeout == 0 {
		c.Waits.StateTimeout = Duration(10 * time.Second)
	}
	if c.Waits.PollInterval == 0 {
		c.Waits.PollInterval = Duration(100 * time.Millisecond)
	}
	if c.Waits.DropdownHeight == 0 {
		c.Waits.DropdownHeight = calc.DropdownOpenHeight
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Load reads, defaults and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML data, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field rules and that every engine name is known.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config field %s: failed %q rule", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.EngineList(); err != nil {
		return err
	}
	for _, d := range []struct {
		name string
		v    Duration
	}{
		{"browser.element_timeout", c.Browser.ElementTimeout},
		{"browser.nav_timeout", c.Browser.NavTimeout},
		{"waits.load_timeout", c.Waits.LoadTimeout},
		{"waits.state_timeout", c.Waits.StateTimeout},
		{"waits.poll_interval", c.Waits.PollInterval},
	} {
		if d.v <= 0 {
			return fmt.Errorf("invalid config field %s: must be positive", d.name)
		}
	}
	if c.CaseTimeout < 0 {
		return errors.New("invalid config field case_timeout: must not be negative")
	}
	return nil
}

// EngineList parses the configured engine names.
func (c *Config) EngineList() ([]driver.Engine, error) {
	out := make([]driver.Engine, 0, len(c.Engines))
	for _, name := range c.Engines {
		e, err := driver.ParseEngine(name)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// DriverConfig converts the browser section to driver settings.
func (c *Config) DriverConfig() driver.Config {
	dc := driver.DefaultConfig()
	if c.Browser.Headless != nil {
		dc.Headless = *c.Browser.Headless
	}
	dc.ElementTimeout = c.Browser.ElementTimeout.Std()
	dc.NavTimeout = c.Browser.NavTimeout.Std()
	dc.WebDriverURL = c.Browser.WebDriverURL
	dc.BrowserBin = c.Browser.Bin
	dc.WindowWidth = c.Browser.Width
	dc.WindowHeight = c.Browser.Height
	return dc
}

// RunnerOptions converts the URL and wait section to runner options.
func (c *Config) RunnerOptions() []calc.RunnerOption {
	return []calc.RunnerOption{
		calc.WithURL(c.URL),
		calc.WithLoadTimeout(c.Waits.LoadTimeout.Std()),
		calc.WithStateTimeout(c.Waits.StateTimeout.Std()),
		calc.WithPollInterval(c.Waits.PollInterval.Std()),
		calc.WithDropdownHeight(c.Waits.DropdownHeight),
	}
}

// LoadScenarios returns the built-in scenarios, or those of ScenarioFile,
// filtered by Scenarios.
func (c *Config) LoadScenarios() ([]calc.Scenario, error) {
	all := calc.Scenarios()
	if c.ScenarioFile != "" {
		var err error
		all, err = calc.LoadScenarios(c.ScenarioFile)
		if err != nil {
			return nil, err
		}
	}
	return calc.Select(all, c.Scenarios)
}
