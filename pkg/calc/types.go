// Package calc drives the Factorio production-chain calculator web page
// through a browser session and checks the rendered totals against
// expected scenario results.
package calc

import (
	"sort"
	"strings"
)

// RateKind selects which input of a target row receives the value.
type RateKind string

const (
	// KindFixed enters the value as a number of factories.
	KindFixed RateKind = "f"
	// KindRate enters the value as items per second.
	KindRate RateKind = "r"
)

// String returns a readable name for the kind.
func (k RateKind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindRate:
		return "rate"
	default:
		return "unknown"
	}
}

// inputIndex is the 1-based position of the row input this kind writes to.
func (k RateKind) inputIndex() int {
	if k == KindFixed {
		return 1
	}
	return 2
}

// Target is one production goal entered into the calculator.
type Target struct {
	// Item is the alt-text of the item image in the picker, e.g. "advanced-circuit".
	Item string `yaml:"item" validate:"required"`

	// Kind selects the factories or the rate input.
	Kind RateKind `yaml:"kind" validate:"oneof=f r"`

	// Value is typed verbatim into the input.
	Value string `yaml:"value" validate:"required,numeric"`
}

// Result is one expected row of the totals table.
type Result struct {
	Item string `yaml:"item" validate:"required"`
	Rate string `yaml:"rate" validate:"required"`
}

// settingAliases maps short setting names to dropdown ids on the page.
var settingAliases = map[string]string{
	"min": "minimum_assembler",
}

// Settings holds optional overrides applied through the settings panel.
// Keys are dropdown ids on the page; values are 1-based option positions.
type Settings map[string]int

// MinAssembler returns settings that select the n-th minimum assembler tier.
func MinAssembler(n int) Settings {
	return Settings{"minimum_assembler": n}
}

// Empty reports whether no override is set.
func (s Settings) Empty() bool {
	return len(s) == 0
}

// Normalized returns a copy with aliases resolved to dropdown ids.
func (s Settings) Normalized() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		key := strings.TrimSpace(k)
		if id, ok := settingAliases[key]; ok {
			key = id
		}
		out[key] = v
	}
	return out
}

// Keys returns the normalized dropdown ids in a stable order.
func (s Settings) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s.Normalized() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Scenario is an immutable fixture: what to type in and what the page must show.
type Scenario struct {
	Name     string   `yaml:"name" validate:"required"`
	Targets  []Target `yaml:"targets" validate:"min=1,dive"`
	Results  []Result `yaml:"results" validate:"min=1,dive"`
	Settings Settings `yaml:"settings,omitempty" validate:"dive,keys,required,endkeys,min=1"`
}
