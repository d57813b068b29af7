package calc

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// scenarioFile is the on-disk fixture shape (YAML).
//
//	scenarios:
//	  - name: Oil
//	    targets:
//	      - {item: heavy-oil, kind: r, value: "10"}
//	    results:
//	      - {item: heavy-oil, rate: "10"}
//	    settings:
//	      min: 3
type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios" validate:"min=1,unique=Name,dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadScenarios reads and validates a YAML fixture file.
func LoadScenarios(path string) ([]Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios: %w", err)
	}
	scenarios, err := ParseScenarios(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenarios, nil
}

// ParseScenarios decodes and validates YAML fixture data.
func ParseScenarios(raw []byte) ([]Scenario, error) {
	var f scenarioFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios: %w", err)
	}
	for i := range f.Scenarios {
		if f.Scenarios[i].Settings != nil {
			f.Scenarios[i].Settings = f.Scenarios[i].Settings.Normalized()
		}
	}
	if err := ValidateScenarios(f.Scenarios); err != nil {
		return nil, err
	}
	return f.Scenarios, nil
}

// ValidateScenarios checks structural rules on a scenario list:
// unique names, at least one target and result each, known rate kinds,
// non-negative numeric values and 1-based setting positions.
func ValidateScenarios(scenarios []Scenario) error {
	if err := validate.Struct(scenarioFile{Scenarios: scenarios}); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid scenario field %s: failed %q rule", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid scenarios: %w", err)
	}

	for _, sc := range scenarios {
		for i, t := range sc.Targets {
			v, err := strconv.ParseFloat(t.Value, 64)
			if err != nil || v < 0 {
				return fmt.Errorf("scenario %s: target %d (%s): value %q must be a non-negative number",
					sc.Name, i+1, t.Item, t.Value)
			}
		}
	}
	return nil
}
