package calc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_BuiltinsAreValid(t *testing.T) {
	all := Scenarios()
	require.NoError(t, ValidateScenarios(all))

	var names []string
	for _, sc := range all {
		names = append(names, sc.Name)
	}
	assert.Equal(t, []string{"Default", "Oil", "Circuit"}, names)
}

func TestScenarios_CircuitUsesMinimumAssembler(t *testing.T) {
	sc := scenario(t, "Circuit")
	assert.Equal(t, Settings{"minimum_assembler": 3}, sc.Settings)
	assert.True(t, scenario(t, "Default").Settings.Empty())
}

func TestSelect(t *testing.T) {
	got, err := Select(Scenarios(), []string{"Circuit", "Default"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Order follows the fixture list, not the request.
	assert.Equal(t, "Default", got[0].Name)
	assert.Equal(t, "Circuit", got[1].Name)

	all, err := Select(Scenarios(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = Select(Scenarios(), []string{"Nuclear"})
	var ue *UnknownScenarioError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Nuclear", ue.Name)
}

func TestSettings_Normalized(t *testing.T) {
	s := Settings{"min": 2, "furnace": 1}
	assert.Equal(t, Settings{"minimum_assembler": 2, "furnace": 1}, s.Normalized())
	assert.Equal(t, []string{"furnace", "minimum_assembler"}, s.Keys())
}

const validYAML = `
scenarios:
  - name: Gears
    targets:
      - {item: iron-gear-wheel, kind: r, value: "2"}
    results:
      - {item: iron-gear-wheel, rate: "2"}
      - {item: iron-plate, rate: "4"}
      - {item: iron-ore, rate: "4"}
  - name: CircuitTier2
    settings:
      min: 2
    targets:
      - {item: electronic-circuit, kind: f, value: "1.5"}
    results:
      - {item: electronic-circuit, rate: "112.5"}
`

func TestParseScenarios(t *testing.T) {
	got, err := ParseScenarios([]byte(validYAML))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Gears", got[0].Name)
	assert.Equal(t, KindRate, got[0].Targets[0].Kind)
	assert.Len(t, got[0].Results, 3)
	assert.Nil(t, got[0].Settings)

	assert.Equal(t, Settings{"minimum_assembler": 2}, got[1].Settings)
	assert.Equal(t, KindFixed, got[1].Targets[0].Kind)
}

func TestParseScenarios_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "empty file",
			yaml: `scenarios: []`,
			want: "Scenarios",
		},
		{
			name: "missing name",
			yaml: `
scenarios:
  - targets: [{item: coal, kind: r, value: "1"}]
    results: [{item: coal, rate: "1"}]`,
			want: "Name",
		},
		{
			name: "duplicate name",
			yaml: `
scenarios:
  - name: A
    targets: [{item: coal, kind: r, value: "1"}]
    results: [{item: coal, rate: "1"}]
  - name: A
    targets: [{item: coal, kind: r, value: "1"}]
    results: [{item: coal, rate: "1"}]`,
			want: "unique",
		},
		{
			name: "unknown kind",
			yaml: `
scenarios:
  - name: A
    targets: [{item: coal, kind: x, value: "1"}]
    results: [{item: coal, rate: "1"}]`,
			want: "oneof",
		},
		{
			name: "non numeric value",
			yaml: `
scenarios:
  - name: A
    targets: [{item: coal, kind: r, value: "lots"}]
    results: [{item: coal, rate: "1"}]`,
			want: "numeric",
		},
		{
			name: "negative value",
			yaml: `
scenarios:
  - name: A
    targets: [{item: coal, kind: r, value: "-1"}]
    results: [{item: coal, rate: "1"}]`,
			want: "non-negative",
		},
		{
			name: "no results",
			yaml: `
scenarios:
  - name: A
    targets: [{item: coal, kind: r, value: "1"}]`,
			want: "Results",
		},
		{
			name: "zero setting index",
			yaml: `
scenarios:
  - name: A
    settings: {min: 0}
    targets: [{item: coal, kind: r, value: "1"}]
    results: [{item: coal, rate: "1"}]`,
			want: "Settings",
		},
		{
			name: "malformed yaml",
			yaml: "scenarios: [",
			want: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenarios([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenarios(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o644))

	got, err := LoadScenarios(path)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = LoadScenarios(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadScenarios_ExampleFile(t *testing.T) {
	got, err := LoadScenarios(filepath.Join("testdata", "scenarios.yaml"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "GearsByFactory", got[1].Name)
	assert.Equal(t, MinAssembler(2), got[1].Settings)
}
