package calc

// Scenarios returns the built-in fixture cases in run order.
func Scenarios() []Scenario {
	return []Scenario{
		{
			Name: "Default",
			Targets: []Target{
				{Item: "advanced-circuit", Kind: KindFixed, Value: "1"},
			},
			Results: []Result{
				{Item: "advanced-circuit", Rate: "7.5"},
				{Item: "electronic-circuit", Rate: "15"},
				{Item: "iron-plate", Rate: "15"},
				{Item: "iron-ore", Rate: "15"},
				{Item: "plastic-bar", Rate: "15"},
				{Item: "coal", Rate: "7.5"},
				{Item: "copper-cable", Rate: "75"},
				{Item: "copper-plate", Rate: "37.5"},
				{Item: "copper-ore", Rate: "37.5"},
				{Item: "heavy-oil", Rate: "16.667"},
				{Item: "light-oil", Rate: "87.5"},
				{Item: "petroleum-gas", Rate: "150"},
				{Item: "water", Rate: "183.333"},
				{Item: "crude-oil", Rate: "166.667"},
			},
		},
		{
			Name: "Oil",
			Targets: []Target{
				{Item: "heavy-oil", Kind: KindRate, Value: "10"},
				{Item: "petroleum-gas", Kind: KindRate, Value: "45"},
			},
			Results: []Result{
				{Item: "heavy-oil", Rate: "10"},
				{Item: "light-oil", Rate: "23.462"},
				{Item: "petroleum-gas", Rate: "45"},
				{Item: "water", Rate: "42.692"},
				{Item: "crude-oil", Rate: "58.974"},
			},
		},
		{
			Name:     "Circuit",
			Settings: MinAssembler(3),
			Targets: []Target{
				{Item: "electronic-circuit", Kind: KindFixed, Value: "1"},
			},
			Results: []Result{
				{Item: "electronic-circuit", Rate: "150"},
				{Item: "iron-plate", Rate: "150"},
				{Item: "iron-ore", Rate: "150"},
				{Item: "copper-cable", Rate: "450"},
				{Item: "copper-plate", Rate: "225"},
				{Item: "copper-ore", Rate: "225"},
			},
		},
	}
}

// Select returns the scenarios whose names are listed, in the order of all.
// An empty names list selects everything.
func Select(all []Scenario, names []string) ([]Scenario, error) {
	if len(names) == 0 {
		return all, nil
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	var out []Scenario
	for _, sc := range all {
		if want[sc.Name] {
			out = append(out, sc)
			delete(want, sc.Name)
		}
	}
	for n := range want {
		return nil, &UnknownScenarioError{Name: n}
	}
	return out, nil
}
