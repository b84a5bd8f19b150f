package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/samwire/internal/model"
)

// MarshalSnapshot encodes a run's golden form, the scenario name and its
// trace, as canonical JSON.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	trace := make(model.List, len(result.Trace))
	for i, ev := range result.Trace {
		trace[i] = ev.object()
	}
	return model.MarshalCanonical(model.Object{
		"scenario_name": model.String(name),
		"trace":         trace,
	})
}

// RunWithGolden runs scenario and compares its trace with
// testdata/golden/<name>.golden.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result with its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(name, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
