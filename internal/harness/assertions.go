package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/samwire/internal/engine"
	"github.com/roach88/samwire/internal/model"
)

// AssertionError describes a failed assertion with the trace for context.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s%s\n", ev.Seq, ev.Kind, ev.Name, ev.Outcome, ev.Phase)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertOutcomeCount:
		return assertOutcomeCount(result.Trace, a)
	case AssertEventCount:
		return assertEventCount(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertFinalModel:
		return assertFinalModel(result.Model, a)
	case AssertMarkupContains:
		if !strings.Contains(result.Markup, a.Text) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("markup containing %q", a.Text),
				Actual:   result.Markup,
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertOutcomeCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Kind == string(engine.KindProposal) && ev.Outcome == a.Outcome && (a.Name == "" || ev.Name == a.Name) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d %s proposals%s", a.Count, a.Outcome, nameSuffix(a.Name)),
			Actual:   fmt.Sprintf("%d", count),
			Trace:    trace,
		}
	}
	return nil
}

func assertEventCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Kind == a.Kind && (a.Name == "" || ev.Name == a.Name) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d %s events%s", a.Count, a.Kind, nameSuffix(a.Name)),
			Actual:   fmt.Sprintf("%d", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks that accepted proposals appear in the given
// order. Other proposals may be interleaved.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	var accepted []string
	for _, ev := range trace {
		if ev.Kind != string(engine.KindProposal) || ev.Outcome != string(engine.OutcomeAccepted) {
			continue
		}
		accepted = append(accepted, ev.Name)
		if next < len(a.Names) && ev.Name == a.Names[next] {
			next++
		}
	}
	if next != len(a.Names) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("accepted in order %v", a.Names),
			Actual:   fmt.Sprintf("accepted %v", accepted),
			Trace:    trace,
		}
	}
	return nil
}

func assertFinalModel(m model.Object, a Assertion) error {
	want, err := model.FromAny(a.Equals)
	if err != nil {
		return fmt.Errorf("equals: %w", err)
	}
	got, ok := m.Lookup(a.Path)
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s = %v", a.Path, describe(want)),
			Actual:   "path not found",
		}
	}
	if !model.Equal(got, want) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s = %s", a.Path, describe(want)),
			Actual:   describe(got),
		}
	}
	return nil
}

func describe(v model.Value) string {
	data, err := model.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func nameSuffix(name string) string {
	if name == "" {
		return ""
	}
	return " named " + name
}
