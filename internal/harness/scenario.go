package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted session against the demo application.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Manifest is an optional CUE manifest supplying the initial model,
	// relative to the scenario file. The demo's model is used otherwise.
	Manifest string `yaml:"manifest,omitempty"`

	// SSR starts the client over server-rendered markup.
	SSR bool `yaml:"ssr,omitempty"`

	// Server holds values accepted on the server before rendering.
	// Only valid with ssr.
	Server []map[string]any `yaml:"server,omitempty"`

	// Early holds events delivered before the client starts. Only valid
	// with ssr; they are recorded and replayed during hydration.
	Early []FireStep `yaml:"early,omitempty"`

	// Steps run in order after the client has started.
	Steps []Step `yaml:"steps"`

	// Assertions are checked against the final trace, model and markup.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one interaction. Exactly one of Call, Fire and Navigate is set.
type Step struct {
	// Call invokes an action by name with Args.
	Call string `yaml:"call,omitempty"`
	Args []any  `yaml:"args,omitempty"`

	// Fire delivers an event to rendered markup.
	Fire *FireStep `yaml:"fire,omitempty"`

	// Navigate simulates a history navigation.
	Navigate *NavigateStep `yaml:"navigate,omitempty"`

	// Expect checks the step's return values. Without it any error fails
	// the scenario.
	Expect *StepExpect `yaml:"expect,omitempty"`
}

// FireStep selects an element and the event to deliver to it. The element
// is found by ID, or as the first element wired to Action whose text is
// Text (when given).
type FireStep struct {
	Type   string `yaml:"type"`
	ID     string `yaml:"id,omitempty"`
	Action string `yaml:"action,omitempty"`
	Text   string `yaml:"text,omitempty"`
	Value  string `yaml:"value,omitempty"`
}

// NavigateStep moves from one path token to a new location.
type NavigateStep struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// StepExpect describes what a step should return.
type StepExpect struct {
	// OK is the expected "accepted" result, when set.
	OK *bool `yaml:"ok,omitempty"`

	// Error is a substring the step's error must contain.
	Error string `yaml:"error,omitempty"`
}

// Assertion checks the finished run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Name filters events by proposal or action name.
	Name string `yaml:"name,omitempty"`

	// Kind is the event kind counted by event_count.
	Kind string `yaml:"kind,omitempty"`

	// Outcome is the proposal outcome counted by outcome_count.
	Outcome string `yaml:"outcome,omitempty"`

	// Count is the expected number of matching events.
	Count int `yaml:"count,omitempty"`

	// Names is the expected order of accepted proposals (trace_order).
	Names []string `yaml:"names,omitempty"`

	// Path is a dotted model path (final_model).
	Path string `yaml:"path,omitempty"`

	// Equals is the expected value at Path.
	Equals any `yaml:"equals,omitempty"`

	// Text must appear in the final markup (markup_contains).
	Text string `yaml:"text,omitempty"`
}

// Assertion type constants.
const (
	AssertOutcomeCount   = "outcome_count"
	AssertEventCount     = "event_count"
	AssertTraceOrder     = "trace_order"
	AssertFinalModel     = "final_model"
	AssertMarkupContains = "markup_contains"
)

// LoadScenario reads a scenario file. Unknown fields are rejected so that
// typos do not silently disable checks. The manifest path is resolved
// relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Manifest != "" && !filepath.IsAbs(scenario.Manifest) {
		scenario.Manifest = filepath.Join(filepath.Dir(path), scenario.Manifest)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 && len(s.Early) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if !s.SSR && (len(s.Server) > 0 || len(s.Early) > 0) {
		return fmt.Errorf("server and early require ssr: true")
	}
	if s.Manifest != "" {
		if _, err := os.Stat(s.Manifest); os.IsNotExist(err) {
			return fmt.Errorf("manifest file not found: %s", s.Manifest)
		}
	}

	for i, f := range s.Early {
		if err := validateFire(f); err != nil {
			return fmt.Errorf("early[%d]: %w", i, err)
		}
	}
	for i, step := range s.Steps {
		set := 0
		if step.Call != "" {
			set++
		}
		if step.Fire != nil {
			set++
			if err := validateFire(*step.Fire); err != nil {
				return fmt.Errorf("steps[%d].fire: %w", i, err)
			}
		}
		if step.Navigate != nil {
			set++
			if step.Navigate.From == "" || step.Navigate.To == "" {
				return fmt.Errorf("steps[%d].navigate: from and to are required", i)
			}
		}
		if set != 1 {
			return fmt.Errorf("steps[%d]: exactly one of call, fire and navigate is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateFire(f FireStep) error {
	if f.Type == "" {
		return fmt.Errorf("type is required")
	}
	if (f.ID == "") == (f.Action == "") {
		return fmt.Errorf("exactly one of id and action is required")
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertOutcomeCount:
		if a.Outcome == "" {
			return fmt.Errorf("assertions[%d]: outcome is required for outcome_count", index)
		}
	case AssertEventCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for event_count", index)
		}
	case AssertTraceOrder:
		if len(a.Names) == 0 {
			return fmt.Errorf("assertions[%d]: names list is required for trace_order", index)
		}
	case AssertFinalModel:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for final_model", index)
		}
	case AssertMarkupContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for markup_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	if a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}
	return nil
}
