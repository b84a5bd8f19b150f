package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/samwire/internal/engine"
	"github.com/roach88/samwire/internal/harness"
	"github.com/roach88/samwire/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Run      string
	Scenario string // run this scenario into the journal first
	Kind     string // optional - filter to one event kind
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Run      string               `json:"run"`
	Timeline []harness.TraceEvent `json:"timeline"`
	Stats    TraceStats           `json:"stats"`
}

// TraceStats holds summary statistics for a run.
type TraceStats struct {
	TotalEvents int            `json:"total_events"`
	Proposals   int            `json:"proposals"`
	Renders     int            `json:"renders"`
	Replays     int            `json:"replays"`
	Outcomes    map[string]int `json:"outcomes"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journaled loop events of a run",
		Long: `Show the loop events journaled for one run: proposals with their
outcomes and tokens, render passes and replayed events, in sequence order.

With --scenario the scenario is run into the journal first and its name
is used as the run. Without --run or --scenario the journaled runs are
listed.

Examples:
  samwire trace --db ./samwire.db
  samwire trace --db ./samwire.db --run 01932c6e-...
  samwire trace --db ./samwire.db --scenario ./testdata/scenarios/hydrate_replay.yaml
  samwire trace --db ./samwire.db --run hydrate_replay --kind replay --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to journal database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Run, "run", "", "run to show")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "scenario file to run into the journal first")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one event kind (proposal|render|replay)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	logger := opts.newLogger(cmd.ErrOrStderr())

	j, err := journal.Open(opts.Database, journal.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	run := opts.Run
	if opts.Scenario != "" {
		scenario, err := harness.LoadScenario(opts.Scenario)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load scenario", err)
		}
		result, err := harness.Run(scenario, harness.WithJournal(j), harness.WithLogger(logger))
		if err != nil {
			return WrapExitError(ExitFailure, "scenario failed to run", err)
		}
		if !result.Pass {
			logger.Warn("scenario assertions failed", "scenario", scenario.Name, "errors", len(result.Errors))
		}
		run = scenario.Name
	}

	if run == "" {
		return listRuns(ctx, opts, j, cmd.OutOrStdout())
	}

	events, err := j.Read(ctx, run)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	outcomes, err := j.Outcomes(ctx, run)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count outcomes", err)
	}

	result := TraceResult{
		Run:      run,
		Timeline: []harness.TraceEvent{},
		Stats:    TraceStats{Outcomes: map[string]int{}},
	}
	for o, n := range outcomes {
		result.Stats.Outcomes[string(o)] = n
	}
	for _, ev := range events {
		switch ev.Kind {
		case engine.KindProposal:
			result.Stats.Proposals++
		case engine.KindRender:
			result.Stats.Renders++
		case engine.KindReplay:
			result.Stats.Replays++
		}
		if opts.Kind != "" && string(ev.Kind) != opts.Kind {
			continue
		}
		result.Timeline = append(result.Timeline, harness.NewTraceEvent(ev))
	}
	result.Stats.TotalEvents = len(events)

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}
	return outputTraceText(cmd.OutOrStdout(), result)
}

func listRuns(ctx context.Context, opts *TraceOptions, j *journal.Journal, w io.Writer) error {
	runs, err := j.Runs(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	if opts.Format == "json" {
		return writeJSON(w, CLIResponse{Status: "ok", Data: map[string]any{"runs": runs}})
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs journaled.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintln(w, r)
	}
	return nil
}

// outputTraceText prints the timeline and the stats.
func outputTraceText(w io.Writer, result TraceResult) error {
	if result.Stats.TotalEvents == 0 {
		fmt.Fprintf(w, "No events found for run: %s\n", result.Run)
		return nil
	}

	fmt.Fprintf(w, "Run: %s\n\n", result.Run)
	for _, ev := range result.Timeline {
		line := fmt.Sprintf("[%3d] %-8s %-10s", ev.Seq, ev.Kind, ev.Name)
		switch {
		case ev.Outcome != "":
			line += " " + ev.Outcome
		case ev.Phase != "":
			line += " " + ev.Phase
		}
		if ev.Token != "" {
			line += " token=" + ev.Token
		}
		if ev.Error != "" {
			line += " error=" + ev.Error
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintf(w, "\nEvents: %d (proposals %d, renders %d, replays %d)\n",
		result.Stats.TotalEvents, result.Stats.Proposals, result.Stats.Renders, result.Stats.Replays)
	outcomes := make([]string, 0, len(result.Stats.Outcomes))
	for o := range result.Stats.Outcomes {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		fmt.Fprintf(w, "  %s: %d\n", o, result.Stats.Outcomes[o])
	}
	return nil
}
