package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jujulu67/djlarian-react-sub002/internal/harness"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run one scenario and print its trace",
		Long: `Run a scenario against a real dispatcher on a manual clock and print
every enqueue, dispatch and settle event.

Exit codes:
  0 - All expectations matched
  1 - One or more expectations failed
  2 - The scenario could not be loaded or executed

Example:
  batchsim run ./scenarios/net_activations.yaml
  batchsim run ./scenarios/net_activations.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(rootOpts, args[0], cmd)
		},
	}
}

// RunOutput is the JSON payload of the run command.
type RunOutput struct {
	Name   string          `json:"name"`
	Result *harness.Result `json:"result"`
}

func runScenarioFile(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	out.VerboseLog("loaded scenario %q with %d steps", scenario.Name, len(scenario.Steps))

	result, err := harness.Run(scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	payload := RunOutput{Name: scenario.Name, Result: result}
	if out.JSON() {
		if result.Pass {
			if err := out.Success(payload); err != nil {
				return err
			}
		} else if err := out.Failure("E_SCENARIO_FAILED", "scenario expectations failed", payload); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Scenario: %s\n", scenario.Name)
		fmt.Fprintln(w, renderTrace(result.Trace))
		writeOutcomes(w, result)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

func renderTrace(trace []harness.TraceEvent) string {
	rows := make([][]string, len(trace))
	for i, ev := range trace {
		var subject, status string
		switch ev.Type {
		case harness.EventDispatch:
			subject = strings.Join(ev.Actions, ", ")
		default:
			subject = ev.Action
		}
		if ev.Type == harness.EventSettle {
			switch {
			case !ev.Success:
				status = "failed: " + ev.Error
			case ev.Cancelled:
				status = "cancelled"
			default:
				status = "ok"
			}
		}
		rows[i] = []string{
			strconv.FormatInt(ev.Seq, 10),
			fmt.Sprintf("+%dms", ev.AtMillis),
			ev.Type,
			ev.BatchID,
			subject,
			status,
		}
	}
	return renderTable(
		[]string{"Seq", "At", "Event", "Batch", "Action", "Status"},
		rows,
		[]columnAlignment{alignRight, alignRight},
	)
}

func writeOutcomes(w io.Writer, result *harness.Result) {
	o := result.Outcomes
	fmt.Fprintf(w, "Requests: %d  Success: %d  Failure: %d  Cancelled: %d\n",
		len(result.Batches), o.Success, o.Failure, o.Cancelled)
	for _, e := range result.Errors {
		fmt.Fprintln(w, e)
	}
	if result.Pass {
		fmt.Fprintln(w, "✓ expectations met")
	} else {
		fmt.Fprintln(w, "✗ expectations failed")
	}
}
