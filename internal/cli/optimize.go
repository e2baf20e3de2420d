package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
	"github.com/Jujulu67/djlarian-react-sub002/internal/engine"
)

// NewOptimizeCommand creates the optimize command.
func NewOptimizeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "optimize [actions.json|-]",
		Short: "Show how a window of actions nets into a batch",
		Long: `Read a JSON array of actions and print the optimized plan: one row per
identity key with its positive and negative counts, and the records that
would be dispatched.

Input reads from stdin when the argument is omitted or "-".

Example:
  echo '[{"type":"activate","targetId":"A"},{"type":"deactivate","targetId":"A"}]' | batchsim optimize`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runOptimize(rootOpts, path, cmd)
		},
	}
}

// PlanGroup is the JSON form of one optimizer group.
type PlanGroup struct {
	Key      string `json:"key"`
	Positive int    `json:"positive"`
	Negative int    `json:"negative"`
	Net      int    `json:"net"`
	Kind     string `json:"kind,omitempty"`
}

// PlanOutput is the JSON payload of the optimize command.
type PlanOutput struct {
	Actions   int             `json:"actions"`
	Groups    []PlanGroup     `json:"groups"`
	Dispatch  []action.Action `json:"dispatch"`
	Cancelled int             `json:"cancelled"`
}

func runOptimize(opts *RootOptions, path string, cmd *cobra.Command) error {
	actions, err := readActions(path, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read actions", err)
	}

	plan := engine.Optimize(actions)
	payload := PlanOutput{
		Actions:   len(actions),
		Groups:    make([]PlanGroup, len(plan.Groups)),
		Dispatch:  plan.Dispatch,
		Cancelled: plan.Cancelled(),
	}
	if payload.Dispatch == nil {
		payload.Dispatch = []action.Action{}
	}
	for i, g := range plan.Groups {
		pg := PlanGroup{
			Key:      g.Key.String(),
			Positive: g.Positive,
			Negative: g.Negative,
			Net:      g.Net(),
		}
		if k := g.Kind(); k != 0 {
			pg.Kind = k.String()
		}
		payload.Groups[i] = pg
	}

	out := opts.formatter(cmd)
	if out.JSON() {
		return out.Success(payload)
	}

	w := cmd.OutOrStdout()
	rows := make([][]string, len(payload.Groups))
	for i, g := range payload.Groups {
		send := "-"
		if g.Kind != "" {
			send = fmt.Sprintf("%s x%d", g.Kind, abs(g.Net))
		}
		rows[i] = []string{g.Key, strconv.Itoa(g.Positive), strconv.Itoa(g.Negative), strconv.Itoa(g.Net), send}
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Key", "Up", "Down", "Net", "Dispatch"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	))
	if plan.Empty() {
		fmt.Fprintf(w, "%d action(s) cancel out; nothing would be sent.\n", len(actions))
		return nil
	}
	names := make([]string, len(plan.Dispatch))
	for i, a := range plan.Dispatch {
		names[i] = a.String()
	}
	fmt.Fprintf(w, "%d action(s) -> %d record(s): %s\n", len(actions), len(plan.Dispatch), strings.Join(names, ", "))
	return nil
}

// readActions decodes a JSON array of actions from path, or from stdin
// when path is "-".
func readActions(path string, stdin io.Reader) ([]action.Action, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var actions []action.Action
	if err := json.NewDecoder(r).Decode(&actions); err != nil {
		return nil, fmt.Errorf("decode actions: %w", err)
	}
	return actions, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
