package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
	"github.com/Jujulu67/djlarian-react-sub002/internal/batchclient"
	"github.com/Jujulu67/djlarian-react-sub002/internal/config"
	"github.com/Jujulu67/djlarian-react-sub002/internal/engine"
)

// SendOptions holds flags for the send command.
type SendOptions struct {
	*RootOptions
	URL   string
	Token string
}

// NewSendCommand creates the send command.
func NewSendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SendOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "send [actions.json|-]",
		Short: "Send actions through the dispatcher to a batch endpoint",
		Long: `Enqueue a JSON array of actions into one dispatcher window, flush it to
the configured batch endpoint and print each call's result.

Exit codes:
  0 - Every call succeeded
  1 - At least one call failed
  2 - Bad input or configuration

Example:
  batchsim send actions.json --url http://127.0.0.1:8080 --token secret`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runSend(opts, path, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "", "batch endpoint base URL (overrides config)")
	cmd.Flags().StringVar(&opts.Token, "token", "", "bearer token (overrides config)")

	return cmd
}

// SendCallResult is one row of the send command output.
type SendCallResult struct {
	Action string        `json:"action"`
	Result action.Result `json:"result"`
}

func runSend(opts *SendOptions, path string, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	actions, err := readActions(path, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read actions", err)
	}

	baseURL := cfg.Endpoint.BaseURL
	if opts.URL != "" {
		baseURL = opts.URL
	}
	token := cfg.Endpoint.Token
	if opts.Token != "" {
		token = opts.Token
	}

	client := batchclient.New(baseURL, token,
		batchclient.WithBatchPath(cfg.Endpoint.BatchPath),
		batchclient.WithHTTPClient(&http.Client{Timeout: cfg.Endpoint.TimeoutDuration()}),
		batchclient.WithLogger(slog.Default()),
	)
	disp := engine.New(client, dispatcherOptions(cfg)...)

	calls := make([]*engine.Call, len(actions))
	for i, a := range actions {
		calls[i] = disp.Enqueue(a)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := disp.Close(ctx); err != nil {
		return WrapExitError(ExitFailure, "failed to flush", err)
	}

	results := make([]SendCallResult, len(calls))
	failed := 0
	for i, c := range calls {
		res, err := c.Wait(ctx)
		if err != nil {
			return WrapExitError(ExitFailure, "waiting for result", err)
		}
		if !res.Success {
			failed++
		}
		results[i] = SendCallResult{Action: c.Action().String(), Result: res}
	}

	out := opts.formatter(cmd)
	if out.JSON() {
		if failed > 0 {
			if err := out.Failure("E_CALLS_FAILED", fmt.Sprintf("%d call(s) failed", failed), results); err != nil {
				return err
			}
		} else if err := out.Success(results); err != nil {
			return err
		}
	} else {
		rows := make([][]string, len(results))
		for i, r := range results {
			status := "ok"
			switch {
			case !r.Result.Success:
				status = "failed: " + r.Result.Error
			case r.Result.Cancelled:
				status = "cancelled"
			case r.Result.Skipped:
				status = "skipped"
			}
			rows[i] = []string{r.Action, r.Result.BatchID, status}
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Action", "Batch", "Status"}, rows, nil))
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d call(s) failed", failed))
	}
	return nil
}

// dispatcherOptions maps the [engine] section onto dispatcher options.
func dispatcherOptions(cfg *config.Config) []engine.Option {
	return []engine.Option{
		engine.WithName("cli"),
		engine.WithQuietPeriod(cfg.Engine.QuietPeriodDuration()),
		engine.WithMaxPending(cfg.Engine.MaxPending),
		engine.WithRequestTimeout(cfg.Engine.RequestTimeoutDuration()),
		engine.WithLogger(slog.Default()),
	}
}
