package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jujulu67/djlarian-react-sub002/internal/config"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create configuration",
	}
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand(rootOpts))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "init <path>",
		Short:         "Write a sample config file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateSample(args[0]); err != nil {
				return WrapExitError(ExitCommandError, "failed to create config", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample config to %s\n", args[0])
			return nil
		},
	}
}

func newConfigShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Print the resolved configuration",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			out := rootOpts.formatter(cmd)
			if out.JSON() {
				shown := *cfg
				shown.Endpoint.Token = redact(shown.Endpoint.Token)
				shown.Server.Token = redact(shown.Server.Token)
				return out.Success(shown)
			}
			rows := [][]string{
				{"engine.quiet_period", cfg.Engine.QuietPeriodDuration().String()},
				{"engine.max_pending", fmt.Sprint(cfg.Engine.MaxPending)},
				{"engine.request_timeout", cfg.Engine.RequestTimeoutDuration().String()},
				{"resync.delay", cfg.Resync.DelayDuration().String()},
				{"endpoint.base_url", cfg.Endpoint.BaseURL},
				{"endpoint.batch_path", cfg.Endpoint.BatchPath},
				{"endpoint.token", redact(cfg.Endpoint.Token)},
				{"endpoint.timeout", cfg.Endpoint.TimeoutDuration().String()},
				{"server.addr", cfg.Server.Addr},
				{"server.db_path", cfg.Server.DBPath},
				{"server.token", redact(cfg.Server.Token)},
				{"server.max_body_bytes", fmt.Sprint(cfg.Server.MaxBodyBytes)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Key", "Value"}, rows, nil))
			return nil
		},
	}
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
