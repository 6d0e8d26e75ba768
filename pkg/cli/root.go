package cli

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dmdmdm-nz/netmond/pkg/version"
)

// ServeFunc runs the daemon until ctx is cancelled.
type ServeFunc func(ctx context.Context, cfg *Config) error

// NewRootCommand builds the netmond command tree. serve implements the serve
// subcommand.
func NewRootCommand(serve ServeFunc) *cobra.Command {
	cfg := defaultConfig()

	root := &cobra.Command{
		Use:           "netmond",
		Short:         "Watches network interfaces and reports changes as they happen",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ConfigureLogging(cfg, cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")

	root.AddCommand(
		newServeCommand(cfg, serve),
		newListCommand(cfg),
		newShowCommand(cfg),
		newWatchCommand(cfg),
		newVersionCommand(),
	)
	return root
}

func newServeCommand(cfg *Config, serve ServeFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the monitor and serve its HTTP API",
		Long: `Runs the interface monitor and serves it over HTTP:

  GET /health              liveness
  GET /ready               200 once the initial enumeration completed
  GET /capabilities        events this platform can deliver
  GET /interfaces          all known interfaces
  GET /interfaces/{name}   one interface
  GET /ws/events           websocket stream of interface events
  GET /metrics             Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Infof("Config: %s", cfg)
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.Host, "host", cfg.Host, "Host to bind to")
	cmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "Port to listen on")
	cmd.Flags().Float64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "API requests allowed per second, 0 disables limiting")
	cmd.Flags().BoolVar(&cfg.Advertise, "advertise", false, "Announce the API over mDNS on every multicast interface")
	cmd.Flags().StringVar(&cfg.Instance, "instance", "", "mDNS instance name (default: host name)")
	return cmd
}

func newListCommand(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List network interfaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	addQueryFlags(cmd, cfg)
	return cmd
}

func newShowCommand(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Show one network interface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), cfg, args[0], cmd.OutOrStdout())
		},
	}
	addQueryFlags(cmd, cfg)
	return cmd
}

func newWatchCommand(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print interface events as they happen",
		Long: `Prints the current interfaces as INTERFACE_ADDED events and then every
change until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	addQueryFlags(cmd, cfg)
	cmd.Flags().DurationVar(&cfg.Duration, "duration", 0, "Stop after this long, 0 watches until interrupted")
	return cmd
}

func addQueryFlags(cmd *cobra.Command, cfg *Config) {
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "How long to wait for the initial enumeration, 0 waits forever")
	cmd.Flags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format (text, json, plist)")
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "netmond version %s (commit: %s, built at: %s)\n",
				version.Version,
				version.CommitHash,
				version.BuildTime)
		},
	}
}
