// Package cli implements the capsched command-line client.
package cli

import (
	"log/slog"
	"os"

	"github.com/me/capsched/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking CAPSCHED_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("CAPSCHED_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the capsched CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "capsched",
		Short: "capsched is a fractional capacity scheduler",
		Long:  "capsched admits, schedules, and reports on work for agents split across multiple part-time engagements.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.New(logging.ParseLevel(flagLogLevel), flagLogFormat)
			client = NewClient(flagServer, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "capsched server URL (or CAPSCHED_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newSessionsCmd(),
		newBlocksCmd(),
		newRequestsCmd(),
		newReportCmd(),
		newStatsCmd(),
		newWatchCmd(),
	)

	return root
}
