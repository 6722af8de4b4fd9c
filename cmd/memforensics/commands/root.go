// Package commands implements the memforensics command line.
package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagLogLevel string
)

// errUnsuccessful is returned when a command completed but the engine run it
// reported on did not succeed. It maps to exit code 1.
var errUnsuccessful = errors.New("run was not successful")

var rootCmd = &cobra.Command{
	Use:   "memforensics",
	Short: "Run memory-forensics engines against memory images",
	Long: `memforensics drives the legacy and modern analysis engines as child processes,
normalizes their output into uniform records and keeps native image sessions
cached across calls.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: $CONFIG_PATH or config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level override (debug, info, warn, error)")
}

// Execute runs the root command. An interrupt cancels the running command,
// which terminates any engine child it spawned.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// ExitCode maps an Execute error onto the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUnsuccessful):
		return 1
	default:
		return 2
	}
}
