// Package cmd wires the three runmany entry points (run, run-p, run-s) onto
// cobra/pflag, following the teacher's internal/cmd package shape:
// PersistentPreRun-driven logger init, cobra.OnInitialize for config,
// viper-backed environment binding.
package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/runmany/runmany/internal/buildlog"
	"github.com/runmany/runmany/internal/config"
)

var (
	verbose bool
	logger  *slog.Logger
	store   *config.Store
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "runmany",
	Short: "Run package scripts matched by glob patterns, sequentially or in parallel",
	Long: `runmany expands glob-like patterns against a package manifest's scripts,
then drives the matched tasks through one or more groups (sequential or
parallel), with retry, race-to-finish, abort propagation, and continue-on-error
semantics.`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = buildlog.Init(verbose)
	},
}

// Execute adds all child commands to the root command and runs it under
// ctx, which is canceled when the host process receives an interrupt
// signal; that cancellation forwards through the pipeline/group/task chain
// down to supervisor.Handle.Abort per spec.md §5.
func Execute(ctx context.Context) error {
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose engine logging")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig builds the run-time config store from the environment, the way
// the teacher's initConfig reads env vars and a config file into viper.
func initConfig() {
	store = config.New()
}
