package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/runmany/runmany/internal/buildlog"
	"github.com/runmany/runmany/internal/config"
	"github.com/runmany/runmany/internal/group"
	"github.com/runmany/runmany/internal/manifest"
	"github.com/runmany/runmany/internal/output"
	"github.com/runmany/runmany/internal/pattern"
	"github.com/runmany/runmany/internal/pipeline"
	"github.com/runmany/runmany/internal/placeholder"
	"github.com/runmany/runmany/internal/runerr"
	"github.com/runmany/runmany/internal/summary"
	"github.com/runmany/runmany/internal/supervisor"
	"github.com/runmany/runmany/internal/task"
)

var runCmd = &cobra.Command{
	Use:                "run [patterns...]",
	Short:              "Run scripts matched by one or more patterns, grouped by -s/-p sections",
	DisableFlagParsing: true,
	SilenceUsage:       true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngine(cmd, args, false, true)
	},
}

var runPCmd = &cobra.Command{
	Use:                "run-p [patterns...]",
	Short:              "Run scripts matched by one or more patterns in parallel",
	DisableFlagParsing: true,
	SilenceUsage:       true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngine(cmd, args, true, false)
	},
}

var runSCmd = &cobra.Command{
	Use:                "run-s [patterns...]",
	Short:              "Run scripts matched by one or more patterns sequentially",
	DisableFlagParsing: true,
	SilenceUsage:       true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngine(cmd, args, false, false)
	},
}

func init() {
	rootCmd.AddCommand(runCmd, runPCmd, runSCmd)
}

// runEngine is shared by all three entry points. defaultParallel selects the
// first group's policy when no opening flag precedes it; allowGroupSplit
// enables -s/-p mid-argv section splitting (general runner only — run-p and
// run-s are single-group by definition).
func runEngine(cmd *cobra.Command, rawArgs []string, defaultParallel, allowGroupSplit bool) error {
	if logger == nil {
		logger = buildlog.Init(verbose)
	}
	if store == nil {
		initConfig()
	}

	preArgs, trailing := splitTrailingArgs(rawArgs)

	var rawGroups []rawGroup
	if allowGroupSplit {
		rawGroups = splitGroups(preArgs, defaultParallel)
	} else {
		rawGroups = []rawGroup{{parallel: defaultParallel, args: preArgs}}
	}
	if len(rawGroups) == 0 {
		return runerr.NewInvalidOption("patterns", "no patterns given")
	}

	mf, err := manifest.Load("")
	if err != nil {
		buildlog.ReportError(logger, false, err)
		return err
	}

	remembered := map[string]string{}
	var allDisplayNames []string
	var stages []pipeline.Stage
	var wantSummary, silentAny, driverContinueOnError bool
	var npmPath string

	for _, rg := range rawGroups {
		cliArgs := extractConfigPairs(rg.args, store)

		opts := &runOptions{}
		fs := pflag.NewFlagSet("group", pflag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		registerRunFlags(fs, opts)

		if err := fs.Parse(cliArgs); err != nil {
			if strings.Contains(err.Error(), "retry") {
				return runerr.NewInvalidOption("--retry", err.Error())
			}
			return runerr.NewInvalidOption("flag", err.Error())
		}
		if fs.Changed("retry") && opts.retry <= 0 {
			return runerr.NewInvalidOption("--retry", "retry must be a positive integer; omit --retry for the zero-retry default")
		}

		patterns := fs.Args()
		expanded := make([]string, 0, len(patterns))
		for _, p := range patterns {
			ep, err := placeholder.Expand(p, trailing, remembered)
			if err != nil {
				return err
			}
			expanded = append(expanded, ep)
		}

		tasks, err := pattern.Expand(mf.ScriptNames(), expanded)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			allDisplayNames = append(allDisplayNames, t.DisplayName)
		}

		policy := group.Policy{
			Parallel:        rg.parallel,
			ConcurrencyCap:  opts.maxParallel,
			Race:            opts.race,
			ContinueOnError: opts.continueOnError,
			AggregateOutput: opts.aggregateOutput,
			PrintLabel:      opts.printLabel,
			PrintName:       opts.printName,
			Silent:          opts.silent || store.Silent(),
			RetryLimit:      opts.retry,
		}
		if err := policy.Validate(); err != nil {
			return err
		}

		if opts.printSummary {
			wantSummary = true
		}
		if opts.silent {
			silentAny = true
		}
		if opts.continueOnError {
			// The CLI exposes a single -c/--continue-on-error flag, but
			// spec distinguishes a per-group flag (GroupPolicy.ContinueOnError,
			// governing whether a group keeps running its own remaining
			// tasks) from a driver-level one (whether the pipeline moves on
			// to the NEXT group after this one failed). Setting -c on any
			// group segment implies both: there is no separate syntax for
			// the driver-level flag alone.
			driverContinueOnError = true
		}
		if opts.npmPath != "" {
			npmPath = opts.npmPath
		}

		stages = append(stages, pipeline.Stage{Executor: &group.Executor{
			Tasks:  tasks,
			Policy: policy,
		}})
	}

	store.SetNpmPath(npmPath)
	store.SetSilent(silentAny)
	runnerPath := resolveRunnerPath(store)

	sinks := group.Sinks{
		Label:      output.NewLabelWriter(os.Stdout, allDisplayNames, true),
		Aggregator: output.NewAggregator(),
		Header:     os.Stdout,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
	for _, stage := range stages {
		stage.Executor.Sinks = sinks
		stage.Executor.Spawn = buildSpawn(runnerPath, store, trailing)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	results, runErr := pipeline.Run(ctx, stages, driverContinueOnError)

	if wantSummary {
		_ = summary.Render(os.Stdout, results)
	}

	if runErr != nil {
		buildlog.ReportError(logger, store.Silent(), runErr)
		return runErr
	}
	return nil
}

// buildSpawn adapts the supervisor into the task package's SpawnFunc shape,
// appending the config store's environment variables for the task's script
// plus any trailing "--" arguments shared by every spawned script.
func buildSpawn(runnerPath string, store interface {
	Env(pkg string) []string
}, trailing []string) task.SpawnFunc {
	return func(ctx context.Context, t pattern.Task, sink task.Sink) (task.Spawner, error) {
		args := append(append([]string{}, t.ExtraArgs...), trailing...)
		h, err := supervisor.Start(ctx, runnerPath, t.ScriptName, args, supervisor.IOPolicy{
			Stdin:  sink.Stdin,
			Stdout: sink.Stdout,
			Stderr: sink.Stderr,
			Env:    store.Env(t.ScriptName),
		})
		if err != nil {
			return nil, fmt.Errorf("spawn %s: %w", t.ScriptName, err)
		}
		return h, nil
	}
}

// resolveRunnerPath picks the script-runner executable: an explicit
// --npm-path flag (already folded into store), else the npm_execpath-style
// environment override, else the conventional "npm" on PATH.
func resolveRunnerPath(store *config.Store) string {
	if p := store.NpmPath(); p != "" {
		return p
	}
	if p := os.Getenv("npm_execpath"); p != "" {
		return p
	}
	return "npm"
}

// extractConfigPairs pulls "--KEY=VALUE" and "--PKG:VAR=VALUE"/"--PKG:VAR
// VALUE" run-time config tokens out of args before pflag ever sees them
// (pflag has no native notion of arbitrary "--KEY=VALUE" flags), recording
// each into store and returning the remaining tokens for normal flag/pattern
// parsing.
var reservedFlagNames = map[string]bool{
	"continue-on-error": true, "print-label": true, "print-name": true,
	"race": true, "max-parallel": true, "aggregate-output": true,
	"silent": true, "retry": true, "print-summary": true, "summary": true,
	"npm-path": true,
}

func extractConfigPairs(args []string, store *config.Store) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		body, isLong := strings.CutPrefix(a, "--")
		if !isLong {
			out = append(out, a)
			continue
		}
		keyPart := body
		if eq := strings.Index(body, "="); eq >= 0 {
			keyPart = body[:eq]
		}
		if reservedFlagNames[keyPart] {
			out = append(out, a)
			continue
		}

		if !strings.Contains(body, "=") && strings.Contains(body, ":") && i+1 < len(args) {
			// "--PKG:VAR VALUE" split-token form.
			if pkg, key, value, scoped, ok := config.ParsePair(body + "=" + args[i+1]); ok && scoped {
				store.SetScoped(pkg, key, value)
				i++
				continue
			}
		}

		pkg, key, value, scoped, ok := config.ParsePair(body)
		if !ok {
			out = append(out, a)
			continue
		}
		if scoped {
			store.SetScoped(pkg, key, value)
		} else {
			store.SetGlobal(key, value)
		}
	}
	return out
}

// splitTrailingArgs separates args at the first literal "--": everything
// before it is available for group splitting and flag parsing, everything
// after becomes the positional argument list available to {1}..{N}/{@}/{*}
// placeholders and forwarded to every spawned script.
func splitTrailingArgs(args []string) (before, after []string) {
	for i, a := range args {
		if a == "--" {
			return args[:i], args[i+1:]
		}
	}
	return args, nil
}
