package cmd

import (
	"github.com/spf13/pflag"
)

// runOptions is the flag set shared by run, run-p and run-s, per
// spec.md §6.1. Registered once and attached identically to all three
// commands, mirroring the teacher's single shared flags.go registration
// point rather than duplicating flag definitions per command.
type runOptions struct {
	continueOnError bool
	printLabel      bool
	printName       bool
	race            bool
	maxParallel     int
	aggregateOutput bool
	silent          bool
	retry           int
	printSummary    bool
	npmPath         string
}

func registerRunFlags(fs *pflag.FlagSet, o *runOptions) {
	fs.BoolVarP(&o.continueOnError, "continue-on-error", "c", false, "continue running remaining tasks after a failure")
	fs.BoolVarP(&o.printLabel, "print-label", "l", false, "prefix each line of output with its task's label")
	fs.BoolVarP(&o.printName, "print-name", "n", false, "print a header line before each task's output")
	fs.BoolVarP(&o.race, "race", "r", false, "stop the group as soon as one task succeeds (parallel groups only)")
	fs.IntVar(&o.maxParallel, "max-parallel", 0, "maximum concurrent tasks in a parallel group (0 = unlimited)")
	fs.BoolVar(&o.aggregateOutput, "aggregate-output", false, "buffer each task's output and flush it as one contiguous block on completion")
	fs.BoolVar(&o.silent, "silent", false, "suppress engine log output")
	fs.IntVar(&o.retry, "retry", 0, "number of retry attempts after a non-zero exit")
	fs.BoolVar(&o.printSummary, "print-summary", false, "print a summary table on completion")
	fs.BoolVar(&o.printSummary, "summary", false, "alias of --print-summary")
	fs.StringVar(&o.npmPath, "npm-path", "", "override the script-runner executable")
}
