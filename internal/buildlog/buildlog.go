// Package buildlog wires the engine's structured logger, mirroring the
// teacher's internal/cmd.initLogger shape (slog.NewTextHandler over stderr,
// level toggled by a verbosity flag) but factored into its own package so
// both internal/cmd and the pipeline driver can reach it without an import
// cycle through cmd.
package buildlog

import (
	"log/slog"
	"os"
)

// Init builds and installs the process-wide logger. verbose selects Debug
// level; otherwise Info.
func Init(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ReportError writes the driver's "ERROR: <message>" line at Error level,
// per spec.md §7, unless silent suppresses all engine chatter.
func ReportError(logger *slog.Logger, silent bool, err error) {
	if silent || err == nil {
		return
	}
	logger.Error("ERROR: " + err.Error())
}
