// Command runmany expands glob-like patterns against a package manifest's
// scripts and drives the matched tasks through one or more groups.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/runmany/runmany/internal/cmd"
)

func main() {
	// Forwarded as abort() to the top group per spec.md §5: canceling ctx
	// propagates pipeline -> group -> task -> supervisor.Handle.Abort.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
