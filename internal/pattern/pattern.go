// Package pattern expands user-supplied glob patterns against a manifest's
// script names into a concrete, ordered task list.
//
// Matching is delegated to gobwas/glob (the same library vercel-turborepo
// uses to match workspace/task selectors): compiling a pattern with ':' as
// the separator rune gives single-segment '*'/'?' for free, while '**'
// naturally crosses ':' boundaries per gobwas/glob's own semantics.
package pattern

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/runmany/runmany/internal/runerr"
)

// Task is one scheduled invocation of a script, carrying the original typed
// pattern (for summaries) alongside the resolved manifest script name and any
// trailing argument tokens the pattern included.
type Task struct {
	// DisplayName preserves the original pattern segment as typed, including
	// inline arguments after whitespace.
	DisplayName string
	// ScriptName is the manifest entry the child supervisor is asked to invoke.
	ScriptName string
	// ExtraArgs are tokens appended after the script invocation.
	ExtraArgs []string
}

const segmentSeparator = ':'

// Expand implements spec.md §4.1. scripts is the manifest's ordered script
// name list; patterns is the ordered list of user-supplied patterns
// (positive, or negated with a leading "!").
func Expand(scripts []string, patterns []string) ([]Task, error) {
	var positives []string
	var negativeGlobs []glob.Glob

	for _, p := range patterns {
		if rest, ok := strings.CutPrefix(p, "!"); ok {
			selector, _ := splitSelector(rest)
			g, err := glob.Compile(selector, segmentSeparator)
			if err != nil {
				return nil, runerr.NewInvalidOption("pattern", err.Error())
			}
			negativeGlobs = append(negativeGlobs, g)
			continue
		}
		positives = append(positives, p)
	}

	// emittedBy records, per script name, the literal positive pattern that
	// most recently emitted it. A later pattern only re-emits an already-seen
	// script name when it is textually identical to the one that emitted it
	// before; a different pattern matching the same script is a duplicate and
	// is dropped.
	emittedBy := map[string]string{}

	var out []Task
	for _, p := range positives {
		selector, args := splitSelector(p)

		g, err := glob.Compile(selector, segmentSeparator)
		if err != nil {
			return nil, runerr.NewInvalidOption("pattern", err.Error())
		}

		for _, scriptName := range scripts {
			if !g.Match(scriptName) {
				continue
			}
			if matchesAny(negativeGlobs, scriptName) {
				continue
			}
			if prev, ok := emittedBy[scriptName]; ok && prev != p {
				continue
			}

			out = append(out, Task{
				DisplayName: p,
				ScriptName:  scriptName,
				ExtraArgs:   args,
			})
			emittedBy[scriptName] = p
		}
	}

	if len(out) == 0 {
		subject := ""
		if len(patterns) > 0 {
			subject = patterns[0]
		}
		return nil, runerr.NewPatternNoMatch(subject)
	}

	return out, nil
}

// splitSelector separates a pattern's glob selector from any inline argument
// tokens that follow whitespace, e.g. "test-task:append a" -> ("test-task:append", ["a"]).
func splitSelector(p string) (selector string, args []string) {
	fields := strings.Fields(p)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

func matchesAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
