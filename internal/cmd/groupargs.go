package cmd

import "strings"

// rawGroup is one argv segment destined for its own group.Policy, before
// pflag has parsed its flags/patterns apart.
type rawGroup struct {
	parallel bool
	args     []string
}

// clusterableFlags are the single-letter boolean flags this pre-parser
// understands how to pull out of a "-cp"-style cluster. "s" and "p" open a
// new group rather than setting a bool field, but they still participate in
// clustering the same way.
const clusterableFlags = "clnrsp"

// splitGroups partitions args into group segments for the general "run"
// entry point. -s/--sequential/--serial and -p/--parallel open a new group
// mid-argv; pflag has no native notion of a repeated section-opening flag,
// so this pass runs before cobra/pflag ever sees the tokens, splitting
// os.Args the way a hand-written argv scanner would. defaultParallel selects
// the first group's policy when no opening flag precedes the first pattern.
// A literal "--" stops section-splitting: everything after it, including
// any token that looks like -s/-p, is treated as positional.
func splitGroups(args []string, defaultParallel bool) []rawGroup {
	args = expandClusters(args)

	var groups []rawGroup
	current := rawGroup{parallel: defaultParallel}
	started := false
	endOfOptions := false

	flush := func() {
		if started {
			groups = append(groups, current)
		}
	}

	for _, a := range args {
		if endOfOptions {
			current.args = append(current.args, a)
			started = true
			continue
		}
		if a == "--" {
			current.args = append(current.args, a)
			endOfOptions = true
			continue
		}
		if isGroupOpener(a, true) || isGroupOpener(a, false) {
			// A segment of flags only (the "-c" of "-cp") opens no group of
			// its own: its flags carry into the group being opened.
			carried := current.args
			for _, prev := range current.args {
				if !strings.HasPrefix(prev, "-") {
					carried = nil
					flush()
					break
				}
			}
			current = rawGroup{parallel: isGroupOpener(a, true), args: carried}
			started = len(carried) > 0
			continue
		}
		current.args = append(current.args, a)
		started = true
	}
	flush()

	return groups
}

// expandClusters rewrites a clustered short-flag token like "-cp" into its
// constituent "-c" "-p" tokens so isGroupOpener sees "-p"/"-s" on their own,
// the same expansion pflag performs natively for flags it parses itself;
// this pass exists because the group-opening letters never reach pflag.
func expandClusters(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if !isClusterCandidate(a) {
			out = append(out, a)
			continue
		}
		for _, r := range a[1:] {
			out = append(out, "-"+string(r))
		}
	}
	return out
}

func isClusterCandidate(tok string) bool {
	if len(tok) < 3 || tok[0] != '-' || tok[1] == '-' {
		return false
	}
	for _, r := range tok[1:] {
		if !strings.ContainsRune(clusterableFlags, r) {
			return false
		}
	}
	return true
}

func isGroupOpener(tok string, parallel bool) bool {
	if parallel {
		return tok == "-p" || tok == "--parallel"
	}
	switch tok {
	case "-s", "--sequential", "--serial":
		return true
	}
	return false
}
