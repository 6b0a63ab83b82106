// Package config holds the run-time "--KEY=VALUE" / "--PKG:VAR=VALUE"
// variables that get exposed to spawned child scripts as environment
// variables, per spec.md §6.4. It is viper-backed the same way the teacher's
// internal/cmd.initConfig wires a config store, generalized here from a
// YAML settings file to an in-memory set populated from CLI pairs and
// environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "RUNMANY"

// Store holds global ("KEY=VALUE") and package-scoped ("PKG:VAR=VALUE")
// run-time variables, plus the resolved silent flag implied by a
// loglevel=silent style environment variable.
type Store struct {
	v       *viper.Viper
	global  map[string]string
	scoped  map[string]map[string]string // pkg -> var -> value
	silent  bool
	npmPath string
}

// New builds a Store seeded from the process environment: RUNMANY_*
// variables via viper's AutomaticEnv, npm_config_*-shaped and
// PKG_config_VAR-shaped variables, and a loglevel=silent variable implying
// Silent.
func New() *Store {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	s := &Store{
		v:      v,
		global: map[string]string{},
		scoped: map[string]map[string]string{},
	}

	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		s.absorbEnv(name, value)
	}

	return s
}

// absorbEnv recognizes PKG_config_VAR-shaped and loglevel=silent-shaped
// environment variables, mirroring npm's own config-from-env convention.
func (s *Store) absorbEnv(name, value string) {
	lower := strings.ToLower(name)
	if lower == "loglevel" && value == "silent" {
		s.silent = true
		return
	}
	if lower == "npm_path" {
		s.npmPath = value
		return
	}

	const marker = "_config_"
	if idx := strings.Index(lower, marker); idx > 0 {
		pkg := name[:idx]
		varName := name[idx+len(marker):]
		s.SetScoped(pkg, varName, value)
	}
}

// SetGlobal records a "--KEY=VALUE" run-time variable.
func (s *Store) SetGlobal(key, value string) {
	s.global[key] = value
}

// SetScoped records a "--PKG:VAR=VALUE" package-scoped overwrite variable.
func (s *Store) SetScoped(pkg, varName, value string) {
	if s.scoped[pkg] == nil {
		s.scoped[pkg] = map[string]string{}
	}
	s.scoped[pkg][varName] = value
}

// Global looks up a RUNMANY_-prefixed environment override via viper first,
// falling back to a CLI-set global variable of the same key.
func (s *Store) Global(key string) (string, bool) {
	if s.v.IsSet(key) {
		return s.v.GetString(key), true
	}
	v, ok := s.global[key]
	return v, ok
}

// Silent reports whether a loglevel=silent environment variable (or an
// explicit --silent flag, ORed in by the caller) applies.
func (s *Store) Silent() bool { return s.silent }

// SetSilent lets the CLI layer OR in the --silent flag's value.
func (s *Store) SetSilent(v bool) { s.silent = s.silent || v }

// NpmPath returns the script-runner path override, if any was set via
// --npm-path or the npm_path environment variable.
func (s *Store) NpmPath() string { return s.npmPath }

// SetNpmPath overrides the script-runner path (from --npm-path).
func (s *Store) SetNpmPath(path string) {
	if path != "" {
		s.npmPath = path
	}
}

// Env renders the accumulated global and pkg-scoped variables as
// "KEY=VALUE" pairs suitable for appending to a spawned child's
// environment. pkg scopes only the variables set for that package name;
// global variables are always included.
func (s *Store) Env(pkg string) []string {
	var out []string
	for k, v := range s.global {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	for k, v := range s.scoped[pkg] {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	return out
}

// ParsePair splits a "--KEY=VALUE" or "--PKG:VAR=VALUE" token's payload
// (the part after "--") into the form the Store setters expect.
// It returns ok=false if tok isn't a recognized KEY=VALUE/PKG:VAR=VALUE
// shape at all (the caller should treat it as a positional argument).
func ParsePair(tok string) (pkg, key, value string, scoped bool, ok bool) {
	eq := strings.Index(tok, "=")
	if eq < 0 {
		return "", "", "", false, false
	}
	lhs, rhs := tok[:eq], tok[eq+1:]

	if colon := strings.Index(lhs, ":"); colon >= 0 {
		return lhs[:colon], lhs[colon+1:], rhs, true, true
	}
	return "", lhs, rhs, false, true
}
