// Package manifest loads the local package manifest (package.json) and
// exposes the script name -> command line map the rest of the engine
// schedules against.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/runmany/runmany/internal/runerr"
)

// Manifest is the subset of package.json the engine cares about: the scripts
// map. Parsing the shell command line bodies themselves is out of scope
// (spec.md §1); only script names are exposed to the pattern matcher.
type Manifest struct {
	Scripts map[string]string `json:"scripts"`

	// names caches the insertion order of Scripts as they appeared in the
	// JSON file, since Go maps do not preserve order and the pattern matcher
	// must preserve manifest order within a single pattern's match.
	names []string
}

// rawManifest mirrors the on-disk shape for decoding; ScriptNames order is
// recovered separately via a second, order-preserving decode pass.
type rawManifest struct {
	Scripts map[string]string `json:"scripts"`
}

// Load reads package.json from dir and returns a Manifest. If dir is empty,
// the current working directory is used. A missing file surfaces
// runerr.ManifestMissing with a message containing the required substring.
func Load(dir string) (*Manifest, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		dir = wd
	}

	path := filepath.Join(dir, "package.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, runerr.NewManifestMissing(dir)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	names, err := scriptOrder(data)
	if err != nil {
		// Order recovery is best-effort; fall back to sorted names so the
		// matcher still has a deterministic, if not manifest-faithful, order.
		names = sortedKeys(raw.Scripts)
	}

	return &Manifest{Scripts: raw.Scripts, names: names}, nil
}

// ScriptNames returns script names in the order they appear in the manifest.
func (m *Manifest) ScriptNames() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Command returns the shell command line registered for name, if any.
func (m *Manifest) Command(name string) (string, bool) {
	cmd, ok := m.Scripts[name]
	return cmd, ok
}

// scriptOrder recovers the original key order of the "scripts" object by
// walking the raw JSON tokens, since encoding/json's map decoding loses
// order. This keeps pattern-match output faithful to spec.md §4.1's
// "preserve manifest script order" requirement without hand-writing a full
// JSON parser.
func scriptOrder(data []byte) ([]string, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	raw, ok := top["scripts"]
	if !ok {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("scripts is not an object")
	}

	var names []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected scripts key type")
		}
		names = append(names, key)

		// consume and discard the value
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
	}
	return names, nil
}

func sortedKeys(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
