package config

import (
	"sort"
	"testing"
)

func TestParsePair_Global(t *testing.T) {
	pkg, key, value, scoped, ok := ParsePair("KEY=VALUE")
	if !ok || scoped || pkg != "" || key != "KEY" || value != "VALUE" {
		t.Errorf("got (%q,%q,%q,%v,%v), want (\"\",\"KEY\",\"VALUE\",false,true)", pkg, key, value, scoped, ok)
	}
}

func TestParsePair_Scoped(t *testing.T) {
	pkg, key, value, scoped, ok := ParsePair("myapp:PORT=8080")
	if !ok || !scoped || pkg != "myapp" || key != "PORT" || value != "8080" {
		t.Errorf("got (%q,%q,%q,%v,%v), want (\"myapp\",\"PORT\",\"8080\",true,true)", pkg, key, value, scoped, ok)
	}
}

func TestParsePair_NotAPair(t *testing.T) {
	if _, _, _, _, ok := ParsePair("positional-arg"); ok {
		t.Error("ParsePair(\"positional-arg\") reported ok=true, want false")
	}
}

func TestStore_EnvIncludesGlobalAndScoped(t *testing.T) {
	s := New()
	s.SetGlobal("FOO", "bar")
	s.SetScoped("myapp", "PORT", "8080")
	s.SetScoped("other", "PORT", "9090")

	env := s.Env("myapp")
	sort.Strings(env)

	want := []string{"FOO=bar", "PORT=8080"}
	sort.Strings(want)

	if len(env) != len(want) {
		t.Fatalf("Env(myapp) = %v, want %v", env, want)
	}
	for i := range want {
		if env[i] != want[i] {
			t.Errorf("Env(myapp)[%d] = %q, want %q", i, env[i], want[i])
		}
	}
}

func TestStore_ScopedVariableIsolatedToItsPackage(t *testing.T) {
	s := New()
	s.SetScoped("myapp", "PORT", "8080")

	for _, kv := range s.Env("other") {
		if kv == "PORT=8080" {
			t.Error("PORT=8080 leaked into an unrelated package's env")
		}
	}
}

func TestStore_SetSilentIsSticky(t *testing.T) {
	s := New()
	s.SetSilent(false)
	if s.Silent() {
		t.Fatal("Silent() = true before any silent signal was set")
	}
	s.SetSilent(true)
	if !s.Silent() {
		t.Error("Silent() = false after SetSilent(true)")
	}
}
