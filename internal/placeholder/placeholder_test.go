package placeholder

import (
	"testing"

	"github.com/runmany/runmany/internal/runerr"
)

func TestExpand_Positional(t *testing.T) {
	got, err := Expand("deploy {1} {2}", []string{"staging", "us-east"}, nil)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if want := "deploy staging us-east"; got != want {
		t.Errorf("Expand = %q, want %q", got, want)
	}
}

func TestExpand_AllIndividuallyQuoted(t *testing.T) {
	got, err := Expand("run {@}", []string{"a b", "c"}, nil)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if want := "run 'a b' c"; got != want {
		t.Errorf("Expand = %q, want %q", got, want)
	}
}

func TestExpand_AllJoinedAsOneString(t *testing.T) {
	got, err := Expand("run {*}", []string{"a", "b"}, nil)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if want := "run 'a b'"; got != want {
		t.Errorf("Expand = %q, want %q", got, want)
	}
}

func TestExpand_DefaultWhenMissing(t *testing.T) {
	got, err := Expand("deploy {1:-staging}", nil, nil)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if want := "deploy staging"; got != want {
		t.Errorf("Expand = %q, want %q", got, want)
	}
}

func TestExpand_RememberedDefaultAppliesLater(t *testing.T) {
	remembered := map[string]string{}

	first, err := Expand("build {1:=release}", nil, remembered)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if want := "build release"; first != want {
		t.Errorf("first Expand = %q, want %q", first, want)
	}

	second, err := Expand("package {1}", nil, remembered)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if want := "package release"; second != want {
		t.Errorf("second Expand = %q, want %q", second, want)
	}
}

func TestExpand_UnknownSyntaxErrors(t *testing.T) {
	_, err := Expand("deploy {bogus!!}", nil, nil)
	if err == nil {
		t.Fatal("expected error for unknown placeholder syntax")
	}
	ve, ok := runerr.AsValidationError(err)
	if !ok {
		t.Fatalf("expected *runerr.ValidationError, got %T", err)
	}
	if ve.Kind != runerr.KindInvalidPlaceholder {
		t.Errorf("Kind = %v, want KindInvalidPlaceholder", ve.Kind)
	}
}

func TestExpand_UnterminatedPlaceholderErrors(t *testing.T) {
	_, err := Expand("deploy {1", nil, nil)
	if err == nil {
		t.Fatal("expected error for unterminated placeholder")
	}
}
