package pattern

import (
	"reflect"
	"testing"

	"github.com/runmany/runmany/internal/runerr"
)

func names(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ScriptName
	}
	return out
}

func TestExpand_SingleSegmentWildcard(t *testing.T) {
	scripts := []string{"test-task:append:a", "test-task:append:b", "test-task:other"}

	tasks, err := Expand(scripts, []string{"test-task:append:*"})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}

	want := []string{"test-task:append:a", "test-task:append:b"}
	if got := names(tasks); !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func TestExpand_DoubleStarCrossesSegments(t *testing.T) {
	scripts := []string{"build:css", "build:js:min", "test:unit"}

	tasks, err := Expand(scripts, []string{"build:**"})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}

	want := []string{"build:css", "build:js:min"}
	if got := names(tasks); !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func TestExpand_NegationExcludes(t *testing.T) {
	scripts := []string{"lint:js", "lint:css", "lint:md"}

	tasks, err := Expand(scripts, []string{"lint:*", "!lint:md"})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}

	want := []string{"lint:js", "lint:css"}
	if got := names(tasks); !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func TestExpand_DedupDifferentPatternsKeepFirst(t *testing.T) {
	scripts := []string{"y:x", "z:x"}

	tasks, err := Expand(scripts, []string{"*:x", "y:x"})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}

	want := []string{"y:x", "z:x"}
	if got := names(tasks); !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func TestExpand_SameLiteralTwiceRunsTwice(t *testing.T) {
	scripts := []string{"a"}

	tasks, err := Expand(scripts, []string{"a", "a"})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}

	if len(tasks) != 2 {
		t.Fatalf("len(tasks) = %d, want 2", len(tasks))
	}
}

func TestExpand_InlineArgsPreservedInDisplayName(t *testing.T) {
	scripts := []string{"test-task:append"}

	tasks, err := Expand(scripts, []string{"test-task:append a"})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}

	if len(tasks) != 1 {
		t.Fatalf("len(tasks) = %d, want 1", len(tasks))
	}
	task := tasks[0]
	if task.DisplayName != "test-task:append a" {
		t.Errorf("DisplayName = %q, want %q", task.DisplayName, "test-task:append a")
	}
	if task.ScriptName != "test-task:append" {
		t.Errorf("ScriptName = %q, want %q", task.ScriptName, "test-task:append")
	}
	if want := []string{"a"}; !reflect.DeepEqual(task.ExtraArgs, want) {
		t.Errorf("ExtraArgs = %v, want %v", task.ExtraArgs, want)
	}
}

func TestExpand_EmptyResultErrors(t *testing.T) {
	scripts := []string{"build"}

	_, err := Expand(scripts, []string{"does-not-exist"})
	if err == nil {
		t.Fatal("expected error for no matches")
	}

	ve, ok := runerr.AsValidationError(err)
	if !ok {
		t.Fatalf("expected *runerr.ValidationError, got %T", err)
	}
	if ve.Kind != runerr.KindPatternNoMatch {
		t.Errorf("Kind = %v, want KindPatternNoMatch", ve.Kind)
	}
}

func TestExpand_NegationOnlyErrors(t *testing.T) {
	scripts := []string{"build"}

	_, err := Expand(scripts, []string{"!build"})
	if err == nil {
		t.Fatal("expected error when only negative patterns given")
	}
}
