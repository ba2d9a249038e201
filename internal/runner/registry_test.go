package runner_test

import (
	"testing"

	"pfbverify/internal/runner"
)

type foldTool struct{ id int }
type diffTool struct{ id int }

func TestProvideBuildsOncePerType(t *testing.T) {
	reg := runner.NewRegistry()
	builds := 0
	build := func() *foldTool {
		builds++
		return &foldTool{id: builds}
	}

	first := runner.Provide(reg, build)
	second := runner.Provide(reg, build)
	if first != second {
		t.Fatal("expected the same instance for the same type")
	}
	if builds != 1 {
		t.Fatalf("builder ran %d times", builds)
	}

	other := runner.Provide(reg, func() *diffTool { return &diffTool{id: 7} })
	if other.id != 7 {
		t.Fatalf("unexpected instance %+v", other)
	}
	if reg.Len() != 2 {
		t.Fatalf("registry size = %d, want 2", reg.Len())
	}
}

func TestLookup(t *testing.T) {
	reg := runner.NewRegistry()
	if _, ok := runner.Lookup[*foldTool](reg); ok {
		t.Fatal("expected empty registry")
	}
	want := runner.Provide(reg, func() *foldTool { return &foldTool{id: 1} })
	got, ok := runner.Lookup[*foldTool](reg)
	if !ok || got != want {
		t.Fatalf("Lookup = %v, %v", got, ok)
	}
}
