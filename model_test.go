package statequick

import (
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
)

func boolMethod(id string, requires func(int) bool) Method[int, bool] {
	opts := []MethodOption[int, bool]{}
	if requires != nil {
		opts = append(opts, WithRequires[int, bool](requires))
	}
	return NewMethod(id, func(int) gopter.Gen { return gen.Const(Args{}) }, constBoolReturn, opts...)
}

func TestNewModelRejectsNilInitialState(t *testing.T) {
	if _, err := NewModel[int](nil, nil, boolMethod("m", nil)); err != ErrNilInitialState {
		t.Errorf("expected ErrNilInitialState, got %v", err)
	}
}

func TestNewModelRejectsDuplicateMethodIDs(t *testing.T) {
	_, err := NewModel(func() int { return 0 }, nil, boolMethod("m", nil), boolMethod("m", nil))
	if err == nil {
		t.Fatalf("expected an error for a duplicate method id")
	}
}

func TestNewModelRejectsNoEligibleInitialMethod(t *testing.T) {
	never := func(int) bool { return false }
	_, err := NewModel(func() int { return 0 }, nil, boolMethod("m", never))
	if err != ErrNoInitialMethod {
		t.Errorf("expected ErrNoInitialMethod, got %v", err)
	}
}

func TestModelGetMethod(t *testing.T) {
	m, err := NewModel(func() int { return 0 }, nil, boolMethod("m", nil))
	if err != nil {
		t.Fatalf("unexpected error building model: %v", err)
	}
	if _, ok := m.GetMethod("m"); !ok {
		t.Errorf("expected to find method \"m\"")
	}
	if _, ok := m.GetMethod("missing"); ok {
		t.Errorf("expected not to find method \"missing\"")
	}
}

func TestModelGenMethodDefaultFiltersByRequires(t *testing.T) {
	m, err := NewModel(func() int { return 0 }, nil,
		boolMethod("always", nil),
		boolMethod("never", func(int) bool { return false }),
	)
	if err != nil {
		t.Fatalf("unexpected error building model: %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		chosen, err := m.GenMethod(0, rng)
		if err != nil {
			t.Fatalf("unexpected error selecting a method: %v", err)
		}
		if chosen.ID() != "always" {
			t.Errorf("GenMethod should never select a method whose Requires is false, got %q", chosen.ID())
		}
	}
}

func TestModelCleanupDefaultsToNoop(t *testing.T) {
	m, err := NewModel(func() int { return 0 }, nil, boolMethod("m", nil))
	if err != nil {
		t.Fatalf("unexpected error building model: %v", err)
	}
	// Should not panic even though no WithCleanup was supplied.
	m.Cleanup(nil, nil)
}

func TestModelCleanupHonorsOption(t *testing.T) {
	var called bool
	opts := []ModelOption[int]{WithCleanup[int](func(impl any, trace Trace[int]) { called = true })}
	m, err := NewModel(func() int { return 0 }, opts, boolMethod("m", nil))
	if err != nil {
		t.Fatalf("unexpected error building model: %v", err)
	}
	m.Cleanup(nil, nil)
	if !called {
		t.Errorf("expected the configured cleanup hook to run")
	}
}
