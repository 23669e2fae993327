package statequick

import (
	"math/rand"
	"testing"

	"github.com/leanovate/gopter/gen"
)

func TestNewReturnPanicsOnNilPredicate(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected NewReturn to panic on a nil predicate")
		}
	}()
	NewReturn[int, bool](nil)
}

func TestReturnNextStateDefaultsToUnchanged(t *testing.T) {
	r := NewReturn[int, bool](func(bool) bool { return true })
	if got := r.NextState(7); got != 7 {
		t.Errorf("NextState with no WithNextState should return the input state unchanged, got %d", got)
	}

	r = NewReturn[int, bool](func(bool) bool { return true }, WithNextState[int, bool](9))
	if got := r.NextState(7); got != 9 {
		t.Errorf("NextState with WithNextState(9) should return 9, got %d", got)
	}
}

func TestReturnGenDerivesFromPredicateForBool(t *testing.T) {
	r := NewReturn[int, bool](func(bool) bool { return true })
	g, err := r.Gen()
	if err != nil {
		t.Fatalf("expected a derivable bool generator, got error: %v", err)
	}
	if g == nil {
		t.Fatalf("expected a non-nil generator")
	}
}

func TestReturnGenErrorsWhenNotDerivable(t *testing.T) {
	type opaque struct{ n int }
	r := NewReturn[int, opaque](func(opaque) bool { return true })
	if _, err := r.Gen(); err != ErrNoGenerator {
		t.Errorf("expected ErrNoGenerator for an undeliverable type, got %v", err)
	}
}

func TestReturnSampleRejectsValuesFailingItsOwnPredicate(t *testing.T) {
	r := NewReturn[int, int](
		func(int) bool { return false },
		WithGen[int, int](gen.Const(42)),
	)
	if _, err := r.sample(rand.New(rand.NewSource(1))); err != ErrInvalidSample {
		t.Errorf("expected ErrInvalidSample when the generator's own value fails its predicate, got %v", err)
	}
}

func TestReturnSampleAcceptsConsistentGenerator(t *testing.T) {
	r := NewReturn[int, int](
		func(v int) bool { return v == 42 },
		WithGen[int, int](gen.Const(42)),
	)
	v, err := r.sample(rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("unexpected error sampling a consistent return: %v", err)
	}
	if v != 42 {
		t.Errorf("expected sampled value 42, got %v", v)
	}
}

func TestReturnCheckImplReportsTypeMismatch(t *testing.T) {
	r := NewReturn[int, int](func(int) bool { return true })
	ok, diag := r.checkImpl("not an int")
	if ok {
		t.Errorf("expected checkImpl to reject a value of the wrong type")
	}
	if diag == "" {
		t.Errorf("expected a non-empty diagnostic on type mismatch")
	}
}
