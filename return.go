package statequick

import (
	"fmt"
	"math/rand"

	"github.com/leanovate/gopter"
)

// Predicate validates a concrete return value produced by an
// implementation under test.
type Predicate[T any] func(T) bool

// Return is the model's prediction for one call: a predicate the
// implementation's concrete return value must satisfy, an optional
// generator of mock return values, and the state the model transitions to
// once the call completes.
//
// T is the implementation's return type for the method this Return
// belongs to. S is the model's state type.
type Return[S, T any] struct {
	predicate Predicate[T]
	gen       gopter.Gen
	next      S
	hasNext   bool
}

// ReturnOption configures a Return at construction time.
type ReturnOption[S, T any] interface {
	applyReturn(*Return[S, T])
}

type withNextState[S, T any] struct{ s S }

func (o withNextState[S, T]) applyReturn(r *Return[S, T]) {
	r.next = o.s
	r.hasNext = true
}

// WithNextState configures the state the model transitions to after this
// call. Default value, if omitted, is the unchanged input state.
func WithNextState[S, T any](s S) ReturnOption[S, T] {
	return withNextState[S, T]{s: s}
}

type withGen[S, T any] struct{ g gopter.Gen }

func (o withGen[S, T]) applyReturn(r *Return[S, T]) {
	r.gen = o.g
}

// WithGen configures the generator used to synthesize mock return values.
// Default value, if omitted, is a generator derived from the predicate
// when one can be derived (see Return.Gen); otherwise sampling fails with
// ErrNoGenerator.
func WithGen[S, T any](g gopter.Gen) ReturnOption[S, T] {
	return withGen[S, T]{g: g}
}

// NewReturn constructs a Return descriptor. Panics with ErrNilPredicate if
// predicate is nil, since a Return with no predicate can never be checked
// or used to validate a mock sample.
func NewReturn[S, T any](predicate Predicate[T], opts ...ReturnOption[S, T]) Return[S, T] {
	if predicate == nil {
		panic(ErrNilPredicate)
	}
	r := Return[S, T]{predicate: predicate}
	for _, opt := range opts {
		opt.applyReturn(&r)
	}
	return r
}

// Predicate returns the descriptor's return-value predicate.
func (r Return[S, T]) Predicate() Predicate[T] {
	return r.predicate
}

// Gen returns the generator used to sample mock return values, deriving
// one from the predicate when none was supplied explicitly. Returns
// ErrNoGenerator if neither is available.
func (r Return[S, T]) Gen() (gopter.Gen, error) {
	if r.gen != nil {
		return r.gen, nil
	}
	if g, ok := deriveGen[T](r.predicate); ok {
		return g, nil
	}
	return nil, ErrNoGenerator
}

// NextState returns the state this call transitions to from current:
// the configured next state, or current itself when none was configured.
func (r Return[S, T]) NextState(current S) S {
	if r.hasNext {
		return r.next
	}
	return current
}

// nextState satisfies boxedReturn[S] without needing the "current"
// state at hand: it returns the configured next state and whether one was
// configured (false means "unchanged"). Callers that already track
// current state use NextState.
func (r Return[S, T]) nextState() (S, bool) {
	return r.next, r.hasNext
}

// checkImpl satisfies boxedReturn[S]: type-asserts v to T and evaluates
// the predicate, producing a human diagnostic on type mismatch.
func (r Return[S, T]) checkImpl(v any) (bool, string) {
	t, ok := v.(T)
	if !ok {
		return false, fmt.Sprintf("expected return of type %T, got %T (%v)", *new(T), v, v)
	}
	if r.predicate(t) {
		return true, ""
	}
	return false, fmt.Sprintf("predicate rejected implementation return %v", t)
}

// sample satisfies boxedReturn[S]: draws one value from Gen (or the
// predicate-derived fallback) and validates it against the predicate —
// a descriptor whose own generator produces values its own predicate
// rejects is internally inconsistent.
func (r Return[S, T]) sample(rng *rand.Rand) (any, error) {
	g, err := r.Gen()
	if err != nil {
		return nil, err
	}
	params := gopter.DefaultGenParameters()
	params.Rng = rng
	v, ok := g(params).Retrieve()
	if !ok {
		return nil, ErrNoGenerator
	}
	t, ok := v.(T)
	if !ok {
		return nil, fmt.Errorf("%w: generator produced %T, want %T", ErrInvalidSample, v, *new(T))
	}
	if !r.predicate(t) {
		return nil, ErrInvalidSample
	}
	return t, nil
}

// deriveGen attempts to derive a generator of T purely from its zero
// value's type, for the small closed set of primitive types the engine
// knows how to search exhaustively/randomly without a user-supplied
// generator. Returns ok=false when no derivation is known; a descriptor
// with neither a generator nor a derivable one cannot be sampled.
func deriveGen[T any](_ Predicate[T]) (gopter.Gen, bool) {
	var zero T
	switch any(zero).(type) {
	case bool:
		return boolGen().Map(func(b bool) T { return any(b).(T) }), true
	default:
		return nil, false
	}
}
