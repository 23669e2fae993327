package statequick

import (
	"fmt"
	"log"
	"math/rand"
	"sort"

	"golang.org/x/exp/maps"
)

// Model is a declarative specification of an interface's state machine:
// a set of Method descriptors plus an initial state, a method-selection
// generator, and an optional cleanup hook.
type Model[S any] struct {
	methods map[string]boxedMethod[S]
	initial func() S
	genMeth func(s S, rng *rand.Rand) (boxedMethod[S], error)
	cleanup func(impl any, trace Trace[S])
}

// ModelOption configures a Model at construction time.
type ModelOption[S any] interface {
	applyModel(*Model[S])
}

type withGenMethod[S any] struct {
	f func(s S, rng *rand.Rand) (boxedMethod[S], error)
}

func (o withGenMethod[S]) applyModel(m *Model[S]) { m.genMeth = o.f }

// WithGenMethod configures the method-selection generator. Default
// value, if omitted, is a uniform choice among methods whose Requires
// holds in the current state.
func WithGenMethod[S any](f func(s S, rng *rand.Rand) (boxedMethod[S], error)) ModelOption[S] {
	return withGenMethod[S]{f: f}
}

type withCleanup[S any] struct{ f func(impl any, trace Trace[S]) }

func (o withCleanup[S]) applyModel(m *Model[S]) { m.cleanup = o.f }

// WithCleanup configures a hook run after every Verify execution,
// regardless of outcome. Default value, if omitted, is a no-op.
func WithCleanup[S any](f func(impl any, trace Trace[S])) ModelOption[S] {
	return withCleanup[S]{f: f}
}

// NewModel constructs a Model from a set of Method descriptors and an
// initial-state function. Returns ErrNilInitialState, ErrDuplicateMethod,
// or ErrNoInitialMethod.
func NewModel[S any](initial func() S, opts []ModelOption[S], methods ...boxedMethod[S]) (*Model[S], error) {
	if initial == nil {
		return nil, ErrNilInitialState
	}
	methodSet := make(map[string]boxedMethod[S], len(methods))
	for _, meth := range methods {
		if _, exists := methodSet[meth.ID()]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateMethod, meth.ID())
		}
		methodSet[meth.ID()] = meth
	}
	m := &Model[S]{
		methods: methodSet,
		initial: initial,
		cleanup: func(any, Trace[S]) {},
	}
	for _, opt := range opts {
		opt.applyModel(m)
	}

	s0 := initial()
	if _, err := m.GenMethod(s0, rand.New(rand.NewSource(1))); err != nil {
		return nil, ErrNoInitialMethod
	}
	return m, nil
}

// GetMethod returns the method with the given id, and whether it exists.
func (m *Model[S]) GetMethod(id string) (boxedMethod[S], bool) {
	meth, ok := m.methods[id]
	return meth, ok
}

// MethodIDs returns the stable identifiers of every method in the model,
// in no particular order.
func (m *Model[S]) MethodIDs() []string {
	return maps.Keys(m.methods)
}

// InitialState returns a fresh initial state.
func (m *Model[S]) InitialState() S {
	return m.initial()
}

// GenMethod samples a method to call in state s, using the configured
// selection generator or, by default, a uniform choice among methods
// whose Requires holds.
func (m *Model[S]) GenMethod(s S, rng *rand.Rand) (boxedMethod[S], error) {
	if m.genMeth != nil {
		return m.genMeth(s, rng)
	}
	// Iterate in sorted id order so that, for a fixed rng seed, the
	// eligible set (and thus rng.Intn's outcome) does not depend on Go's
	// randomized map iteration order.
	ids := m.MethodIDs()
	sort.Strings(ids)
	eligible := make([]boxedMethod[S], 0, len(ids))
	for _, id := range ids {
		meth := m.methods[id]
		if meth.Requires(s) {
			eligible = append(eligible, meth)
		}
	}
	if len(eligible) == 0 {
		return nil, ErrNoEligibleMethod
	}
	return eligible[rng.Intn(len(eligible))], nil
}

// Cleanup runs the model's cleanup hook over the executed trace,
// best-effort, on every exit path of Verify. A panic raised by the hook
// is logged and recovered, so it never replaces the run's own result.
func (m *Model[S]) Cleanup(impl any, trace Trace[S]) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("statequick: cleanup hook panicked: %v", r)
		}
	}()
	m.cleanup(impl, trace)
}
