package statequick

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// MockHandle is a synthesized instance of the modeled interface whose
// operations advance model state and return generated values. Call is
// the capability-set entry point a hand-written interface adapter
// forwards each real method to.
type MockHandle[S any] struct {
	model *Model[S]
	store Store[S]
	rng   *rand.Rand
}

// MockOption configures a MockHandle at construction time.
type MockOption[S any] interface {
	applyMock(*mockConfig[S])
}

type mockConfig[S any] struct {
	store Store[S]
	seed  int64
}

type withMockStore[S any] struct{ store Store[S] }

func (o withMockStore[S]) applyMock(c *mockConfig[S]) { c.store = o.store }

// WithMockStore configures the Store backing this mock, letting several
// mocks share one store. Default value, if omitted, is a private
// ephemeral store.
func WithMockStore[S any](store Store[S]) MockOption[S] {
	return withMockStore[S]{store: store}
}

type withMockSeed[S any] struct{ seed int64 }

func (o withMockSeed[S]) applyMock(c *mockConfig[S]) { c.seed = o.seed }

// WithMockSeed fixes the random seed used to sample return values, for
// deterministic mocks. Default value, if omitted, is derived from the
// current time.
func WithMockSeed[S any](seed int64) MockOption[S] {
	return withMockSeed[S]{seed: seed}
}

// Mock synthesizes a MockHandle for m. The mock deliberately does not
// enforce Requires or Precondition on caller-made calls; those are
// generator-side concerns only.
func Mock[S any](m *Model[S], opts ...MockOption[S]) *MockHandle[S] {
	cfg := mockConfig[S]{seed: nowSeed()}
	for _, opt := range opts {
		opt.applyMock(&cfg)
	}
	store := cfg.store
	if store == nil {
		store = NewEphemeralStore(m.InitialState())
	}
	return &MockHandle[S]{
		model: m,
		store: store,
		rng:   lockedRand(cfg.seed),
	}
}

// lockedRand returns a *rand.Rand whose underlying source is guarded by
// a mutex, so concurrent callers of one mock (or proxy) never race on
// the sampler. Mock instances must be safe under concurrent caller use;
// a bare rand.Rand is not.
func lockedRand(seed int64) *rand.Rand {
	return rand.New(&lockedSource{src: rand.NewSource(seed)})
}

type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}

// Call performs one call to methodID with args: under one Swap, it
// computes the model's Return for the current state, samples one return
// value from it, and advances the stored state to Return's next state.
// Returns an error if methodID is not part of the model, or any error
// the sample step produces.
func (h *MockHandle[S]) Call(methodID string, args Args) (any, error) {
	method, ok := h.model.GetMethod(methodID)
	if !ok {
		return nil, fmt.Errorf("statequick: mock has no method %q", methodID)
	}

	var sampled any
	var sampleErr error

	h.store.Swap(func(s S) S {
		ret := method.Body(s, args)
		v, err := ret.sample(h.rng)
		if err != nil {
			sampleErr = err
			return s
		}
		sampled, sampleErr = v, nil
		next, ok := ret.nextState()
		if !ok {
			return s
		}
		return next
	})

	if sampleErr != nil {
		return nil, sampleErr
	}
	return sampled, nil
}

func nowSeed() int64 {
	return time.Now().UnixNano()
}
