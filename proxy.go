package statequick

import (
	"math/rand"
	"time"

	"statequick/report"
)

// ProxyReturnMode selects what Call hands back to the caller once a
// dispatched call has been checked against the model.
type ProxyReturnMode int

const (
	// ReturnImplementation hands back whatever the real implementation
	// returned, once it has been checked against the model (default).
	ReturnImplementation ProxyReturnMode = iota
	// ReturnModel hands back a value freshly sampled from the model's
	// Return instead, discarding the implementation's own value.
	ReturnModel
)

// ProxyHandle wraps a real implementation behind the model's state
// machine: every Call advances model state exactly as Mock does, but
// dispatches to impl rather than sampling a synthetic value, and raises
// a report.ContractViolation the instant impl's return disagrees with
// the model.
type ProxyHandle[S any] struct {
	model *Model[S]
	impl  any
	store Store[S]
	rng   *rand.Rand
	mode  ProxyReturnMode
}

// ProxyOption configures a ProxyHandle at construction time.
type ProxyOption[S any] interface {
	applyProxy(*proxyConfig[S])
}

type proxyConfig[S any] struct {
	store Store[S]
	seed  int64
	mode  ProxyReturnMode
}

type withProxyStore[S any] struct{ store Store[S] }

func (o withProxyStore[S]) applyProxy(c *proxyConfig[S]) { c.store = o.store }

// WithProxyStore configures the Store backing this proxy, letting it
// share state with Mock instances or other proxies over the same
// model. Default value, if omitted, is a private ephemeral store.
func WithProxyStore[S any](store Store[S]) ProxyOption[S] {
	return withProxyStore[S]{store: store}
}

type withProxySeed[S any] struct{ seed int64 }

func (o withProxySeed[S]) applyProxy(c *proxyConfig[S]) { c.seed = o.seed }

// WithProxySeed fixes the random seed used when ReturnModel sampling is
// in effect. Default value, if omitted, is derived from the current
// time.
func WithProxySeed[S any](seed int64) ProxyOption[S] {
	return withProxySeed[S]{seed: seed}
}

type withReturnMode[S any] struct{ mode ProxyReturnMode }

func (o withReturnMode[S]) applyProxy(c *proxyConfig[S]) { c.mode = o.mode }

// WithReturnMode selects whether Call returns the implementation's own
// value or a value freshly sampled from the model. Default value, if
// omitted, is ReturnImplementation.
func WithReturnMode[S any](mode ProxyReturnMode) ProxyOption[S] {
	return withReturnMode[S]{mode: mode}
}

// Proxy wraps impl behind m's state machine.
func Proxy[S any](m *Model[S], impl any, opts ...ProxyOption[S]) *ProxyHandle[S] {
	cfg := proxyConfig[S]{seed: time.Now().UnixNano(), mode: ReturnImplementation}
	for _, opt := range opts {
		opt.applyProxy(&cfg)
	}
	store := cfg.store
	if store == nil {
		store = NewEphemeralStore(m.InitialState())
	}
	return &ProxyHandle[S]{
		model: m,
		impl:  impl,
		store: store,
		rng:   lockedRand(cfg.seed),
		mode:  cfg.mode,
	}
}

// Call computes the model's Return for the current state and advances
// the stored state under one Swap, then dispatches methodID(args) to the
// wrapped implementation and checks its return against the captured
// Return. The implementation is invoked after the swap commits, never
// inside it: the swapped function may be retried under contention and
// must stay free of external side effects, and a real implementation
// call is exactly such a side effect. A contract violation is reported,
// not silently swallowed, but it does not stop the proxy from continuing
// to track state on subsequent calls.
func (h *ProxyHandle[S]) Call(methodID string, args Args) (any, error) {
	method, ok := h.model.GetMethod(methodID)
	if !ok {
		return nil, &report.ContractViolation{Diagnostic: "no such method: " + methodID}
	}

	var ret boxedReturn[S]
	h.store.Swap(func(s S) S {
		ret = method.Body(s, args)
		next, ok := ret.nextState()
		if !ok {
			return s
		}
		return next
	})

	var violation error
	implReturn, panicked, panicVal, _ := dispatchCall(h.impl, methodID, args)
	if panicked {
		cv := report.NewContractViolation(methodID, args, panicVal, "implementation panicked")
		violation = cv
	} else if ok, diag := ret.checkImpl(implReturn); !ok {
		cv := report.NewContractViolation(methodID, args, implReturn, diag)
		violation = cv
	}

	if h.mode == ReturnModel {
		sampled, err := ret.sample(h.rng)
		if err != nil {
			if violation == nil {
				violation = err
			}
			return nil, violation
		}
		return sampled, violation
	}
	return implReturn, violation
}
