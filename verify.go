package statequick

import (
	"fmt"
	"math/rand"
	"reflect"
	"runtime/debug"
	"testing"
	"time"

	"statequick/report"
)

// Result is the outcome of running a Property: either every call in
// every generated trace satisfied the model, or Trace/Failure describe
// the minimal counterexample the shrinker found.
type Result[S any] struct {
	OK      bool
	Trace   Trace[S]
	Failure *report.Failure
}

// Property is the generate-execute-shrink loop built by Verify or
// TestModel. It does not hand off to a generic property-testing
// library's own shrink loop, because that loop has no notion of
// requires/precondition replay; Property drives the replay-aware
// shrinker in shrink.go itself.
type Property[S any] struct {
	model       *Model[S]
	implFactory func() any
	opts        Options
	seed        int64
	hasSeed     bool
	selfCheck   bool
}

// VerifyOption configures a Property built by Verify.
type VerifyOption[S any] interface {
	applyVerify(*Property[S])
}

type withNumCalls[S any] struct{ n int }

func (o withNumCalls[S]) applyVerify(p *Property[S]) { p.opts.NumCalls = o.n }

// WithNumCalls configures how many generate/execute/shrink iterations
// Verify performs before reporting success. Default value is 100.
func WithNumCalls[S any](n int) VerifyOption[S] {
	return withNumCalls[S]{n: n}
}

type withSeed[S any] struct{ seed int64 }

func (o withSeed[S]) applyVerify(p *Property[S]) { p.seed, p.hasSeed = o.seed, true }

// WithSeed fixes the random seed Verify uses, for reproducible runs.
// Default value, if omitted, is derived from the current time.
func WithSeed[S any](seed int64) VerifyOption[S] {
	return withSeed[S]{seed: seed}
}

// Verify builds a Property asserting that every implementation produced
// by implFactory conforms to m: every generated trace's calls, when
// dispatched onto a fresh impl, satisfy the model's return predicates,
// and m.Cleanup runs on every exit path.
func Verify[S any](m *Model[S], implFactory func() any, opts ...VerifyOption[S]) *Property[S] {
	p := &Property[S]{model: m, implFactory: implFactory, opts: DefaultOptions()}
	for _, opt := range opts {
		opt.applyVerify(p)
	}
	return p
}

// TestModel builds a self-check Property: for every generated call, the
// model's own Return must expose a usable generator. No implementation
// is dispatched.
func TestModel[S any](m *Model[S], opts ...Options) *Property[S] {
	p := &Property[S]{model: m, opts: DefaultOptions(), selfCheck: true}
	if len(opts) > 0 {
		p.opts = opts[0].withDefaults()
	}
	return p
}

func (p *Property[S]) rng() *rand.Rand {
	seed := p.seed
	if !p.hasSeed {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Check runs the property to completion and returns its Result, without
// requiring a live *testing.T.
func (p *Property[S]) Check() Result[S] {
	rng := p.rng()
	for i := 0; i < p.opts.NumCalls; i++ {
		tree, err := GenerateTrace(p.model, p.opts, rng)
		if err != nil {
			f := report.NewFailure("", nil, -1, 0, err.Error())
			return Result[S]{OK: false, Failure: &f}
		}
		root := tree.Value()
		ok, failure := p.runOnce(root)
		if ok {
			continue
		}
		minimal := shrinkFailing(tree, func(cand Trace[S]) bool {
			passed, _ := p.runOnce(cand)
			return !passed
		})
		_, failure = p.runOnce(minimal)
		return Result[S]{OK: false, Trace: minimal, Failure: failure}
	}
	return Result[S]{OK: true}
}

// Run drives Check and reports a failure to t.
func (p *Property[S]) Run(t *testing.T) {
	t.Helper()
	res := p.Check()
	if !res.OK {
		t.Errorf("statequick: property failed after shrinking to %d call(s): %s", len(res.Trace), res.Failure.String())
	}
}

// runOnce executes trace (self-check mode just validates generators; a
// real implementation otherwise) and runs cleanup on every exit path.
func (p *Property[S]) runOnce(trace Trace[S]) (bool, *report.Failure) {
	if p.selfCheck {
		return p.checkGenerators(trace)
	}

	impl := p.implFactory()
	executed := make(Trace[S], 0, len(trace))
	var result = true
	var failure *report.Failure

	defer func() { p.model.Cleanup(impl, executed) }()

	for i, call := range trace {
		v, panicked, panicVal, stack := dispatchCall(impl, call.MethodID, call.Args)
		call.ImplReturn = v
		call.HasImplReturn = true
		executed = append(executed, call)

		if panicked {
			f := report.NewFailure(call.MethodID, call.Args, i, len(trace), "implementation panicked")
			f.PanicValue = panicVal
			f.PanicStack = stack
			result, failure = false, &f
			break
		}
		ok, diag := call.Return.checkImpl(v)
		if !ok {
			f := report.NewFailure(call.MethodID, call.Args, i, len(trace), diag)
			result, failure = false, &f
			break
		}
	}
	return result, failure
}

// checkGenerators is the self-check body: every call's Return must
// expose a usable generator, and a sample drawn from it must satisfy
// its own predicate, checked here without a mock in the loop.
func (p *Property[S]) checkGenerators(trace Trace[S]) (bool, *report.Failure) {
	rng := p.rng()
	for i, call := range trace {
		if _, err := call.Return.sample(rng); err != nil {
			f := report.NewFailure(call.MethodID, call.Args, i, len(trace), err.Error())
			return false, &f
		}
	}
	return true, nil
}

// dispatchCall invokes impl's method named methodID with args, via
// reflection. Panics raised by impl are recovered here and reported as
// implementation exceptions, never propagated past Verify.
func dispatchCall(impl any, methodID string, args Args) (v any, panicked bool, panicVal any, stack string) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			panicVal = r
			stack = string(debug.Stack())
		}
	}()

	mv := reflect.ValueOf(impl).MethodByName(methodID)
	if !mv.IsValid() {
		panic(fmt.Sprintf("statequick: implementation has no method %q", methodID))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		in[i] = reflect.ValueOf(a)
	}
	out := mv.Call(in)
	if len(out) != 1 {
		panic(fmt.Sprintf("statequick: method %q must return exactly one value, got %d", methodID, len(out)))
	}
	return out[0].Interface(), false, nil, ""
}
