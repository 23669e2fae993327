package statequick

import (
	"math/rand"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"statequick/rosetree"
)

// Options configures trace generation. Any field left at zero (or set
// negative) is replaced by its default, as listed on DefaultOptions.
type Options struct {
	// MaxLength bounds the number of calls in a generated trace.
	// Default value is 10.
	MaxLength int
	// MaxDiscards bounds how many argument candidates are sampled before
	// a method's precondition is considered unsatisfiable in a given
	// state. Default value is 100.
	MaxDiscards int
	// NumCalls bounds how many generate/execute/shrink iterations a
	// Property.Run performs before reporting success. Default value is
	// 100.
	NumCalls int
}

// DefaultOptions returns the engine's default Options: MaxLength 10,
// MaxDiscards 100, NumCalls 100.
func DefaultOptions() Options {
	return Options{MaxLength: 10, MaxDiscards: 100, NumCalls: 100}
}

func (o Options) withDefaults() Options {
	if o.MaxLength <= 0 {
		o.MaxLength = 10
	}
	if o.MaxDiscards <= 0 {
		o.MaxDiscards = 100
	}
	if o.NumCalls <= 0 {
		o.NumCalls = 100
	}
	return o
}

// GenerateTrace produces a rose tree whose root is a trace consistent
// with m's state machine and whose children, computed lazily, are the
// shrink candidates of that trace. Returns an error if method selection
// or argument generation becomes impossible partway through.
func GenerateTrace[S any](m *Model[S], opts Options, rng *rand.Rand) (rosetree.Tree[Trace[S]], error) {
	opts = opts.withDefaults()

	lenParams := gopter.DefaultGenParameters()
	lenParams.Rng = rng
	n, ok := gen.IntRange(1, opts.MaxLength)(lenParams).Retrieve()
	length, isInt := n.(int)
	if !ok || !isInt {
		length = 1
	}

	trace, err := buildTrace(m, rng, length, opts.MaxDiscards)
	if err != nil {
		return rosetree.Tree[Trace[S]]{}, err
	}
	return shrinkTree(m, trace), nil
}

// buildTrace walks the state machine length times, sampling a method and
// precondition-satisfying arguments at each step.
func buildTrace[S any](m *Model[S], rng *rand.Rand, length, maxDiscards int) (Trace[S], error) {
	state := m.InitialState()
	trace := make(Trace[S], 0, length)
	for i := 0; i < length; i++ {
		method, err := m.GenMethod(state, rng)
		if err != nil {
			return nil, err
		}
		args, err := suchThatArgs(method, state, rng, maxDiscards)
		if err != nil {
			return nil, err
		}
		ret := method.Body(state, args)
		trace = append(trace, CallRecord[S]{
			MethodID: method.ID(),
			Args:     args,
			Return:   ret,
		})
		if next, ok := ret.nextState(); ok {
			state = next
		}
	}
	return trace, nil
}

// suchThatArgs samples method's ArgsGen in state s repeatedly until
// precondition holds or maxDiscards is exhausted, returning
// ErrPreconditionExhausted past the retry budget.
func suchThatArgs[S any](method boxedMethod[S], s S, rng *rand.Rand, maxDiscards int) (Args, error) {
	g := method.ArgsGen(s)
	params := gopter.DefaultGenParameters()
	params.Rng = rng
	for i := 0; i < maxDiscards; i++ {
		v, ok := g(params).Retrieve()
		if !ok {
			continue
		}
		args, ok := v.(Args)
		if !ok {
			continue
		}
		if method.Precondition(s, args) {
			return args, nil
		}
	}
	return nil, ErrPreconditionExhausted
}
