package statequick

import (
	"golang.org/x/exp/slices"
	"statequick/rosetree"
)

// shrinkTree wraps trace as the root of a rose tree whose children are
// trace's shrink candidates, filtered for state-machine validity. The
// filtering happens inside the lazily-computed children function, so an
// invalid candidate and its entire subtree simply never get
// materialized.
func shrinkTree[S any](m *Model[S], trace Trace[S]) rosetree.Tree[Trace[S]] {
	return rosetree.New(trace, func() []rosetree.Tree[Trace[S]] {
		return shrinkCandidates(m, trace)
	})
}

// shrinkCandidates builds the conventional vector shrinks of trace (drop
// one call, drop half, shrink one call's args in place), replays each
// through recomputeState, and keeps only the ones that remain valid
// executions of the state machine. Each surviving candidate becomes the
// root of its own lazily-shrinkable subtree, so re-shrinking continues
// to make progress.
func shrinkCandidates[S any](m *Model[S], trace Trace[S]) []rosetree.Tree[Trace[S]] {
	if len(trace) == 0 {
		return nil
	}

	var candidates []Trace[S]

	// Drop half: the front half and the back half.
	if len(trace) > 1 {
		mid := len(trace) / 2
		candidates = append(candidates, slices.Clone(trace[mid:]))
		candidates = append(candidates, slices.Clone(trace[:mid]))
	}

	// Drop one: remove each single call in turn. A one-call trace is
	// already minimal; shrinking never goes below length 1.
	if len(trace) > 1 {
		for i := range trace {
			cand := slices.Clone(trace)
			cand = slices.Delete(cand, i, i+1)
			candidates = append(candidates, cand)
		}
	}

	// Shrink one call's args in place: replace that call's args with
	// each of shrunkArgCandidates' smaller variants, keep everything
	// else unchanged, and let recomputeState decide if it still fits.
	for i, call := range trace {
		if _, ok := m.GetMethod(call.MethodID); !ok {
			continue
		}
		for _, args := range shrunkArgCandidates(call.Args) {
			cand := slices.Clone(trace)
			cand[i] = CallRecord[S]{MethodID: call.MethodID, Args: args}
			candidates = append(candidates, cand)
		}
	}

	out := make([]rosetree.Tree[Trace[S]], 0, len(candidates))
	for _, cand := range candidates {
		valid, replayed := recomputeState(m, cand)
		if !valid {
			continue
		}
		out = append(out, shrinkTree(m, replayed))
	}
	return out
}

// shrunkArgCandidates returns a handful of structurally smaller
// candidates for a single call's args: for string/int elements, an
// obviously smaller value. This is a best-effort narrowing, not an
// exhaustive shrink of the arg generator — recomputeState is the real
// gate for validity either way.
func shrunkArgCandidates(args Args) []Args {
	var out []Args
	if len(args) == 0 {
		return out
	}
	for i := range args {
		switch v := args[i].(type) {
		case string:
			if len(v) > 0 {
				shrunk := slices.Clone(args)
				shrunk[i] = v[:len(v)/2]
				out = append(out, shrunk)
			}
		case int:
			if v != 0 {
				shrunk := slices.Clone(args)
				shrunk[i] = v / 2
				out = append(out, shrunk)
			}
		}
	}
	return out
}

// recomputeState replays trace from m.InitialState(), checking Requires
// and Precondition at each step and refreshing each call's Return from a
// fresh Body evaluation, so the replayed state path is authoritative for
// the shrunk trace. Returns false on the first violation: a trace that
// cannot replay validly must never reach a driver.
func recomputeState[S any](m *Model[S], trace Trace[S]) (bool, Trace[S]) {
	state := m.InitialState()
	out := make(Trace[S], 0, len(trace))
	for _, call := range trace {
		method, ok := m.GetMethod(call.MethodID)
		if !ok {
			return false, nil
		}
		if !method.Requires(state) {
			return false, nil
		}
		if !method.Precondition(state, call.Args) {
			return false, nil
		}
		ret := method.Body(state, call.Args)
		out = append(out, CallRecord[S]{MethodID: call.MethodID, Args: call.Args, Return: ret})
		if next, ok := ret.nextState(); ok {
			state = next
		}
	}
	return true, out
}

// shrinkFailing descends from t, always moving to the first child whose
// value still fails isFailing, until no child fails — the same
// first-match-wins, in-order tie-break as rosetree.Walk. The trace it
// returns is the minimal failing candidate this search found; callers
// only invoke it once t's own root is already known to fail.
func shrinkFailing[S any](t rosetree.Tree[Trace[S]], isFailing func(Trace[S]) bool) Trace[S] {
	current := t
	for {
		progressed := false
		for _, child := range current.Children() {
			if isFailing(child.Value()) {
				current = child
				progressed = true
				break
			}
		}
		if !progressed {
			return current.Value()
		}
	}
}
