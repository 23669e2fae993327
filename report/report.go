// Package report defines the structured diagnostic values Verify and
// Proxy produce on contract violations: machine-usable fields plus a
// human-readable rendering, kept separate so callers never have to
// parse the string form.
package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Failure is the structured diagnostic produced when Verify finds a call
// whose implementation return does not satisfy the model's predicate, or
// when the implementation panics.
type Failure struct {
	RunID       uuid.UUID
	MethodID    string
	Args        []any
	CallIndex   int
	TraceLength int
	Diagnostic  string
	PanicValue  any
	PanicStack  string
}

// NewFailure tags a Failure with a fresh run id.
func NewFailure(methodID string, args []any, callIndex, traceLength int, diagnostic string) Failure {
	return Failure{
		RunID:       uuid.New(),
		MethodID:    methodID,
		Args:        args,
		CallIndex:   callIndex,
		TraceLength: traceLength,
		Diagnostic:  diagnostic,
	}
}

// String renders a human-readable summary, used by Property.Run's
// t.Errorf and by any console reporter.
func (f Failure) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: call %s/%s failed",
		f.RunID, humanize.Ordinal(f.CallIndex+1), humanize.Comma(int64(f.TraceLength)))
	fmt.Fprintf(&b, " method=%s args=%v", f.MethodID, f.Args)
	if f.PanicValue != nil {
		fmt.Fprintf(&b, " panic=%v", f.PanicValue)
		return b.String()
	}
	fmt.Fprintf(&b, " diagnostic=%s", f.Diagnostic)
	return b.String()
}

// ContractViolation is the diagnostic Proxy raises when a real
// implementation's return does not satisfy the model's predicate.
type ContractViolation struct {
	RunID       uuid.UUID
	MethodID    string
	Args        []any
	ModelReturn string
	ImplReturn  any
	Diagnostic  string
}

// NewContractViolation tags a ContractViolation with a fresh run id.
func NewContractViolation(methodID string, args []any, implReturn any, diagnostic string) ContractViolation {
	return ContractViolation{
		RunID:      uuid.New(),
		MethodID:   methodID,
		Args:       args,
		ImplReturn: implReturn,
		Diagnostic: diagnostic,
	}
}

func (c ContractViolation) Error() string {
	return fmt.Sprintf("run %s: %s(%v) contract violation: %s (implementation returned %v)",
		c.RunID, c.MethodID, c.Args, c.Diagnostic, c.ImplReturn)
}
