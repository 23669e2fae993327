package statequick

import "errors"

// Model construction errors, raised immediately at
// NewReturn/NewMethod/NewModel call time.
var (
	ErrNilPredicate    = errors.New("statequick: predicate must not be nil")
	ErrNilArgsGen      = errors.New("statequick: args generator must not be nil")
	ErrEmptyMethodID   = errors.New("statequick: method id must not be empty")
	ErrNilInitialState = errors.New("statequick: initial state function must not be nil")
	ErrDuplicateMethod = errors.New("statequick: duplicate method id")
	ErrNoInitialMethod = errors.New("statequick: no method satisfies requires() in the initial state")
)

// Model internal inconsistency errors, raised during generation or mock
// sampling.
var (
	ErrNoGenerator           = errors.New("statequick: no generator available and none derivable from predicate")
	ErrNoEligibleMethod      = errors.New("statequick: gen_method selected no eligible method")
	ErrPreconditionExhausted = errors.New("statequick: exhausted retries generating args satisfying precondition")
	ErrInvalidSample         = errors.New("statequick: generator sampled a value its own predicate rejects")
)

// Contract violations and implementation exceptions are carried as
// report.Failure / report.ContractViolation values rather than as
// sentinel errors, since they must be shrinkable and structured.
