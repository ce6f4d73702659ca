package mintflow

import (
	"errors"
	"fmt"

	"github.com/dchesque/SolanaBuilder-sub000/mintprogram"
	"github.com/dchesque/SolanaBuilder-sub000/wallet"
)

// Kind tags a step failure so the caller can tell "retry possible" from
// "terminal" without matching message strings.
type Kind int

const (
	// KindConfig - missing or invalid fee configuration; blocks workflow start.
	KindConfig Kind = iota
	// KindPrecondition - wrong step or invalid input; state unchanged,
	// correct and retry.
	KindPrecondition
	// KindRejected - wallet declined the signature; state unchanged, the
	// user may retry the same step.
	KindRejected
	// KindTransient - network failure worth retrying with a fresh blockhash.
	KindTransient
	// KindConflict - target account already exists; downgraded to success
	// with a notice.
	KindConflict
	// KindFatal - everything else; the workflow moves to Failed.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindPrecondition:
		return "precondition"
	case KindRejected:
		return "rejected"
	case KindTransient:
		return "transient"
	case KindConflict:
		return "conflict"
	case KindFatal:
		return "fatal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// StepError is the tagged failure a step reports to the controller.
type StepError struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *StepError) Unwrap() error { return e.Err }

// Retryable reports whether the same step may be invoked again without
// resetting the workflow.
func (e *StepError) Retryable() bool {
	return e.Kind == KindPrecondition || e.Kind == KindRejected || e.Kind == KindTransient
}

// classify maps an RPC or signer error to a Kind, preserving the recognized
// string conditions of the original behavior.
func classify(err error) Kind {
	switch {
	case errors.Is(err, wallet.ErrRejected):
		return KindRejected
	case mintprogram.IsAlreadyExists(err):
		return KindConflict
	case mintprogram.IsTransient(err):
		return KindTransient
	default:
		return KindFatal
	}
}

func stepErr(kind Kind, detail string, err error) *StepError {
	return &StepError{Kind: kind, Detail: detail, Err: err}
}
