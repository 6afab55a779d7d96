// Package errs defines the typed errors shared by the ledger core.
//
// Every error carries a Kind so callers (and the HTTP layer) can branch on
// the class of failure without parsing messages. Errors wrap normally with
// errors.Is/As; KindOf walks the chain.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind int

const (
	// KindUnknown is the zero Kind for errors that did not originate here.
	KindUnknown Kind = iota

	// KindValidation rejects bad input before any write: non-positive
	// amounts, self-debts, malformed commands.
	KindValidation

	// KindNotFound means an id did not resolve within the owner's scope.
	KindNotFound

	// KindOverSettlement means a settlement exceeds a target's remaining
	// balance.
	KindOverSettlement

	// KindSplitMismatch means EXACT split shares do not sum to the total.
	KindSplitMismatch

	// KindConcurrentModification means an optimistic version check lost;
	// the caller should re-read and retry.
	KindConcurrentModification

	// KindUnbalancedLedger signals a data-integrity fault: net balances of
	// a closed set do not sum to zero. This is a bug, not bad input.
	KindUnbalancedLedger

	// KindCurrencyMismatch means an operation combined two currencies.
	KindCurrencyMismatch

	// KindConflict covers state conflicts that are neither validation nor
	// concurrency failures, e.g. settling a cancelled debt.
	KindConflict
)

// String returns a stable name for the kind, used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindOverSettlement:
		return "over_settlement"
	case KindSplitMismatch:
		return "split_mismatch"
	case KindConcurrentModification:
		return "concurrent_modification"
	case KindUnbalancedLedger:
		return "unbalanced_ledger"
	case KindCurrencyMismatch:
		return "currency_mismatch"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is a classified error with an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two *Error values by Kind, so
// errors.Is(err, &Error{Kind: KindNotFound}) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Validation creates a KindValidation error.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// NotFound creates a KindNotFound error for an entity and id.
func NotFound(entity, id string) *Error {
	return New(KindNotFound, "%s not found: %s", entity, id)
}

// OverSettlement creates a KindOverSettlement error.
func OverSettlement(amount, remaining string) *Error {
	return New(KindOverSettlement, "settlement amount %s exceeds remaining %s", amount, remaining)
}

// SplitMismatch creates a KindSplitMismatch error.
func SplitMismatch(shareSum, total string) *Error {
	return New(KindSplitMismatch, "split shares sum to %s, expense total is %s", shareSum, total)
}

// ConcurrentModification creates a KindConcurrentModification error.
func ConcurrentModification(entity, id string) *Error {
	return New(KindConcurrentModification, "%s %s was modified concurrently, re-read and retry", entity, id)
}

// UnbalancedLedger creates a KindUnbalancedLedger error.
func UnbalancedLedger(format string, args ...any) *Error {
	return New(KindUnbalancedLedger, format, args...)
}

// CurrencyMismatch creates a KindCurrencyMismatch error.
func CurrencyMismatch(expected, actual string) *Error {
	return New(KindCurrencyMismatch, "currency mismatch: expected %s, got %s", expected, actual)
}

// Conflict creates a KindConflict error.
func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

// KindOf returns the Kind of the first *Error in the chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether the error chain contains an *Error of kind k.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}
