package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad input"), KindValidation},
		{"not found", NotFound("contact", "abc"), KindNotFound},
		{"over settlement", OverSettlement("25.00 USD", "20.00 USD"), KindOverSettlement},
		{"wrapped keeps kind", fmt.Errorf("outer: %w", ConcurrentModification("debt", "x")), KindConcurrentModification},
		{"plain error is unknown", errors.New("boom"), KindUnknown},
		{"nil is unknown", nil, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", UnbalancedLedger("sum is %s", "0.01"))
	if !errors.Is(err, &Error{Kind: KindUnbalancedLedger}) {
		t.Error("errors.Is should match by kind through wrapping")
	}
	if errors.Is(err, &Error{Kind: KindNotFound}) {
		t.Error("errors.Is should not match a different kind")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(KindConflict, cause, "conflict happened")
	if !errors.Is(err, cause) {
		t.Error("wrapped cause should be reachable with errors.Is")
	}
	if KindOf(err) != KindConflict {
		t.Errorf("KindOf = %v, want KindConflict", KindOf(err))
	}
}
