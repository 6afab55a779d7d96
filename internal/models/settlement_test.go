package models

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/errs"
	"github.com/tallyup/tallyup/internal/money"
)

func TestNewSettlement(t *testing.T) {
	ownerID := uuid.New()
	contactID := uuid.New()
	debtID := uuid.New()
	splitID := uuid.New()
	now := time.Now()

	tests := []struct {
		name    string
		from    uuid.UUID
		to      uuid.UUID
		amount  string
		targets []SettlementTarget
		wantErr bool
	}{
		{
			name:   "valid multi-target",
			from:   contactID,
			to:     OwnerParticipant,
			amount: "50.00",
			targets: []SettlementTarget{
				{Kind: TargetPeerDebt, TargetID: debtID, Applied: money.MustParse("30.00", "USD")},
				{Kind: TargetExpenseSplit, TargetID: splitID, Applied: money.MustParse("20.00", "USD")},
			},
		},
		{
			name:   "targets must sum to amount",
			from:   contactID,
			to:     OwnerParticipant,
			amount: "50.00",
			targets: []SettlementTarget{
				{Kind: TargetPeerDebt, TargetID: debtID, Applied: money.MustParse("30.00", "USD")},
			},
			wantErr: true,
		},
		{
			name:   "duplicate target rejected",
			from:   contactID,
			to:     OwnerParticipant,
			amount: "50.00",
			targets: []SettlementTarget{
				{Kind: TargetPeerDebt, TargetID: debtID, Applied: money.MustParse("30.00", "USD")},
				{Kind: TargetPeerDebt, TargetID: debtID, Applied: money.MustParse("20.00", "USD")},
			},
			wantErr: true,
		},
		{
			name:   "payer and receiver must differ",
			from:   contactID,
			to:     contactID,
			amount: "50.00",
			targets: []SettlementTarget{
				{Kind: TargetPeerDebt, TargetID: debtID, Applied: money.MustParse("50.00", "USD")},
			},
			wantErr: true,
		},
		{
			name:    "at least one target",
			from:    contactID,
			to:      OwnerParticipant,
			amount:  "50.00",
			targets: nil,
			wantErr: true,
		},
		{
			name:   "unknown target kind",
			from:   contactID,
			to:     OwnerParticipant,
			amount: "50.00",
			targets: []SettlementTarget{
				{Kind: TargetKind("invoice"), TargetID: debtID, Applied: money.MustParse("50.00", "USD")},
			},
			wantErr: true,
		},
		{
			name:   "non-positive applied amount",
			from:   contactID,
			to:     OwnerParticipant,
			amount: "50.00",
			targets: []SettlementTarget{
				{Kind: TargetPeerDebt, TargetID: debtID, Applied: money.MustParse("0.00", "USD")},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSettlement(ownerID, tt.from, tt.to, money.MustParse(tt.amount, "USD"), tt.targets, MethodCash, now, "", now)
			if tt.wantErr {
				if errs.KindOf(err) != errs.KindValidation {
					t.Errorf("got %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSettlement failed: %v", err)
			}
			if s.ReversalOfID != nil {
				t.Error("fresh settlement should not reference a reversal")
			}
		})
	}
}

func TestNewSettlementRejectsUnknownMethod(t *testing.T) {
	targets := []SettlementTarget{
		{Kind: TargetPeerDebt, TargetID: uuid.New(), Applied: money.MustParse("10.00", "USD")},
	}
	_, err := NewSettlement(uuid.New(), uuid.New(), OwnerParticipant, money.MustParse("10.00", "USD"), targets, SettlementMethod("barter"), time.Now(), "", time.Now())
	if errs.KindOf(err) != errs.KindValidation {
		t.Errorf("got %v, want validation error", err)
	}
}

func TestReversal(t *testing.T) {
	contactID := uuid.New()
	targets := []SettlementTarget{
		{Kind: TargetPeerDebt, TargetID: uuid.New(), Applied: money.MustParse("30.00", "USD")},
		{Kind: TargetExpenseSplit, TargetID: uuid.New(), Applied: money.MustParse("20.00", "USD")},
	}
	original, err := NewSettlement(uuid.New(), contactID, OwnerParticipant, money.MustParse("50.00", "USD"), targets, MethodUPI, time.Now(), "paid back", time.Now())
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	rev := original.Reversal("entered by mistake", now)

	if rev.ID == original.ID {
		t.Error("reversal must get its own id")
	}
	if rev.FromID != original.ToID || rev.ToID != original.FromID {
		t.Error("reversal should swap payer and receiver")
	}
	if !rev.Amount.Equal(original.Amount) {
		t.Errorf("reversal amount = %s, want %s", rev.Amount, original.Amount)
	}
	if rev.ReversalOfID == nil || *rev.ReversalOfID != original.ID {
		t.Error("reversal should reference the original settlement")
	}
	if len(rev.Targets) != len(original.Targets) {
		t.Fatalf("reversal has %d targets, want %d", len(rev.Targets), len(original.Targets))
	}
	for i, tgt := range rev.Targets {
		orig := original.Targets[i]
		if tgt.Kind != orig.Kind || tgt.TargetID != orig.TargetID || !tgt.Applied.Equal(orig.Applied) {
			t.Errorf("target[%d] differs from original", i)
		}
	}
	if rev.Notes != "entered by mistake" {
		t.Errorf("reversal notes = %q", rev.Notes)
	}
}
