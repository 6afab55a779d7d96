package calculator

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyup/tallyup/internal/errs"
	"github.com/tallyup/tallyup/internal/models"
	"github.com/tallyup/tallyup/internal/money"
)

// GroupBalances computes each participant's signed net position within one
// expense group, per currency. Positive means the participant is owed money.
//
// For every non-cancelled expense the payer is credited the total minus the
// contributions already settled against its splits, and every split
// participant (payer included) is debited their unsettled share. The
// resulting balances form a closed set: for each currency they sum to zero.
// A non-zero sum is a data-integrity fault and fails with an
// unbalanced-ledger error rather than being silently corrected.
func GroupBalances(expenses []*models.GroupExpense) (map[string]map[uuid.UUID]money.Money, error) {
	// Work in raw decimals keyed by currency, converting to Money at the end.
	net := make(map[string]map[uuid.UUID]decimal.Decimal)

	add := func(cur string, pid uuid.UUID, amt decimal.Decimal) {
		if net[cur] == nil {
			net[cur] = make(map[uuid.UUID]decimal.Decimal)
		}
		net[cur][pid] = net[cur][pid].Add(amt)
	}

	for _, e := range expenses {
		if e.Cancelled {
			continue
		}
		cur := e.TotalAmount.Currency()

		settled := decimal.Zero
		for i := range e.Splits {
			s := &e.Splits[i]
			if s.ShareAmount.Currency() != cur {
				return nil, errs.CurrencyMismatch(cur, s.ShareAmount.Currency())
			}
			settled = settled.Add(s.SettledAmount.Amount())
			// Participant owes their unsettled share.
			add(cur, s.ParticipantID, s.RemainingAmount().Amount().Neg())
		}
		// Payer advanced the total; settled contributions are already back.
		add(cur, e.PaidByID, e.TotalAmount.Amount().Sub(settled))
	}

	balances := make(map[string]map[uuid.UUID]money.Money, len(net))
	for cur, perParticipant := range net {
		sum := decimal.Zero
		balances[cur] = make(map[uuid.UUID]money.Money, len(perParticipant))
		for pid, amt := range perParticipant {
			sum = sum.Add(amt)
			m, err := money.New(amt, cur)
			if err != nil {
				return nil, err
			}
			balances[cur][pid] = m
		}
		if !sum.IsZero() {
			return nil, errs.UnbalancedLedger(
				"group balances in %s sum to %s, expected zero", cur, sum)
		}
	}
	return balances, nil
}
