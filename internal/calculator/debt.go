// Package calculator holds the pure computation over ledger state: pairwise
// net balances, group balances, debt simplification and settlement
// suggestions. Nothing in here mutates state or touches storage; every
// function is safe to call concurrently.
package calculator

import (
	"time"

	"github.com/tallyup/tallyup/internal/models"
	"github.com/tallyup/tallyup/internal/money"
)

// NetBalances computes the signed balance between the owner and one contact,
// per currency, from the contact's peer debts. Positive means the contact
// owes the owner. Cancelled debts are excluded; settlements are already
// reflected in each debt's settled amount.
//
// Debts in different currencies are reported as separate per-currency
// balances and never summed.
func NetBalances(debts []*models.PeerDebt) (map[string]money.Money, error) {
	balances := make(map[string]money.Money)
	for _, d := range debts {
		if d.Cancelled {
			continue
		}
		cur := d.OriginalAmount.Currency()
		bal, ok := balances[cur]
		if !ok {
			zero, err := money.Zero(cur)
			if err != nil {
				return nil, err
			}
			bal = zero
		}
		bal, err := bal.Add(d.SignedRemaining())
		if err != nil {
			return nil, err
		}
		balances[cur] = bal
	}
	return balances, nil
}

// OverdueCurrencies returns the set of currencies in which at least one
// non-cancelled debt is past its due date with a remaining balance.
func OverdueCurrencies(debts []*models.PeerDebt, now time.Time) map[string]bool {
	overdue := make(map[string]bool)
	for _, d := range debts {
		if d.Overdue(now) {
			overdue[d.OriginalAmount.Currency()] = true
		}
	}
	return overdue
}
