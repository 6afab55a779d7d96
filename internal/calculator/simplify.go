package calculator

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyup/tallyup/internal/errs"
	"github.com/tallyup/tallyup/internal/money"
)

// Transfer is one suggested payment: From pays To the given amount.
type Transfer struct {
	From   uuid.UUID
	To     uuid.UUID
	Amount money.Money
}

type party struct {
	id  uuid.UUID
	bal decimal.Decimal // always positive magnitude
}

// Simplify turns a set of signed net balances (positive = is owed, negative
// = owes) into a settlement plan that drives every balance to exactly zero.
// All balances must share one currency and sum to zero; a non-zero sum is a
// data-integrity fault reported as an unbalanced-ledger error.
//
// The plan is produced by greedy largest-to-largest matching: repeatedly pay
// the largest creditor from the largest debtor. This is a documented
// heuristic, not an exact minimizer (exact minimum-transaction netting is
// NP-hard), but it emits at most N-1 transfers for N non-zero participants
// and is fully deterministic: ties are broken by ascending participant id.
//
// Balances smaller than one minor currency unit are treated as zero up
// front; sub-minor-unit residues that appear during matching are coalesced
// into the transfer that produced them rather than dropped.
func Simplify(balances map[uuid.UUID]money.Money) ([]Transfer, error) {
	if len(balances) == 0 {
		return nil, nil
	}

	var currency string
	sum := decimal.Zero
	for _, b := range balances {
		if currency == "" {
			currency = b.Currency()
		} else if b.Currency() != currency {
			return nil, errs.CurrencyMismatch(currency, b.Currency())
		}
		sum = sum.Add(b.Amount())
	}
	epsilon := minorUnit(currency)
	if sum.Abs().Cmp(epsilon) >= 0 {
		return nil, errs.UnbalancedLedger(
			"net balances in %s sum to %s, expected zero", currency, sum)
	}

	var creditors, debtors []party
	for id, b := range balances {
		amt := b.Amount()
		if amt.Abs().Cmp(epsilon) < 0 {
			continue
		}
		if amt.IsPositive() {
			creditors = append(creditors, party{id: id, bal: amt})
		} else {
			debtors = append(debtors, party{id: id, bal: amt.Neg()})
		}
	}

	var transfers []Transfer
	for len(creditors) > 0 && len(debtors) > 0 {
		sortParties(creditors)
		sortParties(debtors)
		c, d := &creditors[0], &debtors[0]

		amount := decimal.Min(c.bal, d.bal)
		c.bal = c.bal.Sub(amount)
		d.bal = d.bal.Sub(amount)

		// Coalesce sub-minor-unit residue into this transfer instead of
		// leaving an unpayable crumb behind.
		if c.bal.IsPositive() && c.bal.Cmp(epsilon) < 0 {
			amount = amount.Add(c.bal)
			c.bal = decimal.Zero
		}
		if d.bal.IsPositive() && d.bal.Cmp(epsilon) < 0 {
			amount = amount.Add(d.bal)
			d.bal = decimal.Zero
		}

		m, err := money.New(amount, currency)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, Transfer{From: d.id, To: c.id, Amount: m})

		creditors = dropSettled(creditors)
		debtors = dropSettled(debtors)
	}
	return transfers, nil
}

// sortParties orders by descending balance, ties broken by ascending id so
// plans are reproducible.
func sortParties(ps []party) {
	sort.Slice(ps, func(i, j int) bool {
		if cmp := ps[i].bal.Cmp(ps[j].bal); cmp != 0 {
			return cmp > 0
		}
		return bytes.Compare(ps[i].id[:], ps[j].id[:]) < 0
	})
}

func dropSettled(ps []party) []party {
	out := ps[:0]
	for _, p := range ps {
		if p.bal.IsPositive() {
			out = append(out, p)
		}
	}
	return out
}

func minorUnit(currency string) decimal.Decimal {
	one, err := money.FromMinorUnits(1, currency)
	if err != nil {
		return decimal.New(1, -2)
	}
	return one.Amount()
}
