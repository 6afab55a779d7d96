package calculator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyup/tallyup/internal/errs"
	"github.com/tallyup/tallyup/internal/money"
)

func balanceMap(t *testing.T, currency string, amounts map[uuid.UUID]string) map[uuid.UUID]money.Money {
	t.Helper()
	balances := make(map[uuid.UUID]money.Money, len(amounts))
	for id, amt := range amounts {
		balances[id] = money.MustParse(amt, currency)
	}
	return balances
}

// applyTransfers plays a plan back against the balances and returns the
// residual position per participant.
func applyTransfers(balances map[uuid.UUID]money.Money, transfers []Transfer) map[uuid.UUID]decimal.Decimal {
	residual := make(map[uuid.UUID]decimal.Decimal, len(balances))
	for id, b := range balances {
		residual[id] = b.Amount()
	}
	for _, tr := range transfers {
		residual[tr.From] = residual[tr.From].Add(tr.Amount.Amount())
		residual[tr.To] = residual[tr.To].Sub(tr.Amount.Amount())
	}
	return residual
}

func TestSimplify(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	t.Run("one creditor two debtors", func(t *testing.T) {
		balances := balanceMap(t, "USD", map[uuid.UUID]string{
			a: "200.00",
			b: "-100.00",
			c: "-100.00",
		})
		transfers, err := Simplify(balances)
		if err != nil {
			t.Fatal(err)
		}
		if len(transfers) != 2 {
			t.Fatalf("got %d transfers, want 2", len(transfers))
		}
		for _, tr := range transfers {
			if tr.To != a {
				t.Errorf("transfer to %s, want the sole creditor", tr.To)
			}
			if !tr.Amount.Equal(money.MustParse("100.00", "USD")) {
				t.Errorf("transfer amount = %s, want 100.00", tr.Amount)
			}
		}
	})

	t.Run("plan zeroes every balance", func(t *testing.T) {
		d, e := uuid.New(), uuid.New()
		balances := balanceMap(t, "USD", map[uuid.UUID]string{
			a: "70.00",
			b: "30.01",
			c: "-25.00",
			d: "-50.00",
			e: "-25.01",
		})
		transfers, err := Simplify(balances)
		if err != nil {
			t.Fatal(err)
		}
		for id, residual := range applyTransfers(balances, transfers) {
			if !residual.IsZero() {
				t.Errorf("participant %s left with %s", id, residual)
			}
		}
	})

	t.Run("at most n-1 transfers", func(t *testing.T) {
		balances := map[uuid.UUID]money.Money{}
		// 5 debtors of 10 each against one creditor of 50: 6 non-zero
		// participants, so the plan must fit in 5 transfers.
		creditor := uuid.New()
		balances[creditor] = money.MustParse("50.00", "USD")
		for i := 0; i < 5; i++ {
			balances[uuid.New()] = money.MustParse("-10.00", "USD")
		}
		transfers, err := Simplify(balances)
		if err != nil {
			t.Fatal(err)
		}
		if len(transfers) > len(balances)-1 {
			t.Errorf("got %d transfers for %d participants", len(transfers), len(balances))
		}
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		balances := balanceMap(t, "USD", map[uuid.UUID]string{
			a:          "50.00",
			b:          "50.00",
			c:          "-50.00",
			uuid.New(): "-50.00",
		})
		first, err := Simplify(balances)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 10; i++ {
			again, err := Simplify(balances)
			if err != nil {
				t.Fatal(err)
			}
			if len(again) != len(first) {
				t.Fatalf("run %d produced %d transfers, first produced %d", i, len(again), len(first))
			}
			for j := range again {
				if again[j].From != first[j].From || again[j].To != first[j].To || !again[j].Amount.Equal(first[j].Amount) {
					t.Fatalf("run %d transfer %d differs from first run", i, j)
				}
			}
		}
	})

	t.Run("non-zero sum fails", func(t *testing.T) {
		balances := balanceMap(t, "USD", map[uuid.UUID]string{
			a: "100.00",
			b: "-90.00",
		})
		_, err := Simplify(balances)
		if errs.KindOf(err) != errs.KindUnbalancedLedger {
			t.Errorf("got %v, want unbalanced-ledger error", err)
		}
	})

	t.Run("mixed currencies fail", func(t *testing.T) {
		balances := map[uuid.UUID]money.Money{
			a: money.MustParse("10.00", "USD"),
			b: money.MustParse("-10.00", "EUR"),
		}
		_, err := Simplify(balances)
		if errs.KindOf(err) != errs.KindCurrencyMismatch {
			t.Errorf("got %v, want currency-mismatch error", err)
		}
	})

	t.Run("already settled", func(t *testing.T) {
		balances := balanceMap(t, "USD", map[uuid.UUID]string{
			a: "0.00",
			b: "0.00",
		})
		transfers, err := Simplify(balances)
		if err != nil {
			t.Fatal(err)
		}
		if len(transfers) != 0 {
			t.Errorf("got %d transfers for settled balances, want none", len(transfers))
		}
	})

	t.Run("empty input", func(t *testing.T) {
		transfers, err := Simplify(nil)
		if err != nil {
			t.Fatal(err)
		}
		if transfers != nil {
			t.Errorf("got %v, want nil", transfers)
		}
	})

	t.Run("zero-decimal currency", func(t *testing.T) {
		balances := balanceMap(t, "JPY", map[uuid.UUID]string{
			a: "301",
			b: "-150",
			c: "-151",
		})
		transfers, err := Simplify(balances)
		if err != nil {
			t.Fatal(err)
		}
		if len(transfers) != 2 {
			t.Fatalf("got %d transfers, want 2", len(transfers))
		}
		for id, residual := range applyTransfers(balances, transfers) {
			if !residual.IsZero() {
				t.Errorf("participant %s left with %s", id, residual)
			}
		}
	})
}
