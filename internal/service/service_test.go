package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/tallyup/tallyup/internal/metrics"
	"github.com/tallyup/tallyup/internal/models"
	"github.com/tallyup/tallyup/internal/money"
	"github.com/tallyup/tallyup/internal/storage/sqlite"
)

// fixedClock pins time so due-date and created-at assertions are stable.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time { return c.t }

type fixture struct {
	store   *sqlite.SQLiteStore
	clock   *fixedClock
	metrics *metrics.Metrics
	logger  *slog.Logger

	owner *models.Owner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		store:   store,
		clock:   &fixedClock{t: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)},
		metrics: metrics.New(prometheus.NewRegistry()),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	f.owner = models.NewOwner("owner@example.com", "Owner", "hash", f.clock.Now())
	require.NoError(t, store.CreateOwner(context.Background(), f.owner))
	return f
}

func (f *fixture) addContact(t *testing.T, name string) *models.Contact {
	t.Helper()
	contact, err := models.NewContact(f.owner.ID, name, f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, f.store.CreateContact(context.Background(), contact))
	return contact
}

func (f *fixture) debts() *DebtService {
	return NewDebtService(f.store, f.clock, f.logger, f.metrics)
}

func (f *fixture) expenses() *ExpenseService {
	return NewExpenseService(f.store, f.clock, f.logger, f.metrics)
}

func (f *fixture) settlements() *SettlementService {
	return NewSettlementService(f.store, f.clock, f.logger, f.metrics)
}

func (f *fixture) suggestions() *SuggestionService {
	return NewSuggestionService(f.store, f.clock, f.logger, f.metrics)
}

func usd(t *testing.T, amount string) money.Money {
	t.Helper()
	return money.MustParse(amount, "USD")
}

func mustEUR(t *testing.T, amount string) money.Money {
	t.Helper()
	return money.MustParse(amount, "EUR")
}
