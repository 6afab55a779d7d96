package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/calculator"
	"github.com/tallyup/tallyup/internal/metrics"
	"github.com/tallyup/tallyup/internal/models"
	"github.com/tallyup/tallyup/internal/money"
	"github.com/tallyup/tallyup/internal/storage"
)

// SuggestionService is the read-facing façade over the calculators: it merges
// per-contact debt balances and per-group positions into settlement plans and
// annotates them for display. It never mutates the ledger.
type SuggestionService struct {
	store   storage.Store
	clock   storage.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewSuggestionService creates a new SuggestionService.
func NewSuggestionService(store storage.Store, clock storage.Clock, logger *slog.Logger, m *metrics.Metrics) *SuggestionService {
	return &SuggestionService{store: store, clock: clock, logger: logger, metrics: m}
}

// GetSettlementSuggestions computes the suggested transfers for the owner,
// per currency and per scope: one direct scope netting all peer debts across
// contacts, plus one scope per expense group. Suggestions are sorted by
// priority, overdue first, then larger amounts.
func (s *SuggestionService) GetSettlementSuggestions(ctx context.Context, ownerID uuid.UUID) ([]calculator.Suggestion, error) {
	now := s.clock.Now()

	direct, err := s.directSuggestions(ctx, ownerID, now)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListExpenseGroups(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	suggestions := direct
	for _, g := range groups {
		groupSuggestions, err := s.groupSuggestions(ctx, ownerID, g.ID)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, groupSuggestions...)
	}

	// Each scope arrives pre-sorted; the merged list must hold the same order
	// across scopes.
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Priority > suggestions[j].Priority
	})

	s.metrics.SuggestionRuns.Inc()
	s.logger.Info("settlement suggestions computed",
		"owner_id", ownerID,
		"count", len(suggestions),
	)
	return suggestions, nil
}

// directSuggestions nets all peer debts across contacts into one balance map
// per currency and simplifies each. The owner participates with the opposite
// of the summed contact balances, keeping each map zero-sum.
func (s *SuggestionService) directSuggestions(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]calculator.Suggestion, error) {
	contacts, err := s.store.ListContacts(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	// Per currency: participant -> signed balance (positive = is owed).
	balances := make(map[string]map[uuid.UUID]money.Money)
	overdue := make(map[string]map[uuid.UUID]bool)

	for _, c := range contacts {
		debts, err := s.store.ListDebtsByContact(ctx, ownerID, c.ID)
		if err != nil {
			return nil, err
		}
		if len(debts) == 0 {
			continue
		}
		net, err := calculator.NetBalances(debts)
		if err != nil {
			return nil, err
		}
		overdueCurrencies := calculator.OverdueCurrencies(debts, now)

		for cur, bal := range net {
			if bal.IsZero() {
				continue
			}
			if balances[cur] == nil {
				zero, err := money.Zero(cur)
				if err != nil {
					return nil, err
				}
				balances[cur] = map[uuid.UUID]money.Money{models.OwnerParticipant: zero}
				overdue[cur] = make(map[uuid.UUID]bool)
			}
			// Positive net means the contact owes the owner, so the contact
			// carries a negative balance in the netting map.
			balances[cur][c.ID] = bal.Neg()
			ownerBal, err := balances[cur][models.OwnerParticipant].Add(bal)
			if err != nil {
				return nil, err
			}
			balances[cur][models.OwnerParticipant] = ownerBal
			if overdueCurrencies[cur] {
				overdue[cur][c.ID] = true
			}
		}
	}

	var suggestions []calculator.Suggestion
	for cur := range balances {
		transfers, err := calculator.Simplify(balances[cur])
		if err != nil {
			s.logger.Error("direct netting failed", "owner_id", ownerID, "currency", cur, "error", err)
			return nil, err
		}
		suggestions = append(suggestions,
			calculator.BuildSuggestions(calculator.ScopeDirect, nil, transfers, overdue[cur])...)
	}
	return suggestions, nil
}

// groupSuggestions simplifies one expense group's balances per currency.
// Group scopes carry no due dates, so nothing is marked overdue.
func (s *SuggestionService) groupSuggestions(ctx context.Context, ownerID, groupID uuid.UUID) ([]calculator.Suggestion, error) {
	expenses, err := s.store.ListExpensesByGroup(ctx, ownerID, groupID)
	if err != nil {
		return nil, err
	}
	balances, err := calculator.GroupBalances(expenses)
	if err != nil {
		s.logger.Error("group balance computation failed", "owner_id", ownerID, "group_id", groupID, "error", err)
		return nil, err
	}

	gid := groupID
	var suggestions []calculator.Suggestion
	for cur := range balances {
		transfers, err := calculator.Simplify(balances[cur])
		if err != nil {
			s.logger.Error("group netting failed", "owner_id", ownerID, "group_id", groupID, "currency", cur, "error", err)
			return nil, err
		}
		suggestions = append(suggestions,
			calculator.BuildSuggestions(calculator.ScopeGroup, &gid, transfers, nil)...)
	}
	return suggestions, nil
}
