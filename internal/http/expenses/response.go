package expenses

import (
	"time"

	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/models"
	"github.com/tallyup/tallyup/internal/money"
)

type groupResponse struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	MemberIDs []uuid.UUID `json:"member_contact_ids"`
	CreatedAt time.Time   `json:"created_at"`
}

func toGroupResponse(g *models.ExpenseGroup) groupResponse {
	return groupResponse{
		ID:        g.ID,
		Name:      g.Name,
		MemberIDs: g.MemberContactIDs,
		CreatedAt: g.CreatedAt,
	}
}

type splitResponse struct {
	ID              uuid.UUID          `json:"id"`
	ParticipantID   uuid.UUID          `json:"participant_id"`
	ShareAmount     money.Money        `json:"share_amount"`
	SettledAmount   money.Money        `json:"settled_amount"`
	RemainingAmount money.Money        `json:"remaining_amount"`
	Status          models.SplitStatus `json:"status"`
	Version         int64              `json:"version"`
}

type expenseResponse struct {
	ID          uuid.UUID          `json:"id"`
	GroupID     uuid.UUID          `json:"group_id"`
	Description string             `json:"description"`
	TotalAmount money.Money        `json:"total_amount"`
	PaidByID    uuid.UUID          `json:"paid_by_id"`
	Date        time.Time          `json:"date"`
	Method      models.SplitMethod `json:"split_method"`
	Cancelled   bool               `json:"cancelled"`
	Splits      []splitResponse    `json:"splits"`
	CreatedAt   time.Time          `json:"created_at"`
}

func toExpenseResponse(e *models.GroupExpense) expenseResponse {
	splits := make([]splitResponse, len(e.Splits))
	for i := range e.Splits {
		s := &e.Splits[i]
		splits[i] = splitResponse{
			ID:              s.ID,
			ParticipantID:   s.ParticipantID,
			ShareAmount:     s.ShareAmount,
			SettledAmount:   s.SettledAmount,
			RemainingAmount: s.RemainingAmount(),
			Status:          s.Status(),
			Version:         s.Version,
		}
	}
	return expenseResponse{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		TotalAmount: e.TotalAmount,
		PaidByID:    e.PaidByID,
		Date:        e.Date,
		Method:      e.Method,
		Cancelled:   e.Cancelled,
		Splits:      splits,
		CreatedAt:   e.CreatedAt,
	}
}

// toBalancesResponse flattens currency -> participant -> balance into JSON
// string keys.
func toBalancesResponse(balances map[string]map[uuid.UUID]money.Money) map[string]map[string]money.Money {
	resp := make(map[string]map[string]money.Money, len(balances))
	for cur, perParticipant := range balances {
		resp[cur] = make(map[string]money.Money, len(perParticipant))
		for pid, bal := range perParticipant {
			resp[cur][pid.String()] = bal
		}
	}
	return resp
}
