package debts

import (
	"time"

	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/models"
	"github.com/tallyup/tallyup/internal/money"
)

type debtResponse struct {
	ID                  uuid.UUID            `json:"id"`
	ContactID           uuid.UUID            `json:"contact_id"`
	Direction           models.DebtDirection `json:"direction"`
	OriginalAmount      money.Money          `json:"original_amount"`
	SettledAmount       money.Money          `json:"settled_amount"`
	RemainingAmount     money.Money          `json:"remaining_amount"`
	Status              models.DebtStatus    `json:"status"`
	Reason              string               `json:"reason,omitempty"`
	DueDate             *time.Time           `json:"due_date,omitempty"`
	LinkedTransactionID *uuid.UUID           `json:"linked_transaction_id,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	Version             int64                `json:"version"`
}

func toDebtResponse(d *models.PeerDebt) debtResponse {
	return debtResponse{
		ID:                  d.ID,
		ContactID:           d.ContactID,
		Direction:           d.Direction,
		OriginalAmount:      d.OriginalAmount,
		SettledAmount:       d.SettledAmount,
		RemainingAmount:     d.RemainingAmount(),
		Status:              d.Status(),
		Reason:              d.Reason,
		DueDate:             d.DueDate,
		LinkedTransactionID: d.LinkedTransactionID,
		CreatedAt:           d.CreatedAt,
		Version:             d.Version,
	}
}

func toDebtResponseList(ds []*models.PeerDebt) []debtResponse {
	resp := make([]debtResponse, len(ds))
	for i, d := range ds {
		resp[i] = toDebtResponse(d)
	}
	return resp
}
