// Package debts exposes the peer-debt ledger.
package debts

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/errs"
	"github.com/tallyup/tallyup/internal/http/respond"
	"github.com/tallyup/tallyup/internal/middleware"
	"github.com/tallyup/tallyup/internal/models"
	"github.com/tallyup/tallyup/internal/money"
	"github.com/tallyup/tallyup/internal/service"
)

type Handler struct {
	svc *service.DebtService
}

func NewHandler(svc *service.DebtService) *Handler {
	return &Handler{svc: svc}
}

// Routes registers the /debts endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.record)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/{id}/cancel", h.cancel)
}

type recordDebtRequest struct {
	ContactID           uuid.UUID            `json:"contact_id"`
	Direction           models.DebtDirection `json:"direction"`
	Amount              money.Money          `json:"amount"`
	Reason              string               `json:"reason"`
	DueDate             *time.Time           `json:"due_date,omitempty"`
	LinkedTransactionID *uuid.UUID           `json:"linked_transaction_id,omitempty"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var req recordDebtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Err(w, errs.Validation("invalid request body: %v", err))
		return
	}

	debt, err := h.svc.RecordPeerDebt(r.Context(), middleware.GetOwnerID(r.Context()), service.RecordPeerDebtInput{
		ContactID:           req.ContactID,
		Direction:           req.Direction,
		Amount:              req.Amount,
		Reason:              req.Reason,
		DueDate:             req.DueDate,
		LinkedTransactionID: req.LinkedTransactionID,
	})
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDebtResponse(debt))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())

	var (
		debts []*models.PeerDebt
		err   error
	)
	if s := r.URL.Query().Get("contact_id"); s != "" {
		contactID, parseErr := uuid.Parse(s)
		if parseErr != nil {
			respond.Err(w, errs.Validation("invalid contact_id"))
			return
		}
		debts, err = h.svc.ListDebtsByContact(r.Context(), ownerID, contactID)
	} else if r.URL.Query().Get("active") == "true" {
		debts, err = h.svc.ListActiveDebts(r.Context(), ownerID)
	} else {
		debts, err = h.svc.ListDebts(r.Context(), ownerID)
	}
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDebtResponseList(debts))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Err(w, errs.Validation("invalid debt id"))
		return
	}

	debt, err := h.svc.GetDebt(r.Context(), middleware.GetOwnerID(r.Context()), id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDebtResponse(debt))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Err(w, errs.Validation("invalid debt id"))
		return
	}

	debt, err := h.svc.CancelPeerDebt(r.Context(), middleware.GetOwnerID(r.Context()), id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDebtResponse(debt))
}
