// Package suggestions exposes the settlement-suggestion query.
package suggestions

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/calculator"
	"github.com/tallyup/tallyup/internal/http/respond"
	"github.com/tallyup/tallyup/internal/middleware"
	"github.com/tallyup/tallyup/internal/money"
	"github.com/tallyup/tallyup/internal/service"
)

type Handler struct {
	svc *service.SuggestionService
}

func NewHandler(svc *service.SuggestionService) *Handler {
	return &Handler{svc: svc}
}

// Routes registers the /suggestions endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
}

type suggestionResponse struct {
	Scope         calculator.Scope `json:"scope"`
	GroupID       *uuid.UUID       `json:"group_id,omitempty"`
	From          uuid.UUID        `json:"from"`
	To            uuid.UUID        `json:"to"`
	Amount        money.Money      `json:"amount"`
	Overdue       bool             `json:"overdue"`
	Priority      int64            `json:"priority"`
	Informational bool             `json:"informational"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.svc.GetSettlementSuggestions(r.Context(), middleware.GetOwnerID(r.Context()))
	if err != nil {
		respond.Err(w, err)
		return
	}

	resp := make([]suggestionResponse, len(suggestions))
	for i, s := range suggestions {
		resp[i] = suggestionResponse{
			Scope:         s.Scope,
			GroupID:       s.GroupID,
			From:          s.From,
			To:            s.To,
			Amount:        s.Amount,
			Overdue:       s.Overdue,
			Priority:      s.Priority,
			Informational: s.Informational,
		}
	}
	respond.JSON(w, http.StatusOK, resp)
}
