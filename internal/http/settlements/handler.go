// Package settlements exposes the settlement ledger.
package settlements

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
	svc *service.SettlementService
}

func NewHandler(svc *service.SettlementService) *Handler {
	return &Handler{svc: svc}
}

// Routes registers the /settlements endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.record)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/{id}/reverse", h.reverse)
}

type targetRequest struct {
	Kind     models.TargetKind `json:"kind"`
	TargetID uuid.UUID         `json:"target_id"`
	Applied  money.Money       `json:"applied"`
}

type recordSettlementRequest struct {
	FromID  uuid.UUID               `json:"from_id"`
	ToID    uuid.UUID               `json:"to_id"`
	Amount  money.Money             `json:"amount"`
	Targets []targetRequest         `json:"targets"`
	Method  models.SettlementMethod `json:"method"`
	Date    time.Time               `json:"date"`
	Notes   string                  `json:"notes,omitempty"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var req recordSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Err(w, errs.Validation("invalid request body: %v", err))
		return
	}

	targets := make([]models.SettlementTarget, len(req.Targets))
	for i, t := range req.Targets {
		targets[i] = models.SettlementTarget{
			Kind:     t.Kind,
			TargetID: t.TargetID,
			Applied:  t.Applied,
		}
	}

	settlement, err := h.svc.RecordSettlement(r.Context(), middleware.GetOwnerID(r.Context()), service.RecordSettlementInput{
		FromID:  req.FromID,
		ToID:    req.ToID,
		Amount:  req.Amount,
		Targets: targets,
		Method:  req.Method,
		Date:    req.Date,
		Notes:   req.Notes,
	})
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toSettlementResponse(settlement))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())

	var (
		settlements []*models.Settlement
		err         error
	)
	if s := r.URL.Query().Get("contact_id"); s != "" {
		contactID, parseErr := uuid.Parse(s)
		if parseErr != nil {
			respond.Err(w, errs.Validation("invalid contact_id"))
			return
		}
		settlements, err = h.svc.ListSettlementsByContact(r.Context(), ownerID, contactID)
	} else {
		settlements, err = h.svc.ListSettlements(r.Context(), ownerID)
	}
	if err != nil {
		respond.Err(w, err)
		return
	}

	resp := make([]settlementResponse, len(settlements))
	for i, st := range settlements {
		resp[i] = toSettlementResponse(st)
	}
	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Err(w, errs.Validation("invalid settlement id"))
		return
	}

	settlement, err := h.svc.GetSettlement(r.Context(), middleware.GetOwnerID(r.Context()), id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toSettlementResponse(settlement))
}

type reverseRequest struct {
	Notes string `json:"notes,omitempty"`
}

func (h *Handler) reverse(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Err(w, errs.Validation("invalid settlement id"))
		return
	}
	var req reverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Err(w, errs.Validation("invalid request body: %v", err))
		return
	}

	reversal, err := h.svc.ReverseSettlement(r.Context(), middleware.GetOwnerID(r.Context()), id, req.Notes)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toSettlementResponse(reversal))
}

type targetResponse struct {
	Kind     models.TargetKind `json:"kind"`
	TargetID uuid.UUID         `json:"target_id"`
	Applied  money.Money       `json:"applied"`
}

type settlementResponse struct {
	ID           uuid.UUID               `json:"id"`
	FromID       uuid.UUID               `json:"from_id"`
	ToID         uuid.UUID               `json:"to_id"`
	Amount       money.Money             `json:"amount"`
	Targets      []targetResponse        `json:"targets"`
	Method       models.SettlementMethod `json:"method"`
	Date         time.Time               `json:"date"`
	Notes        string                  `json:"notes,omitempty"`
	ReversalOfID *uuid.UUID              `json:"reversal_of_id,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
}

func toSettlementResponse(s *models.Settlement) settlementResponse {
	targets := make([]targetResponse, len(s.Targets))
	for i, t := range s.Targets {
		targets[i] = targetResponse{Kind: t.Kind, TargetID: t.TargetID, Applied: t.Applied}
	}
	return settlementResponse{
		ID:           s.ID,
		FromID:       s.FromID,
		ToID:         s.ToID,
		Amount:       s.Amount,
		Targets:      targets,
		Method:       s.Method,
		Date:         s.Date,
		Notes:        s.Notes,
		ReversalOfID: s.ReversalOfID,
		CreatedAt:    s.CreatedAt,
	}
}
