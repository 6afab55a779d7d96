// Package expenses exposes expense groups, shared expenses and group
// balances.
package expenses

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
	svc *service.ExpenseService
}

func NewHandler(svc *service.ExpenseService) *Handler {
	return &Handler{svc: svc}
}

// GroupRoutes registers the /expense-groups endpoints.
func (h *Handler) GroupRoutes(r chi.Router) {
	r.Post("/", h.createGroup)
	r.Get("/", h.listGroups)
	r.Get("/{id}", h.getGroup)
	r.Post("/{id}/members/{contactID}", h.addMember)
	r.Delete("/{id}/members/{contactID}", h.removeMember)
	r.Get("/{id}/balances", h.balances)
	r.Post("/{id}/expenses", h.recordExpense)
	r.Get("/{id}/expenses", h.listExpenses)
}

// ExpenseRoutes registers the /expenses endpoints.
func (h *Handler) ExpenseRoutes(r chi.Router) {
	r.Get("/{id}", h.getExpense)
	r.Post("/{id}/cancel", h.cancelExpense)
}

type createGroupRequest struct {
	Name      string      `json:"name"`
	MemberIDs []uuid.UUID `json:"member_contact_ids"`
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Err(w, errs.Validation("invalid request body: %v", err))
		return
	}

	group, err := h.svc.CreateGroup(r.Context(), middleware.GetOwnerID(r.Context()), req.Name, req.MemberIDs)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toGroupResponse(group))
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.ListGroups(r.Context(), middleware.GetOwnerID(r.Context()))
	if err != nil {
		respond.Err(w, err)
		return
	}
	resp := make([]groupResponse, len(groups))
	for i, g := range groups {
		resp[i] = toGroupResponse(g)
	}
	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Err(w, errs.Validation("invalid group id"))
		return
	}

	group, err := h.svc.GetGroup(r.Context(), middleware.GetOwnerID(r.Context()), id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toGroupResponse(group))
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	groupID, contactID, err := memberParams(r)
	if err != nil {
		respond.Err(w, err)
		return
	}

	group, err := h.svc.AddGroupMember(r.Context(), middleware.GetOwnerID(r.Context()), groupID, contactID)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toGroupResponse(group))
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	groupID, contactID, err := memberParams(r)
	if err != nil {
		respond.Err(w, err)
		return
	}

	group, err := h.svc.RemoveGroupMember(r.Context(), middleware.GetOwnerID(r.Context()), groupID, contactID)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toGroupResponse(group))
}

func (h *Handler) balances(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Err(w, errs.Validation("invalid group id"))
		return
	}

	balances, err := h.svc.GetGroupBalances(r.Context(), middleware.GetOwnerID(r.Context()), id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toBalancesResponse(balances))
}

type recordExpenseRequest struct {
	Description string                 `json:"description"`
	TotalAmount money.Money            `json:"total_amount"`
	PaidByID    uuid.UUID              `json:"paid_by_id"`
	Method      models.SplitMethod     `json:"split_method"`
	Shares      map[string]money.Money `json:"shares,omitempty"`
	Date        time.Time              `json:"date"`
}

func (h *Handler) recordExpense(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Err(w, errs.Validation("invalid group id"))
		return
	}
	var req recordExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Err(w, errs.Validation("invalid request body: %v", err))
		return
	}

	shares := make(map[uuid.UUID]money.Money, len(req.Shares))
	for raw, share := range req.Shares {
		pid, err := uuid.Parse(raw)
		if err != nil {
			respond.Err(w, errs.Validation("invalid participant id %q in shares", raw))
			return
		}
		shares[pid] = share
	}

	expense, err := h.svc.RecordGroupExpense(r.Context(), middleware.GetOwnerID(r.Context()), service.RecordGroupExpenseInput{
		GroupID:     groupID,
		Description: req.Description,
		TotalAmount: req.TotalAmount,
		PaidByID:    req.PaidByID,
		Method:      req.Method,
		Shares:      shares,
		Date:        req.Date,
	})
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toExpenseResponse(expense))
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Err(w, errs.Validation("invalid group id"))
		return
	}

	expenses, err := h.svc.ListGroupExpenses(r.Context(), middleware.GetOwnerID(r.Context()), id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	resp := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		resp[i] = toExpenseResponse(e)
	}
	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) getExpense(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Err(w, errs.Validation("invalid expense id"))
		return
	}

	expense, err := h.svc.GetExpense(r.Context(), middleware.GetOwnerID(r.Context()), id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (h *Handler) cancelExpense(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Err(w, errs.Validation("invalid expense id"))
		return
	}

	expense, err := h.svc.CancelExpense(r.Context(), middleware.GetOwnerID(r.Context()), id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toExpenseResponse(expense))
}

func memberParams(r *http.Request) (groupID, contactID uuid.UUID, err error) {
	groupID, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errs.Validation("invalid group id")
	}
	contactID, err = uuid.Parse(chi.URLParam(r, "contactID"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errs.Validation("invalid contact id")
	}
	return groupID, contactID, nil
}
