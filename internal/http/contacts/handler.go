// Package contacts exposes the contact registry and contact groups.
package contacts

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
	svc   *service.ContactService
	debts *service.DebtService
}

func NewHandler(svc *service.ContactService, debts *service.DebtService) *Handler {
	return &Handler{svc: svc, debts: debts}
}

// Routes registers the /contacts endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.rename)
	r.Post("/{id}/archive", h.archive)
	r.Post("/{id}/restore", h.restore)
	r.Get("/{id}/balance", h.balance)
}

// GroupRoutes registers the /contact-groups endpoints.
func (h *Handler) GroupRoutes(r chi.Router) {
	r.Post("/", h.createGroup)
	r.Get("/", h.listGroups)
	r.Get("/{id}", h.getGroup)
	r.Post("/{id}/members/{contactID}", h.addGroupMember)
	r.Delete("/{id}/members/{contactID}", h.removeGroupMember)
}

type contactResponse struct {
	ID           uuid.UUID  `json:"id"`
	DisplayName  string     `json:"display_name"`
	LinkedUserID *uuid.UUID `json:"linked_user_id,omitempty"`
	Archived     bool       `json:"archived"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toContactResponse(c *models.Contact) contactResponse {
	return contactResponse{
		ID:           c.ID,
		DisplayName:  c.DisplayName,
		LinkedUserID: c.LinkedUserID,
		Archived:     c.Archived,
		CreatedAt:    c.CreatedAt,
	}
}

type groupResponse struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	MemberIDs []uuid.UUID `json:"member_contact_ids"`
	CreatedAt time.Time   `json:"created_at"`
}

func toGroupResponse(g *models.ContactGroup) groupResponse {
	return groupResponse{
		ID:        g.ID,
		Name:      g.Name,
		MemberIDs: g.MemberContactIDs,
		CreatedAt: g.CreatedAt,
	}
}

type createContactRequest struct {
	DisplayName string `json:"display_name"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Err(w, errs.Validation("invalid request body: %v", err))
		return
	}

	contact, err := h.svc.CreateContact(r.Context(), middleware.GetOwnerID(r.Context()), req.DisplayName)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toContactResponse(contact))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.svc.ListContacts(r.Context(), middleware.GetOwnerID(r.Context()))
	if err != nil {
		respond.Err(w, err)
		return
	}
	resp := make([]contactResponse, len(contacts))
	for i, c := range contacts {
		resp[i] = toContactResponse(c)
	}
	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Err(w, errs.Validation("invalid contact id"))
		return
	}

	contact, err := h.svc.GetContact(r.Context(), middleware.GetOwnerID(r.Context()), id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toContactResponse(contact))
}

type renameContactRequest struct {
	DisplayName string `json:"display_name"`
}

func (h *Handler) rename(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Err(w, errs.Validation("invalid contact id"))
		return
	}
	var req renameContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Err(w, errs.Validation("invalid request body: %v", err))
		return
	}

	contact, err := h.svc.RenameContact(r.Context(), middleware.GetOwnerID(r.Context()), id, req.DisplayName)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toContactResponse(contact))
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Err(w, errs.Validation("invalid contact id"))
		return
	}

	contact, err := h.svc.ArchiveContact(r.Context(), middleware.GetOwnerID(r.Context()), id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toContactResponse(contact))
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Err(w, errs.Validation("invalid contact id"))
		return
	}

	contact, err := h.svc.RestoreContact(r.Context(), middleware.GetOwnerID(r.Context()), id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toContactResponse(contact))
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Err(w, errs.Validation("invalid contact id"))
		return
	}

	balances, err := h.debts.GetContactBalance(r.Context(), middleware.GetOwnerID(r.Context()), id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]map[string]money.Money{"balances": balances})
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

	group, err := h.svc.CreateContactGroup(r.Context(), middleware.GetOwnerID(r.Context()), req.Name, req.MemberIDs)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toGroupResponse(group))
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.ListContactGroups(r.Context(), middleware.GetOwnerID(r.Context()))
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

	group, err := h.svc.GetContactGroup(r.Context(), middleware.GetOwnerID(r.Context()), id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toGroupResponse(group))
}

func (h *Handler) addGroupMember(w http.ResponseWriter, r *http.Request) {
	groupID, contactID, err := groupMemberParams(r)
	if err != nil {
		respond.Err(w, err)
		return
	}

	group, err := h.svc.AddContactGroupMember(r.Context(), middleware.GetOwnerID(r.Context()), groupID, contactID)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toGroupResponse(group))
}

func (h *Handler) removeGroupMember(w http.ResponseWriter, r *http.Request) {
	groupID, contactID, err := groupMemberParams(r)
	if err != nil {
		respond.Err(w, err)
		return
	}

	group, err := h.svc.RemoveContactGroupMember(r.Context(), middleware.GetOwnerID(r.Context()), groupID, contactID)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toGroupResponse(group))
}

func groupMemberParams(r *http.Request) (groupID, contactID uuid.UUID, err error) {
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
