// Package accounts exposes registration, login and the current-owner lookup.
package accounts

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
	"github.com/tallyup/tallyup/internal/service"
)

type Handler struct {
	svc *service.AuthService
}

func NewHandler(svc *service.AuthService) *Handler {
	return &Handler{svc: svc}
}

// Routes registers the public endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
}

// AuthedRoutes registers endpoints that require a session.
func (h *Handler) AuthedRoutes(r chi.Router) {
	r.Get("/me", h.me)
}

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Owner ownerResponse `json:"owner"`
	Token string        `json:"token"`
}

type ownerResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func toOwnerResponse(o *models.Owner) ownerResponse {
	return ownerResponse{
		ID:          o.ID,
		Email:       o.Email,
		DisplayName: o.DisplayName,
		CreatedAt:   o.CreatedAt,
	}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Err(w, errs.Validation("invalid request body: %v", err))
		return
	}

	owner, token, err := h.svc.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, sessionResponse{Owner: toOwnerResponse(owner), Token: token})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Err(w, errs.Validation("invalid request body: %v", err))
		return
	}

	owner, token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, sessionResponse{Owner: toOwnerResponse(owner), Token: token})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	owner, err := h.svc.GetCurrentOwner(r.Context(), ownerID)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toOwnerResponse(owner))
}
