// Package http assembles the API router from the per-resource handlers.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tallyup/tallyup/internal/auth"
	"github.com/tallyup/tallyup/internal/http/accounts"
	"github.com/tallyup/tallyup/internal/http/contacts"
	"github.com/tallyup/tallyup/internal/http/debts"
	"github.com/tallyup/tallyup/internal/http/expenses"
	"github.com/tallyup/tallyup/internal/http/settlements"
	"github.com/tallyup/tallyup/internal/http/suggestions"
	"github.com/tallyup/tallyup/internal/metrics"
	"github.com/tallyup/tallyup/internal/middleware"
)

// Deps bundles everything the router needs.
type Deps struct {
	Accounts    *accounts.Handler
	Contacts    *contacts.Handler
	Debts       *debts.Handler
	Expenses    *expenses.Handler
	Settlements *settlements.Handler
	Suggestions *suggestions.Handler

	JWTManager  *auth.JWTManager
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	MetricsHTTP http.Handler
	CORSOrigins []string
}

// New builds the API router. Everything under /api/v1 except registration and
// login requires a session token.
func New(d Deps) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.RequestLogger(d.Logger, d.Metrics))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", d.MetricsHTTP)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.AllowContentType("application/json"))

		r.Group(func(r chi.Router) {
			d.Accounts.Routes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(d.JWTManager))

			d.Accounts.AuthedRoutes(r)
			r.Route("/contacts", d.Contacts.Routes)
			r.Route("/contact-groups", d.Contacts.GroupRoutes)
			r.Route("/debts", d.Debts.Routes)
			r.Route("/expense-groups", d.Expenses.GroupRoutes)
			r.Route("/expenses", d.Expenses.ExpenseRoutes)
			r.Route("/settlements", d.Settlements.Routes)
			r.Route("/suggestions", d.Suggestions.Routes)
		})
	})

	return router
}
