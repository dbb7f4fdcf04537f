package httpserver

import (
	"net/http"
	"time"

	"pocket-ledger-go/internal/config"
	"pocket-ledger-go/internal/transport/httpserver/handler"
	authmw "pocket-ledger-go/internal/transport/httpserver/middleware"
	"pocket-ledger-go/pkg/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, profiles authmw.ProfileSaver, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.CORSAllowedOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		auth := authmw.NewJWTAuth(cfg.Auth, profiles, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.AuthMe)

			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", handlers.ListAccounts)
				r.Post("/", handlers.CreateAccount)
				r.Get("/{id}", handlers.GetAccount)
				r.Patch("/{id}", handlers.UpdateAccount)
				r.Delete("/{id}", handlers.DeleteAccount)
				r.Post("/{id}/deposit", handlers.Deposit)
				r.Post("/{id}/withdraw", handlers.Withdraw)
				r.Post("/{id}/close", handlers.CloseAccount)
				r.Get("/{id}/transactions", handlers.ListAccountTransactions)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", handlers.ListCategories)
				r.Post("/", handlers.CreateCategory)
				r.Post("/system", handlers.ProvisionSystemCategories)
				r.Get("/{id}", handlers.GetCategory)
				r.Patch("/{id}", handlers.UpdateCategory)
				r.Post("/{id}/deactivate", handlers.DeactivateCategory)
				r.Post("/{id}/reactivate", handlers.ReactivateCategory)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", handlers.ListTransactions)
				r.Post("/", handlers.CreateTransaction)
				r.Post("/transfer", handlers.Transfer)
				r.Post("/yield", handlers.RegisterYield)
				r.Get("/{id}", handlers.GetTransaction)
				r.Patch("/{id}", handlers.UpdateTransaction)
				r.Delete("/{id}", handlers.DeleteTransaction)
				r.Post("/{id}/reverse", handlers.ReverseTransaction)
			})

			r.Route("/debts", func(r chi.Router) {
				r.Get("/", handlers.ListDebts)
				r.Post("/", handlers.CreateDebt)
				r.Get("/{id}", handlers.GetDebt)
				r.Patch("/{id}", handlers.UpdateDebt)
				r.Delete("/{id}", handlers.DeleteDebt)
				r.Post("/{id}/pay", handlers.PayDebt)
				r.Post("/{id}/charges", handlers.AddDebtCharge)
				r.Post("/{id}/purchases", handlers.PurchaseWithCard)
				r.Post("/{id}/close", handlers.CloseDebt)
				r.Post("/{id}/reopen", handlers.ReopenDebt)
				r.Get("/{id}/transactions", handlers.ListDebtTransactions)
			})

			r.Get("/fx/rate", handlers.ExchangeRate)
		})
	})

	return r
}
