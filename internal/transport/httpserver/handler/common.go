package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	userdomain "pocket-ledger-go/internal/domain/user"

	"github.com/shopspring/decimal"
)

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

type authMeResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type rateResponse struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Rate decimal.Decimal `json:"rate"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.ping == nil {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "unknown"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.ping(ctx); err != nil {
		h.requestLog(r).Warn("health: database ping failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Database: "unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "ok"})
}

func (h *Handlers) AuthMe(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	response := authMeResponse{ID: user.ID, Email: user.Email, Name: user.Name}
	if h.Users != nil {
		profile, err := h.Users.GetProfile(r.Context(), user.ID)
		switch {
		case err == nil:
			if response.Email == "" && profile.Email != nil {
				response.Email = *profile.Email
			}
			if response.Name == "" && profile.Name != nil {
				response.Name = *profile.Name
			}
			response.CreatedAt = &profile.CreatedAt
		case !errors.Is(err, userdomain.ErrProfileNotFound):
			h.writeServiceError(w, r, "auth.me", err, "user_id", user.ID)
			return
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) ExchangeRate(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentUser(w, r); !ok {
		return
	}

	query := r.URL.Query()
	from := strings.ToUpper(strings.TrimSpace(query.Get("from")))
	to := strings.ToUpper(strings.TrimSpace(query.Get("to")))
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "from and to are required")
		return
	}

	rate, err := h.FX.Rate(r.Context(), from, to)
	if err != nil {
		h.writeServiceError(w, r, "fx.rate", err, "from", from, "to", to)
		return
	}

	writeJSON(w, http.StatusOK, rateResponse{From: from, To: to, Rate: rate})
}
