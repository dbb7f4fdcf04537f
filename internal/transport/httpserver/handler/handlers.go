package handler

import (
	"context"
	"net/http"

	fxdomain "pocket-ledger-go/internal/domain/fx"
	ledgerdomain "pocket-ledger-go/internal/domain/ledger"
	userdomain "pocket-ledger-go/internal/domain/user"
	"pocket-ledger-go/internal/transport/httpserver/middleware"
	"pocket-ledger-go/pkg/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Pinger reports whether the storage backend is reachable.
type Pinger func(ctx context.Context) error

type Handlers struct {
	Ledger *ledgerdomain.Service
	Users  *userdomain.Service
	FX     *fxdomain.Service
	ping   Pinger
	log    logger.Logger
}

func New(ledger *ledgerdomain.Service, users *userdomain.Service, fx *fxdomain.Service, ping Pinger, log logger.Logger) *Handlers {
	return &Handlers{
		Ledger: ledger,
		Users:  users,
		FX:     fx,
		ping:   ping,
		log:    log,
	}
}

func (h *Handlers) requestLog(r *http.Request) logger.Logger {
	return logger.WithRequestID(h.log, chimw.GetReqID(r.Context()))
}

func (h *Handlers) currentUser(w http.ResponseWriter, r *http.Request) (middleware.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return middleware.User{}, false
	}
	return user, true
}
