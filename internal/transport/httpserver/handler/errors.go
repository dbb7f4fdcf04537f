package handler

import (
	"errors"
	"net/http"

	fxdomain "pocket-ledger-go/internal/domain/fx"
	ledgerdomain "pocket-ledger-go/internal/domain/ledger"
	userdomain "pocket-ledger-go/internal/domain/user"
)

// classifyError maps a service error to an HTTP status and machine code. A
// zero status means the error is unexpected.
func classifyError(err error) (int, string) {
	code := ledgerdomain.ErrorCode(err)
	switch {
	case errors.Is(err, ledgerdomain.ErrNotFound):
		return http.StatusNotFound, code
	case errors.Is(err, ledgerdomain.ErrInvalidArgument):
		return http.StatusBadRequest, code
	case errors.Is(err, ledgerdomain.ErrInsufficientFunds),
		errors.Is(err, ledgerdomain.ErrInsufficientCoverage),
		errors.Is(err, ledgerdomain.ErrAmountExceedsBalance):
		return http.StatusUnprocessableEntity, code
	case errors.Is(err, ledgerdomain.ErrIneligibleState),
		errors.Is(err, ledgerdomain.ErrConflict):
		return http.StatusConflict, code
	case errors.Is(err, fxdomain.ErrInvalidCurrency):
		return http.StatusBadRequest, "invalid_currency"
	case errors.Is(err, fxdomain.ErrRateUnavailable):
		return http.StatusBadGateway, "rate_unavailable"
	case errors.Is(err, fxdomain.ErrProviderDisabled):
		return http.StatusServiceUnavailable, "fx_disabled"
	case errors.Is(err, userdomain.ErrProfileNotFound):
		return http.StatusNotFound, "profile_not_found"
	}
	return 0, ""
}

func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error, args ...any) {
	log := h.requestLog(r)
	status, code := classifyError(err)
	if status == 0 {
		log.InternalError(op+": failed", err, args...)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	log.BusinessError(op+": rejected", err, append(args, "code", code)...)
	writeError(w, status, code, err.Error())
}
