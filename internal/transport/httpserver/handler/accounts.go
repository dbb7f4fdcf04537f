package handler

import (
	"context"
	"net/http"
	"time"

	ledgerdomain "pocket-ledger-go/internal/domain/ledger"

	"github.com/shopspring/decimal"
)

type createAccountRequest struct {
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Currency       string          `json:"currency"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

type updateAccountRequest struct {
	Name *string `json:"name"`
	Type *string `json:"type"`
}

type accountMovementRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Date        *string         `json:"date"`
	Description string          `json:"description"`
}

func (h *Handlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	accounts, err := h.Ledger.ListAccounts(r.Context(), user.ID)
	if err != nil {
		h.writeServiceError(w, r, "accounts.list", err, "user_id", user.ID)
		return
	}

	response := make([]accountResponse, 0, len(accounts))
	for _, account := range accounts {
		response = append(response, toAccountResponse(account))
	}
	writeJSON(w, http.StatusOK, listResponse[accountResponse]{Items: response})
}

func (h *Handlers) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	created, err := h.Ledger.CreateAccount(r.Context(), ledgerdomain.CreateAccountInput{
		UserID:         user.ID,
		Name:           req.Name,
		Type:           ledgerdomain.AccountType(req.Type),
		Currency:       req.Currency,
		OpeningBalance: req.OpeningBalance,
	})
	if err != nil {
		h.writeServiceError(w, r, "accounts.create", err, "user_id", user.ID)
		return
	}

	writeJSON(w, http.StatusCreated, toAccountResponse(*created))
}

func (h *Handlers) GetAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	accountID, ok := pathID(w, r, ledgerdomain.ErrAccountNotFound)
	if !ok {
		return
	}

	account, err := h.Ledger.GetAccount(r.Context(), user.ID, accountID)
	if err != nil {
		h.writeServiceError(w, r, "accounts.get", err, "user_id", user.ID, "account_id", accountID)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(*account))
}

func (h *Handlers) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	accountID, ok := pathID(w, r, ledgerdomain.ErrAccountNotFound)
	if !ok {
		return
	}

	input := ledgerdomain.UpdateAccountInput{UserID: user.ID, AccountID: accountID, Name: req.Name}
	if req.Type != nil {
		accountType := ledgerdomain.AccountType(*req.Type)
		input.Type = &accountType
	}

	updated, err := h.Ledger.UpdateAccount(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, r, "accounts.update", err, "user_id", user.ID, "account_id", accountID)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(*updated))
}

func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	accountID, ok := pathID(w, r, ledgerdomain.ErrAccountNotFound)
	if !ok {
		return
	}

	if err := h.Ledger.DeleteAccount(r.Context(), user.ID, accountID); err != nil {
		h.writeServiceError(w, r, "accounts.delete", err, "user_id", user.ID, "account_id", accountID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Deposit(w http.ResponseWriter, r *http.Request) {
	h.moveMoney(w, r, "accounts.deposit", h.Ledger.Deposit)
}

func (h *Handlers) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.moveMoney(w, r, "accounts.withdraw", h.Ledger.Withdraw)
}

func (h *Handlers) moveMoney(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	move func(ctx context.Context, input ledgerdomain.AccountMovementInput) (*ledgerdomain.Transaction, error),
) {
	var req accountMovementRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	accountID, ok := pathID(w, r, ledgerdomain.ErrAccountNotFound)
	if !ok {
		return
	}

	date, ok := optionalBodyDate(w, req.Date)
	if !ok {
		return
	}

	created, err := move(r.Context(), ledgerdomain.AccountMovementInput{
		UserID:      user.ID,
		AccountID:   accountID,
		Amount:      req.Amount,
		Date:        date,
		Description: req.Description,
	})
	if err != nil {
		h.writeServiceError(w, r, op, err, "user_id", user.ID, "account_id", accountID)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(*created))
}

func (h *Handlers) CloseAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	accountID, ok := pathID(w, r, ledgerdomain.ErrAccountNotFound)
	if !ok {
		return
	}

	closed, err := h.Ledger.CloseAccount(r.Context(), user.ID, accountID)
	if err != nil {
		h.writeServiceError(w, r, "accounts.close", err, "user_id", user.ID, "account_id", accountID)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(*closed))
}

func (h *Handlers) ListAccountTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	accountID, ok := pathID(w, r, ledgerdomain.ErrAccountNotFound)
	if !ok {
		return
	}

	filter, ok := parseTransactionFilter(w, r)
	if !ok {
		return
	}

	page, err := h.Ledger.ListAccountTransactions(r.Context(), user.ID, accountID, filter)
	if err != nil {
		h.writeServiceError(w, r, "accounts.transactions", err, "user_id", user.ID, "account_id", accountID)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionPageResponse(page))
}

// optionalBodyDate parses an optional date field from a request body and
// writes the 400 itself when the value is malformed.
func optionalBodyDate(w http.ResponseWriter, value *string) (*time.Time, bool) {
	if value == nil {
		return nil, true
	}
	parsed, err := parseDateParam(*value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid date")
		return nil, false
	}
	return parsed, true
}
