package handler

import (
	"context"
	"net/http"

	ledgerdomain "pocket-ledger-go/internal/domain/ledger"

	"github.com/shopspring/decimal"
)

type createDebtRequest struct {
	Name         string          `json:"name"`
	Kind         string          `json:"kind"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	DueDate      *string         `json:"due_date"`
	Currency     string          `json:"currency"`
}

type updateDebtRequest struct {
	Name         *string          `json:"name"`
	TotalAmount  *decimal.Decimal `json:"total_amount"`
	InterestRate *decimal.Decimal `json:"interest_rate"`
	DueDate      *string          `json:"due_date"`
	ClearDueDate bool             `json:"clear_due_date"`
	Currency     *string          `json:"currency"`
}

type payDebtRequest struct {
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        *string         `json:"date"`
	Description string          `json:"description"`
}

type debtChargeRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Date        *string         `json:"date"`
	Description string          `json:"description"`
}

type cardPurchaseRequest struct {
	CategoryID  string          `json:"category_id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        *string         `json:"date"`
	Description string          `json:"description"`
}

func (h *Handlers) ListDebts(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	debts, err := h.Ledger.ListDebts(r.Context(), user.ID)
	if err != nil {
		h.writeServiceError(w, r, "debts.list", err, "user_id", user.ID)
		return
	}

	response := make([]debtResponse, 0, len(debts))
	for _, debt := range debts {
		item := toDebtResponse(debt.Debt)
		count := debt.TransactionsCount
		item.TransactionsCount = &count
		response = append(response, item)
	}
	writeJSON(w, http.StatusOK, listResponse[debtResponse]{Items: response})
}

func (h *Handlers) CreateDebt(w http.ResponseWriter, r *http.Request) {
	var req createDebtRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	dueDate, ok := optionalBodyDate(w, req.DueDate)
	if !ok {
		return
	}

	created, err := h.Ledger.CreateDebt(r.Context(), ledgerdomain.CreateDebtInput{
		UserID:       user.ID,
		Name:         req.Name,
		TotalAmount:  req.TotalAmount,
		InterestRate: req.InterestRate,
		DueDate:      dueDate,
		Currency:     req.Currency,
		Kind:         ledgerdomain.DebtKind(req.Kind),
	})
	if err != nil {
		h.writeServiceError(w, r, "debts.create", err, "user_id", user.ID)
		return
	}

	writeJSON(w, http.StatusCreated, toDebtResponse(*created))
}

func (h *Handlers) GetDebt(w http.ResponseWriter, r *http.Request) {
	h.debtAction(w, r, "debts.get", http.StatusOK, h.Ledger.GetDebt)
}

func (h *Handlers) CloseDebt(w http.ResponseWriter, r *http.Request) {
	h.debtAction(w, r, "debts.close", http.StatusOK, h.Ledger.CloseDebt)
}

func (h *Handlers) ReopenDebt(w http.ResponseWriter, r *http.Request) {
	h.debtAction(w, r, "debts.reopen", http.StatusOK, h.Ledger.ReopenDebt)
}

func (h *Handlers) debtAction(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	status int,
	action func(ctx context.Context, userID, debtID string) (*ledgerdomain.Debt, error),
) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r, ledgerdomain.ErrDebtNotFound)
	if !ok {
		return
	}

	debt, err := action(r.Context(), user.ID, debtID)
	if err != nil {
		h.writeServiceError(w, r, op, err, "user_id", user.ID, "debt_id", debtID)
		return
	}

	writeJSON(w, status, toDebtResponse(*debt))
}

func (h *Handlers) UpdateDebt(w http.ResponseWriter, r *http.Request) {
	var req updateDebtRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r, ledgerdomain.ErrDebtNotFound)
	if !ok {
		return
	}

	dueDate, ok := optionalBodyDate(w, req.DueDate)
	if !ok {
		return
	}

	updated, err := h.Ledger.UpdateDebt(r.Context(), ledgerdomain.UpdateDebtInput{
		UserID:       user.ID,
		DebtID:       debtID,
		Name:         req.Name,
		InterestRate: req.InterestRate,
		DueDate:      dueDate,
		ClearDueDate: req.ClearDueDate,
		Currency:     req.Currency,
		TotalAmount:  req.TotalAmount,
	})
	if err != nil {
		h.writeServiceError(w, r, "debts.update", err, "user_id", user.ID, "debt_id", debtID)
		return
	}

	writeJSON(w, http.StatusOK, toDebtResponse(*updated))
}

func (h *Handlers) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r, ledgerdomain.ErrDebtNotFound)
	if !ok {
		return
	}

	if err := h.Ledger.DeleteDebt(r.Context(), user.ID, debtID); err != nil {
		h.writeServiceError(w, r, "debts.delete", err, "user_id", user.ID, "debt_id", debtID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) PayDebt(w http.ResponseWriter, r *http.Request) {
	var req payDebtRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r, ledgerdomain.ErrDebtNotFound)
	if !ok {
		return
	}

	date, ok := optionalBodyDate(w, req.Date)
	if !ok {
		return
	}

	payment, err := h.Ledger.PayDebt(r.Context(), ledgerdomain.PayDebtInput{
		UserID:      user.ID,
		DebtID:      debtID,
		AccountID:   req.AccountID,
		Amount:      req.Amount,
		Date:        date,
		Description: req.Description,
	})
	if err != nil {
		h.writeServiceError(w, r, "debts.pay", err, "user_id", user.ID, "debt_id", debtID, "account_id", req.AccountID)
		return
	}

	writeJSON(w, http.StatusCreated, debtMovementResponse{
		Debt:        toDebtResponse(payment.Debt),
		Transaction: toTransactionResponse(payment.Transaction),
		Entry:       toDebtTransactionResponse(payment.Entry),
	})
}

func (h *Handlers) AddDebtCharge(w http.ResponseWriter, r *http.Request) {
	var req debtChargeRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r, ledgerdomain.ErrDebtNotFound)
	if !ok {
		return
	}

	date, ok := optionalBodyDate(w, req.Date)
	if !ok {
		return
	}

	entry, err := h.Ledger.AddCharge(r.Context(), ledgerdomain.DebtChargeInput{
		UserID:      user.ID,
		DebtID:      debtID,
		Amount:      req.Amount,
		Date:        date,
		Description: req.Description,
	})
	if err != nil {
		h.writeServiceError(w, r, "debts.charge", err, "user_id", user.ID, "debt_id", debtID)
		return
	}

	writeJSON(w, http.StatusCreated, toDebtTransactionResponse(*entry))
}

func (h *Handlers) PurchaseWithCard(w http.ResponseWriter, r *http.Request) {
	var req cardPurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r, ledgerdomain.ErrDebtNotFound)
	if !ok {
		return
	}

	date, ok := optionalBodyDate(w, req.Date)
	if !ok {
		return
	}

	purchase, err := h.Ledger.PurchaseWithCard(r.Context(), ledgerdomain.CardPurchaseInput{
		UserID:      user.ID,
		DebtID:      debtID,
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Date:        date,
		Description: req.Description,
	})
	if err != nil {
		h.writeServiceError(w, r, "debts.purchase", err, "user_id", user.ID, "debt_id", debtID)
		return
	}

	writeJSON(w, http.StatusCreated, debtMovementResponse{
		Debt:        toDebtResponse(purchase.Debt),
		Transaction: toTransactionResponse(purchase.Transaction),
		Entry:       toDebtTransactionResponse(purchase.Entry),
	})
}

func (h *Handlers) ListDebtTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r, ledgerdomain.ErrDebtNotFound)
	if !ok {
		return
	}

	entries, err := h.Ledger.ListDebtTransactions(r.Context(), user.ID, debtID)
	if err != nil {
		h.writeServiceError(w, r, "debts.transactions", err, "user_id", user.ID, "debt_id", debtID)
		return
	}

	response := make([]debtTransactionResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, toDebtTransactionResponse(entry))
	}
	writeJSON(w, http.StatusOK, listResponse[debtTransactionResponse]{Items: response})
}
