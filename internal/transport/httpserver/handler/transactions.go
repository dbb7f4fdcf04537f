package handler

import (
	"net/http"
	"strings"

	ledgerdomain "pocket-ledger-go/internal/domain/ledger"

	"github.com/shopspring/decimal"
)

type createTransactionRequest struct {
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Fee         decimal.Decimal `json:"fee"`
	CategoryID  string          `json:"category_id"`
	AccountID   string          `json:"account_id"`
	Date        *string         `json:"date"`
	Description string          `json:"description"`
}

type updateTransactionRequest struct {
	Description *string `json:"description"`
	CategoryID  *string `json:"category_id"`
	Date        *string `json:"date"`
}

type transferRequest struct {
	FromAccountID string           `json:"from_account_id"`
	ToAccountID   string           `json:"to_account_id"`
	Amount        decimal.Decimal  `json:"amount"`
	Fee           decimal.Decimal  `json:"fee"`
	ExchangeRate  *decimal.Decimal `json:"exchange_rate"`
	Date          *string          `json:"date"`
	Description   string           `json:"description"`
}

type yieldRequest struct {
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        *string         `json:"date"`
	Description string          `json:"description"`
}

type reverseRequest struct {
	Note *string `json:"note"`
}

// parseTransactionFilter reads the listing query. Cancelled rows are
// included unless include_cancelled=false.
func parseTransactionFilter(w http.ResponseWriter, r *http.Request) (ledgerdomain.TransactionFilter, bool) {
	query := r.URL.Query()
	var filter ledgerdomain.TransactionFilter

	start, err := parseDateParam(query.Get("start_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid start_date")
		return filter, false
	}
	end, err := parseEndDateParam(query.Get("end_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid end_date")
		return filter, false
	}
	filter.StartDate = start
	filter.EndDate = end
	if filter.CategoryID, err = parseIDParam(query.Get("category_id")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid category_id")
		return filter, false
	}
	if filter.AccountID, err = parseIDParam(query.Get("account_id")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid account_id")
		return filter, false
	}

	if value := strings.TrimSpace(query.Get("type")); value != "" {
		txType := ledgerdomain.TransactionType(value)
		filter.Type = &txType
	}

	switch source := ledgerdomain.TransactionSource(strings.TrimSpace(query.Get("source"))); source {
	case ledgerdomain.TransactionSourceAny, ledgerdomain.TransactionSourceAccount, ledgerdomain.TransactionSourceCreditCard:
		filter.Source = source
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "source must be account or credit_card")
		return filter, false
	}

	if value := strings.TrimSpace(query.Get("source_type")); value != "" {
		sourceType := ledgerdomain.SourceManual
		if value != "manual" {
			sourceType, err = ledgerdomain.ParseSourceType(value)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request", "invalid source_type")
				return filter, false
			}
		}
		filter.SourceType = &sourceType
	}

	includeCancelled, err := parseBoolParam(query.Get("include_cancelled"), true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid include_cancelled")
		return filter, false
	}
	filter.ExcludeCancelled = !includeCancelled

	if filter.Page, err = parsePageParam(query.Get("page"), 1); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid page")
		return filter, false
	}
	if filter.PageSize, err = parsePageParam(query.Get("page_size"), 0); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid page_size")
		return filter, false
	}
	return filter, true
}

func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	filter, ok := parseTransactionFilter(w, r)
	if !ok {
		return
	}

	page, err := h.Ledger.ListTransactions(r.Context(), user.ID, filter)
	if err != nil {
		h.writeServiceError(w, r, "transactions.list", err, "user_id", user.ID)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionPageResponse(page))
}

func (h *Handlers) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	date, ok := optionalBodyDate(w, req.Date)
	if !ok {
		return
	}

	created, err := h.Ledger.CreateTransaction(r.Context(), ledgerdomain.CreateTransactionInput{
		UserID:      user.ID,
		Type:        ledgerdomain.TransactionType(req.Type),
		Amount:      req.Amount,
		Fee:         req.Fee,
		CategoryID:  req.CategoryID,
		AccountID:   req.AccountID,
		Date:        date,
		Description: req.Description,
	})
	if err != nil {
		h.writeServiceError(w, r, "transactions.create", err, "user_id", user.ID)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(*created))
}

func (h *Handlers) GetTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	transactionID, ok := pathID(w, r, ledgerdomain.ErrTransactionNotFound)
	if !ok {
		return
	}

	transaction, err := h.Ledger.GetTransaction(r.Context(), user.ID, transactionID)
	if err != nil {
		h.writeServiceError(w, r, "transactions.get", err, "user_id", user.ID, "transaction_id", transactionID)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(*transaction))
}

func (h *Handlers) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	transactionID, ok := pathID(w, r, ledgerdomain.ErrTransactionNotFound)
	if !ok {
		return
	}

	date, ok := optionalBodyDate(w, req.Date)
	if !ok {
		return
	}

	updated, err := h.Ledger.UpdateTransaction(r.Context(), ledgerdomain.UpdateTransactionInput{
		UserID:        user.ID,
		TransactionID: transactionID,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		Date:          date,
	})
	if err != nil {
		h.writeServiceError(w, r, "transactions.update", err, "user_id", user.ID, "transaction_id", transactionID)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(*updated))
}

func (h *Handlers) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	transactionID, ok := pathID(w, r, ledgerdomain.ErrTransactionNotFound)
	if !ok {
		return
	}

	if err := h.Ledger.DeleteTransaction(r.Context(), user.ID, transactionID); err != nil {
		h.writeServiceError(w, r, "transactions.delete", err, "user_id", user.ID, "transaction_id", transactionID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ReverseTransaction(w http.ResponseWriter, r *http.Request) {
	var req reverseRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	transactionID, ok := pathID(w, r, ledgerdomain.ErrTransactionNotFound)
	if !ok {
		return
	}

	reversals, err := h.Ledger.ReverseTransaction(r.Context(), ledgerdomain.ReverseInput{
		UserID:        user.ID,
		TransactionID: transactionID,
		Note:          req.Note,
	})
	if err != nil {
		h.writeServiceError(w, r, "transactions.reverse", err, "user_id", user.ID, "transaction_id", transactionID)
		return
	}

	writeJSON(w, http.StatusCreated, listResponse[transactionResponse]{Items: toTransactionResponses(reversals)})
}

func (h *Handlers) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	date, ok := optionalBodyDate(w, req.Date)
	if !ok {
		return
	}

	result, err := h.Ledger.Transfer(r.Context(), ledgerdomain.TransferInput{
		UserID:        user.ID,
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
		Fee:           req.Fee,
		ExchangeRate:  req.ExchangeRate,
		Date:          date,
		Description:   req.Description,
	})
	if err != nil {
		h.writeServiceError(w, r, "transactions.transfer", err, "user_id", user.ID)
		return
	}

	writeJSON(w, http.StatusCreated, toTransferResponse(result))
}

func (h *Handlers) RegisterYield(w http.ResponseWriter, r *http.Request) {
	var req yieldRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	date, ok := optionalBodyDate(w, req.Date)
	if !ok {
		return
	}

	created, err := h.Ledger.RegisterYield(r.Context(), ledgerdomain.YieldInput{
		UserID:      user.ID,
		AccountID:   req.AccountID,
		Amount:      req.Amount,
		Date:        date,
		Description: req.Description,
	})
	if err != nil {
		h.writeServiceError(w, r, "transactions.yield", err, "user_id", user.ID, "account_id", req.AccountID)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(*created))
}
