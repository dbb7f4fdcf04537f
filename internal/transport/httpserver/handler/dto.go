package handler

import (
	"time"

	ledgerdomain "pocket-ledger-go/internal/domain/ledger"

	"github.com/shopspring/decimal"
)

type accountResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Currency       string          `json:"currency"`
	Balance        decimal.Decimal `json:"balance"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Status         string          `json:"status"`
	ClosedAt       *time.Time      `json:"closed_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func toAccountResponse(account ledgerdomain.Account) accountResponse {
	return accountResponse{
		ID:             account.ID,
		Name:           account.Name,
		Type:           string(account.Type),
		Currency:       account.Currency,
		Balance:        account.Balance,
		OpeningBalance: account.OpeningBalance,
		Status:         string(account.Status),
		ClosedAt:       account.ClosedAt,
		CreatedAt:      account.CreatedAt,
		UpdatedAt:      account.UpdatedAt,
	}
}

type categoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	IsActive  bool      `json:"is_active"`
	IsSystem  bool      `json:"is_system"`
	SystemKey *string   `json:"system_key"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCategoryResponse(category ledgerdomain.Category) categoryResponse {
	var key *string
	if category.SystemKey != nil {
		value := string(*category.SystemKey)
		key = &value
	}
	return categoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		Type:      string(category.Type),
		IsActive:  category.IsActive,
		IsSystem:  category.IsSystem,
		SystemKey: key,
		CreatedAt: category.CreatedAt,
		UpdatedAt: category.UpdatedAt,
	}
}

func toCategoryResponses(categories []ledgerdomain.Category) []categoryResponse {
	response := make([]categoryResponse, 0, len(categories))
	for _, category := range categories {
		response = append(response, toCategoryResponse(category))
	}
	return response
}

type transactionResponse struct {
	ID                    string          `json:"id"`
	Type                  string          `json:"type"`
	Amount                decimal.Decimal `json:"amount"`
	Fee                   decimal.Decimal `json:"fee"`
	Date                  time.Time       `json:"date"`
	Description           string          `json:"description"`
	CategoryID            *string         `json:"category_id"`
	AccountID             *string         `json:"account_id"`
	FromAccountID         *string         `json:"from_account_id"`
	ToAccountID           *string         `json:"to_account_id"`
	DebtID                *string         `json:"debt_id"`
	SourceType            *string         `json:"source_type"`
	IsCancelled           bool            `json:"is_cancelled"`
	ReversedTransactionID *string         `json:"reversed_transaction_id"`
	TransferGroupID       *string         `json:"transfer_group_id"`
	ReversalNote          *string         `json:"reversal_note"`
	ParentTransactionID   *string         `json:"parent_transaction_id"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

func toTransactionResponse(transaction ledgerdomain.Transaction) transactionResponse {
	var sourceType *string
	if transaction.SourceType != ledgerdomain.SourceManual {
		value := string(transaction.SourceType)
		sourceType = &value
	}
	return transactionResponse{
		ID:                    transaction.ID,
		Type:                  string(transaction.Type),
		Amount:                transaction.Amount,
		Fee:                   transaction.Fee,
		Date:                  transaction.Date,
		Description:           transaction.Description,
		CategoryID:            transaction.CategoryID,
		AccountID:             transaction.SavingAccountID,
		FromAccountID:         transaction.FromAccountID,
		ToAccountID:           transaction.ToAccountID,
		DebtID:                transaction.DebtID,
		SourceType:            sourceType,
		IsCancelled:           transaction.IsCancelled,
		ReversedTransactionID: transaction.ReversedTransactionID,
		TransferGroupID:       transaction.TransferGroupID,
		ReversalNote:          transaction.ReversalNote,
		ParentTransactionID:   transaction.ParentTransactionID,
		CreatedAt:             transaction.CreatedAt,
		UpdatedAt:             transaction.UpdatedAt,
	}
}

func toTransactionResponses(transactions []ledgerdomain.Transaction) []transactionResponse {
	response := make([]transactionResponse, 0, len(transactions))
	for _, transaction := range transactions {
		response = append(response, toTransactionResponse(transaction))
	}
	return response
}

type transactionPageResponse struct {
	Items      []transactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

func toTransactionPageResponse(page *ledgerdomain.TransactionPage) transactionPageResponse {
	return transactionPageResponse{
		Items:      toTransactionResponses(page.Items),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
}

type transferResponse struct {
	TransferGroupID string               `json:"transfer_group_id"`
	Outgoing        transactionResponse  `json:"outgoing"`
	Incoming        transactionResponse  `json:"incoming"`
	Fee             *transactionResponse `json:"fee"`
}

func toTransferResponse(result *ledgerdomain.TransferResult) transferResponse {
	response := transferResponse{
		TransferGroupID: result.GroupID,
		Outgoing:        toTransactionResponse(result.Outgoing),
		Incoming:        toTransactionResponse(result.Incoming),
	}
	if result.Fee != nil {
		fee := toTransactionResponse(*result.Fee)
		response.Fee = &fee
	}
	return response
}

type debtResponse struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Kind              string          `json:"kind"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	InterestRate      decimal.Decimal `json:"interest_rate"`
	DueDate           *time.Time      `json:"due_date"`
	Currency          string          `json:"currency"`
	Status            string          `json:"status"`
	TransactionsCount *int64          `json:"transactions_count,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func toDebtResponse(debt ledgerdomain.Debt) debtResponse {
	return debtResponse{
		ID:           debt.ID,
		Name:         debt.Name,
		Kind:         string(debt.Kind),
		TotalAmount:  debt.TotalAmount,
		InterestRate: debt.InterestRate,
		DueDate:      debt.DueDate,
		Currency:     debt.Currency,
		Status:       string(debt.Status),
		CreatedAt:    debt.CreatedAt,
		UpdatedAt:    debt.UpdatedAt,
	}
}

type debtTransactionResponse struct {
	ID          string          `json:"id"`
	DebtID      string          `json:"debt_id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toDebtTransactionResponse(entry ledgerdomain.DebtTransaction) debtTransactionResponse {
	return debtTransactionResponse{
		ID:          entry.ID,
		DebtID:      entry.DebtID,
		Type:        string(entry.Type),
		Amount:      entry.Amount,
		Description: entry.Description,
		Date:        entry.Date,
		CreatedAt:   entry.CreatedAt,
	}
}

// debtMovementResponse is returned by payments and card purchases, which
// touch the debt, the main ledger and the sub-ledger at once.
type debtMovementResponse struct {
	Debt        debtResponse            `json:"debt"`
	Transaction transactionResponse     `json:"transaction"`
	Entry       debtTransactionResponse `json:"entry"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}
