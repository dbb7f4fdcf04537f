package ledger

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeSaving     AccountType = "saving"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeCash       AccountType = "cash"
	AccountTypeBank       AccountType = "bank"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeSaving, AccountTypeInvestment, AccountTypeCash, AccountTypeBank:
		return true
	}
	return false
}

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	AccountStatusClosed AccountStatus = "closed"
)

type Account struct {
	ID             string          `gorm:"type:uuid;primaryKey"`
	UserID         string          `gorm:"type:uuid;not null;uniqueIndex:idx_accounts_user_name,priority:1"`
	Name           string          `gorm:"not null;uniqueIndex:idx_accounts_user_name,priority:2"`
	Type           AccountType     `gorm:"type:text;not null"`
	Currency       string          `gorm:"size:3;not null"`
	Balance        decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	OpeningBalance decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	Status         AccountStatus   `gorm:"type:text;not null"`
	ClosedAt       *time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
	CategoryTypeBoth    CategoryType = "both"
)

func (t CategoryType) Valid() bool {
	switch t {
	case CategoryTypeIncome, CategoryTypeExpense, CategoryTypeBoth:
		return true
	}
	return false
}

// Accepts reports whether a category of this type may tag a transaction of
// the given type.
func (t CategoryType) Accepts(txType TransactionType) bool {
	return t == CategoryTypeBoth || string(t) == string(txType)
}

// Covers reports whether every transaction a category of type other accepts
// is also accepted by t.
func (t CategoryType) Covers(other CategoryType) bool {
	return t == CategoryTypeBoth || t == other
}

type SystemKey string

const (
	SystemKeyTransfer       SystemKey = "transfer"
	SystemKeyFees           SystemKey = "fees"
	SystemKeyDebtPayment    SystemKey = "debt_payment"
	SystemKeyInterestIncome SystemKey = "interest_income"
)

type systemCategoryDefault struct {
	Name string
	Type CategoryType
}

var systemCategoryDefaults = map[SystemKey]systemCategoryDefault{
	SystemKeyTransfer:       {Name: "Transfer", Type: CategoryTypeBoth},
	SystemKeyFees:           {Name: "Fees", Type: CategoryTypeExpense},
	SystemKeyDebtPayment:    {Name: "Debt Payment", Type: CategoryTypeExpense},
	SystemKeyInterestIncome: {Name: "Interest Income", Type: CategoryTypeIncome},
}

// SystemKeys lists every provisioned system category in a stable order.
func SystemKeys() []SystemKey {
	return []SystemKey{SystemKeyTransfer, SystemKeyFees, SystemKeyDebtPayment, SystemKeyInterestIncome}
}

type Category struct {
	ID        string       `gorm:"type:uuid;primaryKey"`
	UserID    string       `gorm:"type:uuid;not null;index;uniqueIndex:idx_categories_user_system_key,priority:1"`
	Name      string       `gorm:"not null"`
	Type      CategoryType `gorm:"type:text;not null"`
	IsActive  bool         `gorm:"not null"`
	IsSystem  bool         `gorm:"not null"`
	SystemKey *SystemKey   `gorm:"type:text;uniqueIndex:idx_categories_user_system_key,priority:2"`
	CreatedAt time.Time    `gorm:"autoCreateTime"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime"`
}

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

func (t TransactionType) Inverse() TransactionType {
	if t == TransactionTypeIncome {
		return TransactionTypeExpense
	}
	return TransactionTypeIncome
}

// SourceType tags system-generated transactions. The zero value marks a
// manual row and is stored as NULL.
type SourceType string

const (
	SourceManual                     SourceType = ""
	SourceTransfer                   SourceType = "transfer"
	SourceDebtPayment                SourceType = "debt_payment"
	SourceInvestmentYield            SourceType = "investment_yield"
	SourceCreditCardPurchase         SourceType = "credit_card_purchase"
	SourceCreditCardPurchaseReversal SourceType = "credit_card_purchase_reversal"
	SourceAccountDeposit             SourceType = "account_deposit"
)

func ParseSourceType(value string) (SourceType, error) {
	st := SourceType(value)
	switch st {
	case SourceManual, SourceTransfer, SourceDebtPayment, SourceInvestmentYield,
		SourceCreditCardPurchase, SourceCreditCardPurchaseReversal, SourceAccountDeposit:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown source type %q", ErrInvalidArgument, value)
}

func (s SourceType) Value() (driver.Value, error) {
	if s == SourceManual {
		return nil, nil
	}
	return string(s), nil
}

func (s *SourceType) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = SourceManual
	case string:
		*s = SourceType(v)
	case []byte:
		*s = SourceType(v)
	default:
		return fmt.Errorf("source type: unsupported scan type %T", src)
	}
	return nil
}

type Transaction struct {
	ID                    string          `gorm:"type:uuid;primaryKey"`
	UserID                string          `gorm:"type:uuid;index;not null"`
	Amount                decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	Type                  TransactionType `gorm:"type:text;not null"`
	Fee                   decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	Date                  time.Time       `gorm:"not null;index"`
	Description           string          `gorm:"type:text;not null"`
	CategoryID            *string         `gorm:"type:uuid;index"`
	SavingAccountID       *string         `gorm:"type:uuid;index"`
	FromAccountID         *string         `gorm:"type:uuid"`
	ToAccountID           *string         `gorm:"type:uuid"`
	DebtID                *string         `gorm:"type:uuid;index"`
	SourceType            SourceType      `gorm:"type:text"`
	IsCancelled           bool            `gorm:"not null"`
	ReversedTransactionID *string         `gorm:"type:uuid"`
	TransferGroupID       *string         `gorm:"type:uuid;index"`
	ReversalNote          *string         `gorm:"type:text"`
	ParentTransactionID   *string         `gorm:"type:uuid"`
	CreatedAt             time.Time       `gorm:"autoCreateTime"`
	UpdatedAt             time.Time       `gorm:"autoUpdateTime"`
}

// IsSystem reports whether the row was generated by a ledger operation
// rather than entered by hand.
func (t *Transaction) IsSystem() bool {
	return t.SourceType != SourceManual || t.ParentTransactionID != nil
}

func (t *Transaction) IsReversal() bool {
	return t.ReversedTransactionID != nil
}

// signedAmount is the effect of the row on its primary account.
func (t *Transaction) signedAmount() decimal.Decimal {
	if t.Type == TransactionTypeIncome {
		return t.Amount
	}
	return t.Amount.Neg()
}

type DebtKind string

const (
	DebtKindLoan       DebtKind = "loan"
	DebtKindCreditCard DebtKind = "credit_card"
)

func (k DebtKind) Valid() bool {
	return k == DebtKindLoan || k == DebtKindCreditCard
}

type DebtStatus string

const (
	DebtStatusActive DebtStatus = "active"
	DebtStatusClosed DebtStatus = "closed"
)

type Debt struct {
	ID           string          `gorm:"type:uuid;primaryKey"`
	UserID       string          `gorm:"type:uuid;index;not null"`
	Name         string          `gorm:"not null"`
	TotalAmount  decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	InterestRate decimal.Decimal `gorm:"type:numeric(9,4);not null"`
	DueDate      *time.Time
	Currency     string     `gorm:"size:3;not null"`
	Status       DebtStatus `gorm:"type:text;not null"`
	Kind         DebtKind   `gorm:"type:text;not null"`
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime"`
}

type DebtWithCount struct {
	Debt
	TransactionsCount int64
}

type DebtTransactionType string

const (
	DebtTransactionPayment        DebtTransactionType = "payment"
	DebtTransactionInterestCharge DebtTransactionType = "interest_charge"
	DebtTransactionExtraCharge    DebtTransactionType = "extra_charge"
	DebtTransactionChargeReversal DebtTransactionType = "charge_reversal"
)

type DebtTransaction struct {
	ID          string              `gorm:"type:uuid;primaryKey"`
	UserID      string              `gorm:"type:uuid;index;not null"`
	DebtID      string              `gorm:"type:uuid;index;not null"`
	Amount      decimal.Decimal     `gorm:"type:numeric(20,6);not null"`
	Type        DebtTransactionType `gorm:"type:text;not null"`
	Description string              `gorm:"type:text;not null"`
	Date        time.Time           `gorm:"not null"`
	CreatedAt   time.Time           `gorm:"autoCreateTime"`
}

type CreateAccountInput struct {
	UserID         string
	Name           string
	Type           AccountType
	Currency       string
	OpeningBalance decimal.Decimal
}

type UpdateAccountInput struct {
	UserID    string
	AccountID string
	Name      *string
	Type      *AccountType
}

type AccountMovementInput struct {
	UserID      string
	AccountID   string
	Amount      decimal.Decimal
	Date        *time.Time
	Description string
}

type CategoryStatus string

const (
	CategoryStatusActive   CategoryStatus = "active"
	CategoryStatusInactive CategoryStatus = "inactive"
	CategoryStatusAll      CategoryStatus = "all"
)

type CategoryFilter struct {
	Type   *CategoryType
	Status CategoryStatus
}

type CreateCategoryInput struct {
	UserID string
	Name   string
	Type   CategoryType
}

type UpdateCategoryInput struct {
	UserID     string
	CategoryID string
	Name       *string
	Type       *CategoryType
}

type CreateTransactionInput struct {
	UserID      string
	Type        TransactionType
	Amount      decimal.Decimal
	Fee         decimal.Decimal
	CategoryID  string
	AccountID   string
	Date        *time.Time
	Description string
}

type TransferInput struct {
	UserID        string
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Fee           decimal.Decimal
	ExchangeRate  *decimal.Decimal
	Date          *time.Time
	Description   string
}

type TransferResult struct {
	GroupID  string
	Outgoing Transaction
	Incoming Transaction
	Fee      *Transaction
}

type YieldInput struct {
	UserID      string
	AccountID   string
	Amount      decimal.Decimal
	Date        *time.Time
	Description string
}

type UpdateTransactionInput struct {
	UserID        string
	TransactionID string
	Description   *string
	CategoryID    *string
	Date          *time.Time
}

type ReverseInput struct {
	UserID        string
	TransactionID string
	Note          *string
}

// TransactionSource narrows listings to account rows or credit-card rows.
type TransactionSource string

const (
	TransactionSourceAny        TransactionSource = ""
	TransactionSourceAccount    TransactionSource = "account"
	TransactionSourceCreditCard TransactionSource = "credit_card"
)

type TransactionFilter struct {
	StartDate        *time.Time
	EndDate          *time.Time
	CategoryID       string
	AccountID        string
	Type             *TransactionType
	Source           TransactionSource
	SourceType       *SourceType
	ExcludeCancelled bool
	Page             int
	PageSize         int
}

type TransactionPage struct {
	Items      []Transaction
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

type CreateDebtInput struct {
	UserID       string
	Name         string
	TotalAmount  decimal.Decimal
	InterestRate decimal.Decimal
	DueDate      *time.Time
	Currency     string
	Kind         DebtKind
}

type UpdateDebtInput struct {
	UserID       string
	DebtID       string
	Name         *string
	InterestRate *decimal.Decimal
	DueDate      *time.Time
	ClearDueDate bool
	Currency     *string
	TotalAmount  *decimal.Decimal
}

type PayDebtInput struct {
	UserID      string
	DebtID      string
	AccountID   string
	Amount      decimal.Decimal
	Date        *time.Time
	Description string
}

type DebtChargeInput struct {
	UserID      string
	DebtID      string
	Amount      decimal.Decimal
	Date        *time.Time
	Description string
}

type CardPurchaseInput struct {
	UserID      string
	DebtID      string
	CategoryID  string
	Amount      decimal.Decimal
	Date        *time.Time
	Description string
}

type DebtPayment struct {
	Debt        Debt
	Transaction Transaction
	Entry       DebtTransaction
}

type CardPurchase struct {
	Debt        Debt
	Transaction Transaction
	Entry       DebtTransaction
}

type BalanceDrift struct {
	AccountID string
	Name      string
	Stored    decimal.Decimal
	Expected  decimal.Decimal
}
