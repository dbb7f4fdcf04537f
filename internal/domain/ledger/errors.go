package ledger

import "errors"

// Error kinds. Every error returned by the service matches exactly one of
// them with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientCoverage = errors.New("insufficient coverage")
	ErrAmountExceedsBalance = errors.New("amount exceeds balance")
	ErrIneligibleState      = errors.New("ineligible state")
	ErrConflict             = errors.New("conflict")
)

type ledgerError struct {
	kind    error
	code    string
	message string
}

func (e *ledgerError) Error() string {
	return e.message
}

func (e *ledgerError) Unwrap() error {
	return e.kind
}

func newError(kind error, code, message string) error {
	return &ledgerError{kind: kind, code: code, message: message}
}

var (
	ErrAccountNotFound     = newError(ErrNotFound, "account_not_found", "account not found")
	ErrCategoryNotFound    = newError(ErrNotFound, "category_not_found", "category not found")
	ErrDebtNotFound        = newError(ErrNotFound, "debt_not_found", "debt not found")
	ErrTransactionNotFound = newError(ErrNotFound, "transaction_not_found", "transaction not found")

	ErrInvalidAmount       = newError(ErrInvalidArgument, "invalid_amount", "amount must be greater than zero")
	ErrInvalidFee          = newError(ErrInvalidArgument, "invalid_fee", "fee must not be negative")
	ErrInvalidName         = newError(ErrInvalidArgument, "invalid_name", "name is required")
	ErrInvalidCurrency     = newError(ErrInvalidArgument, "invalid_currency", "currency must be a 3-letter ISO code")
	ErrInvalidType         = newError(ErrInvalidArgument, "invalid_type", "invalid type")
	ErrInvalidAccount      = newError(ErrInvalidArgument, "invalid_account", "account is missing, inactive or not owned by the user")
	ErrInvalidCategory     = newError(ErrInvalidArgument, "invalid_category", "category is missing, inactive or does not match the transaction type")
	ErrSameAccount         = newError(ErrInvalidArgument, "same_account", "source and destination accounts must differ")
	ErrExchangeRate        = newError(ErrInvalidArgument, "exchange_rate_required", "a positive exchange rate is required between different currencies")
	ErrCurrencyMismatch    = newError(ErrInvalidArgument, "currency_mismatch", "account currency does not match the debt currency")
	ErrNotInvestment       = newError(ErrInvalidArgument, "not_investment_account", "yields can only be registered on investment accounts")
	ErrNotCreditCard       = newError(ErrInvalidArgument, "not_credit_card", "purchases can only be registered on credit card debts")
	ErrNegativeAmount      = newError(ErrInvalidArgument, "negative_amount", "amount must not be negative")
	ErrInvalidInterestRate = newError(ErrInvalidArgument, "invalid_interest_rate", "interest rate must not be negative")
	ErrDueDateConflict     = newError(ErrInvalidArgument, "due_date_conflict", "due_date cannot be set and cleared at once")
	ErrInvalidPage         = newError(ErrInvalidArgument, "invalid_page", "page must be at least 1 and page_size between 1 and 100")

	ErrInsufficientBalance = newError(ErrInsufficientFunds, "insufficient_funds", "insufficient funds in account")
	ErrFeeExceedsAmount    = newError(ErrInsufficientCoverage, "insufficient_coverage", "fee exceeds the income amount")
	ErrPaymentExceedsDebt  = newError(ErrAmountExceedsBalance, "amount_exceeds_balance", "payment exceeds the outstanding debt")

	ErrTransactionCancelled = newError(ErrIneligibleState, "transaction_cancelled", "transaction is already cancelled")
	ErrTransactionReversal  = newError(ErrIneligibleState, "transaction_is_reversal", "transaction is a reversal")
	ErrTransactionSystem    = newError(ErrIneligibleState, "transaction_system", "system-generated transactions can only be reversed")
	ErrTransferLegCancelled = newError(ErrIneligibleState, "transfer_leg_cancelled", "the other leg of this transfer is already cancelled")
	ErrAccountClosed        = newError(ErrIneligibleState, "account_closed", "account is closed")
	ErrAccountNotEmpty      = newError(ErrIneligibleState, "account_not_empty", "account balance must be zero")
	ErrAccountInUse         = newError(ErrIneligibleState, "account_in_use", "account has transactions")
	ErrCategorySystem       = newError(ErrIneligibleState, "category_system", "system categories can only be renamed")
	ErrCategoryInUse        = newError(ErrIneligibleState, "category_in_use", "category has transactions")
	ErrCategoryActive       = newError(ErrIneligibleState, "category_active", "category is already active")
	ErrDebtInUse            = newError(ErrIneligibleState, "debt_in_use", "debt currency and amount cannot change once it has transactions")
	ErrDebtNotEmpty         = newError(ErrIneligibleState, "debt_not_empty", "debt must be fully paid")
	ErrDebtClosed           = newError(ErrIneligibleState, "debt_closed", "debt is closed")
	ErrDebtNotClosed        = newError(ErrIneligibleState, "debt_not_closed", "debt is not closed")

	ErrAccountNameTaken  = newError(ErrConflict, "account_name_taken", "an account with this name already exists")
	ErrCategoryNameTaken = newError(ErrConflict, "category_name_taken", "an active category with this name already exists")
	ErrCategoryKeyTaken  = newError(ErrConflict, "category_key_taken", "system category already exists")
)

// ErrorCode returns the stable machine code for a ledger error, or an empty
// string for errors that did not originate in the ledger.
func ErrorCode(err error) string {
	var le *ledgerError
	if errors.As(err, &le) {
		return le.code
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_request"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrInsufficientCoverage):
		return "insufficient_coverage"
	case errors.Is(err, ErrAmountExceedsBalance):
		return "amount_exceeds_balance"
	case errors.Is(err, ErrIneligibleState):
		return "ineligible_state"
	case errors.Is(err, ErrConflict):
		return "conflict"
	}
	return ""
}
