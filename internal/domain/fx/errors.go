package fx

import "errors"

var (
	ErrInvalidCurrency  = errors.New("currency must be a 3-letter ISO code")
	ErrRateUnavailable  = errors.New("exchange rate unavailable")
	ErrProviderDisabled = errors.New("exchange rate provider disabled")
)
