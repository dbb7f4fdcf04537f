package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ledgerdomain "pocket-ledger-go/internal/domain/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	day, err := parseDate("2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), day)

	stamp, err := parseDate("2024-03-10T15:04:05-05:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 20, 4, 5, 0, time.UTC), stamp)

	_, err = parseDate("10/03/2024")
	require.Error(t, err)

	end, err := parseEndDateParam("2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 23, 59, 59, 999999999, time.UTC), *end)
}

func TestParseTransactionFilter(t *testing.T) {
	accountID := "3f0c2a9e-6b1d-4c7a-9f2e-8d5b1a6c4e70"
	req := httptest.NewRequest(http.MethodGet, "/api/transactions?source=credit_card&source_type=manual&include_cancelled=false&page=2&page_size=5&type=expense&account_id="+accountID, nil)
	rec := httptest.NewRecorder()

	filter, ok := parseTransactionFilter(rec, req)
	require.True(t, ok)
	assert.Equal(t, ledgerdomain.TransactionSourceCreditCard, filter.Source)
	require.NotNil(t, filter.SourceType)
	assert.Equal(t, ledgerdomain.SourceManual, *filter.SourceType)
	assert.True(t, filter.ExcludeCancelled)
	assert.Equal(t, 2, filter.Page)
	assert.Equal(t, 5, filter.PageSize)
	require.NotNil(t, filter.Type)
	assert.Equal(t, ledgerdomain.TransactionTypeExpense, *filter.Type)
	assert.Equal(t, accountID, filter.AccountID)

	req = httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	filter, ok = parseTransactionFilter(httptest.NewRecorder(), req)
	require.True(t, ok)
	assert.False(t, filter.ExcludeCancelled)
	assert.Nil(t, filter.SourceType)
	assert.Equal(t, 1, filter.Page)
	assert.Zero(t, filter.PageSize)

	for _, query := range []string{
		"source=bank", "source_type=gift", "page=-1", "page=0", "page_size=0", "start_date=yesterday",
		"account_id=abc", "category_id=1",
	} {
		rec := httptest.NewRecorder()
		_, ok := parseTransactionFilter(rec, httptest.NewRequest(http.MethodGet, "/api/transactions?"+query, nil))
		assert.False(t, ok, query)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}
