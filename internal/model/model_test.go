package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }
func strPtr(v string) *string { return &v }

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "python isoformat", input: `"2023-11-05T13:45:00"`, want: time.Date(2023, 11, 5, 13, 45, 0, 0, time.UTC)},
		{name: "with microseconds", input: `"2023-11-05T13:45:00.123456"`, want: time.Date(2023, 11, 5, 13, 45, 0, 123456000, time.UTC)},
		{name: "rfc3339", input: `"2023-11-05T13:45:00Z"`, want: time.Date(2023, 11, 5, 13, 45, 0, 0, time.UTC)},
		{name: "plain date", input: `"2023-11-05"`, want: time.Date(2023, 11, 5, 0, 0, 0, 0, time.UTC)},
		{name: "null", input: `null`},
		{name: "empty", input: `""`},
		{name: "garbage", input: `"yesterday"`, wantErr: true},
		{name: "number", input: `12`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(d.Time), "got %s", d.Time)
		})
	}
}

func TestDate_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(NewDate(time.Date(2024, 2, 29, 8, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, `"2024-02-29T08:00:00"`, string(out))

	out, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestTransaction_Categorization(t *testing.T) {
	tests := []struct {
		name         string
		txn          Transaction
		wantCategory string
		wantAmount   string
		wantCurrency string
	}{
		{
			name: "categorized",
			txn: Transaction{
				CategoryID:        intPtr(3),
				CategoryName:      strPtr("Groceries"),
				TransactionAmount: decimal.RequireFromString("120.5"),
				OriginalAmount:    decimal.RequireFromString("33"),
				OriginalCurrency:  "USD",
			},
			wantCategory: "Groceries",
			wantAmount:   "120.5",
			wantCurrency: "ILS",
		},
		{
			name: "pending charge",
			txn: Transaction{
				IsPending:         true,
				CategoryID:        intPtr(UncategorizedID),
				CategoryName:      strPtr("Other"),
				TransactionAmount: decimal.RequireFromString("120.5"),
				OriginalAmount:    decimal.RequireFromString("33"),
				OriginalCurrency:  "USD",
			},
			wantCategory: "Pending",
			wantAmount:   "33",
			wantCurrency: "USD",
		},
		{
			name: "missing category name",
			txn: Transaction{
				CategoryID:        intPtr(4),
				TransactionAmount: decimal.RequireFromString("10"),
			},
			wantCategory: "Pending",
			wantAmount:   "10",
			wantCurrency: "ILS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCategory, tt.txn.Category())
			amount, currency := tt.txn.DisplayAmount("ILS")
			assert.Equal(t, tt.wantAmount, amount.String())
			assert.Equal(t, tt.wantCurrency, currency)
		})
	}
}

func TestTransactionsPayload_Decode(t *testing.T) {
	raw := `{
		"chunkSize": 2,
		"totalTransactionsCount": 3,
		"transactions": [
			[{"id": "a", "transactionAmount": 12.3, "purchaseDate": "2023-11-05T00:00:00", "categoryId": 1, "categoryName": "Food"}, null],
			null
		]
	}`

	var payload TransactionsPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	assert.Equal(t, 2, payload.ChunkSize)
	assert.Equal(t, 3, payload.TotalTransactionsCount)
	require.Len(t, payload.Transactions, 2)
	require.Len(t, payload.Transactions[0], 2)
	assert.Equal(t, "a", payload.Transactions[0][0].ID)
	assert.True(t, decimal.RequireFromString("12.3").Equal(payload.Transactions[0][0].TransactionAmount))
	assert.Nil(t, payload.Transactions[0][1])
	assert.Nil(t, payload.Transactions[1])
}

func TestNewTransactionUpdate(t *testing.T) {
	txn := &Transaction{
		ID:                "t1",
		CategoryID:        intPtr(7),
		TransactionAmount: decimal.RequireFromString("99.90"),
		PurchaseDate:      NewDate(time.Date(2023, 10, 1, 12, 0, 0, 0, time.UTC)),
		PaymentDate:       NewDate(time.Date(2023, 11, 2, 0, 0, 0, 0, time.UTC)),
		MerchantData:      MerchantData{Name: "Shop"},
	}

	upd := NewTransactionUpdate(txn)

	assert.Equal(t, "t1", upd.TransactionID)
	assert.Equal(t, 7, upd.CategoryID)
	assert.InDelta(t, 99.9, upd.TransactionAmount, 0.0001)
	assert.Equal(t, "2023-10-01", upd.PurchaseDate)
	assert.Equal(t, "2023-11-02", upd.PaymentDate)

	body, err := json.Marshal(upd)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"transactionId": "t1",
		"categoryId": 7,
		"transactionAmount": 99.9,
		"paymentDate": "2023-11-02",
		"purchaseDate": "2023-10-01",
		"merchantData": {"name": "Shop"}
	}`, string(body))
}

func TestTopCategories(t *testing.T) {
	categories := []Category{
		{CategoryName: "Rent", MonthlySpending: 4000},
		{CategoryName: "Food", MonthlySpending: 1200},
		{CategoryName: "Fun", MonthlySpending: 50},
		{CategoryName: "Car", MonthlySpending: 800},
	}

	top := TopCategories(categories, 3)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"Rent", "Food", "Car"}, []string{top[0].CategoryName, top[1].CategoryName, top[2].CategoryName})
	assert.Equal(t, "Rent", categories[0].CategoryName, "input must not be reordered")

	assert.Nil(t, TopCategories([]Category{{CategoryName: "Rent"}}, 3))
}

func TestSpendingHistory_Series(t *testing.T) {
	h := SpendingHistory{"0": 0, "202401": 10, "202311": 30, "202312": 20}

	series := h.Series()

	require.Len(t, series, 3)
	assert.Equal(t, "202311", MonthKey(series[0].Month))
	assert.Equal(t, "202312", MonthKey(series[1].Month))
	assert.Equal(t, "202401", MonthKey(series[2].Month))
	assert.InDelta(t, 10.0, series[2].Amount, 0.001)
}

func TestDefaultStartDate(t *testing.T) {
	first := DefaultStartDate(time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), first)

	mid := DefaultStartDate(time.Date(2024, 12, 17, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), mid)
}

func TestFrequencyUnit_Valid(t *testing.T) {
	assert.True(t, FrequencyWeeks.Valid())
	assert.False(t, FrequencyUnit("years").Valid())
}

func TestRecurringInput_CheckStartDate(t *testing.T) {
	now := time.Date(2024, 5, 15, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		wantErr error
		name    string
		start   string
		invalid bool
	}{
		{name: "today", start: "2024-05-15"},
		{name: "future", start: "2024-06-01"},
		{name: "yesterday", start: "2024-05-14", wantErr: ErrStartDateInPast},
		{name: "not a date", start: "15/05/2024", invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RecurringInput{StartDate: tt.start}.CheckStartDate(now)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.invalid:
				require.Error(t, err)
			default:
				require.NoError(t, err)
			}
		})
	}
}
