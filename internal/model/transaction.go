package model

import (
	"github.com/shopspring/decimal"
)

// UncategorizedID is the category id the backend assigns to transactions it
// has not categorized yet.
const UncategorizedID = -1

// MerchantData describes where a purchase was made.
type MerchantData struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

// Transaction represents a single card transaction as returned by the backend.
// Values are immutable once fetched; edits go through TransactionUpdate.
type Transaction struct {
	PurchaseDate      Date            `json:"purchaseDate"`
	PaymentDate       Date            `json:"paymentDate"`
	CategoryID        *int            `json:"categoryId"`
	CategoryName      *string         `json:"categoryName"`
	MerchantData      MerchantData    `json:"merchantData"`
	ID                string          `json:"id"`
	ARN               string          `json:"arn,omitempty"`
	UserEmail         string          `json:"userEmail,omitempty"`
	ShortCardNumber   string          `json:"shortCardNumber,omitempty"`
	OriginalCurrency  string          `json:"originalCurrency,omitempty"`
	TransactionAmount decimal.Decimal `json:"transactionAmount"`
	OriginalAmount    decimal.Decimal `json:"originalAmount"`
	IsPending         bool            `json:"isPending"`
	IsRecurring       bool            `json:"isRecurring"`
	IsDeleted         bool            `json:"isDeleted,omitempty"`
}

// IsCategorized reports whether the backend has assigned a real category.
func (t *Transaction) IsCategorized() bool {
	return t.CategoryID != nil && *t.CategoryID != UncategorizedID && t.CategoryName != nil
}

// Category returns the category label, or "Pending" for uncategorized rows.
func (t *Transaction) Category() string {
	if !t.IsCategorized() {
		return "Pending"
	}
	return *t.CategoryName
}

// DisplayAmount returns the amount and currency a row should show. Pending
// charges are only known in their original currency.
func (t *Transaction) DisplayAmount(userCurrency string) (decimal.Decimal, string) {
	if t.IsPending && t.OriginalCurrency != "" {
		return t.OriginalAmount, t.OriginalCurrency
	}
	return t.TransactionAmount, userCurrency
}

// Merchant returns the merchant name, falling back to the address.
func (t *Transaction) Merchant() string {
	if t.MerchantData.Name != "" {
		return t.MerchantData.Name
	}
	return t.MerchantData.Address
}

// TransactionsPayload is the chunked listing returned by list-transactions.
// Transactions[c][o] holds the row at global index c*ChunkSize+o; a nil chunk
// or a nil row means the backend did not send it.
type TransactionsPayload struct {
	Transactions           [][]*Transaction `json:"transactions"`
	ChunkSize              int              `json:"chunkSize"`
	TotalTransactionsCount int              `json:"totalTransactionsCount"`
}

// TransactionUpdate is the edited copy of a transaction sent to
// update-transaction.
type TransactionUpdate struct {
	MerchantData      MerchantData `json:"merchantData"`
	TransactionID     string       `json:"transactionId" validate:"required"`
	PaymentDate       string       `json:"paymentDate" validate:"required,datetime=2006-01-02"`
	PurchaseDate      string       `json:"purchaseDate" validate:"required,datetime=2006-01-02"`
	TransactionAmount float64      `json:"transactionAmount"`
	CategoryID        int          `json:"categoryId" validate:"required"`
}

// NewTransactionUpdate copies the editable fields of t.
func NewTransactionUpdate(t *Transaction) TransactionUpdate {
	upd := TransactionUpdate{
		TransactionID:     t.ID,
		MerchantData:      t.MerchantData,
		PaymentDate:       t.PaymentDate.DateString(),
		PurchaseDate:      t.PurchaseDate.DateString(),
		TransactionAmount: t.TransactionAmount.InexactFloat64(),
	}
	if t.CategoryID != nil {
		upd.CategoryID = *t.CategoryID
	}
	return upd
}
