package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Veraticus/expensy/internal/common"
	"github.com/Veraticus/expensy/internal/model"
	"github.com/Veraticus/expensy/internal/service"
)

// Transaction endpoints.
const (
	PathListTransactions       = "/api/transactions/list-transactions"
	PathUpdateTransaction      = "/api/transactions/update-transaction"
	PathDeleteTransaction      = "/api/transactions/delete-transaction"
	PathListRecurring          = "/api/transactions/list-recurring-transactions"
	PathCreateRecurring        = "/api/transactions/create-recurring-transaction"
	PathUpdateRecurring        = "/api/transactions/update-recurring-transaction"
	PathDeleteRecurring        = "/api/transactions/delete-recurring-transaction"
	PathMonthlySpendingHistory = "/api/transactions/get-monthly-spending-history"
	PathUserCategories         = "/api/categories/get-user-categories"
	PathDefaultCategories      = "/api/categories/get-defaults"
)

// ListTransactions fetches rows [q.Index, q.Index+q.Length) of the listing
// selected by q.Params, laid out in chunks.
func (c *Client) ListTransactions(ctx context.Context, q service.TransactionQuery) (*model.TransactionsPayload, error) {
	if q.Index < 0 || q.Length <= 0 {
		return nil, fmt.Errorf("%w: window index %d length %d", common.ErrInvalidInput, q.Index, q.Length)
	}

	var payload model.TransactionsPayload
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   PathListTransactions,
		query:  q.Values(),
		auth:   true,
	}, &payload)
	if err != nil {
		return nil, err
	}
	if payload.Transactions == nil {
		payload.Transactions = [][]*model.Transaction{}
	}
	return &payload, nil
}

// UpdateTransaction submits an edited transaction.
func (c *Client) UpdateTransaction(ctx context.Context, update model.TransactionUpdate) error {
	if err := c.validate.Struct(update); err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodPut, path: PathUpdateTransaction, body: update, auth: true}, nil)
}

// DeleteTransaction deletes a transaction.
func (c *Client) DeleteTransaction(ctx context.Context, transactionID string) error {
	if transactionID == "" {
		return &ValidationError{Fields: FieldErrors{"transactionId": "is required"}}
	}
	body := map[string]string{"transactionId": transactionID}
	return c.do(ctx, request{method: http.MethodDelete, path: PathDeleteTransaction, body: body, auth: true}, nil)
}

// ListRecurringTransactions fetches every recurring transaction.
func (c *Client) ListRecurringTransactions(ctx context.Context) ([]model.RecurringTransaction, error) {
	var out []model.RecurringTransaction
	if err := c.do(ctx, request{method: http.MethodGet, path: PathListRecurring, auth: true}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.RecurringTransaction{}
	}
	return out, nil
}

// CreateRecurringTransaction creates a recurring transaction.
func (c *Client) CreateRecurringTransaction(ctx context.Context, in model.RecurringInput) error {
	in.ID = nil
	if err := c.validate.Struct(in); err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodPost, path: PathCreateRecurring, body: in, auth: true}, nil)
}

// UpdateRecurringTransaction replaces the recurring transaction in.ID.
func (c *Client) UpdateRecurringTransaction(ctx context.Context, in model.RecurringInput) error {
	if in.ID == nil {
		return &ValidationError{Fields: FieldErrors{"id": "is required"}}
	}
	if err := c.validate.Struct(in); err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodPost, path: PathUpdateRecurring, body: in, auth: true}, nil)
}

// DeleteRecurringTransaction deletes the recurring transaction id.
func (c *Client) DeleteRecurringTransaction(ctx context.Context, id int) error {
	body := map[string]int{"id": id}
	return c.do(ctx, request{method: http.MethodDelete, path: PathDeleteRecurring, body: body, auth: true}, nil)
}

// GetMonthlySpendingHistory fetches spending totals keyed by YYYYMM.
func (c *Client) GetMonthlySpendingHistory(ctx context.Context) (model.SpendingHistory, error) {
	var out model.SpendingHistory
	if err := c.do(ctx, request{method: http.MethodGet, path: PathMonthlySpendingHistory, auth: true}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = model.SpendingHistory{}
	}
	return out, nil
}

// GetUserCategories fetches the signed-in user's categories.
func (c *Client) GetUserCategories(ctx context.Context) ([]model.Category, error) {
	return c.categories(ctx, PathUserCategories, true)
}

// GetDefaultCategories fetches the categories offered to new accounts. It
// needs no sign-in.
func (c *Client) GetDefaultCategories(ctx context.Context) ([]model.Category, error) {
	return c.categories(ctx, PathDefaultCategories, false)
}

func (c *Client) categories(ctx context.Context, path string, auth bool) ([]model.Category, error) {
	var out []model.Category
	if err := c.do(ctx, request{method: http.MethodGet, path: path, auth: auth}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Category{}
	}
	return out, nil
}
