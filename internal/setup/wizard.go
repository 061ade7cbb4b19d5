// Package setup drives the account setup wizard: monthly budget, category
// allocation, then profile and credit card credentials.
package setup

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Veraticus/expensy/internal/model"
)

// Wizard steps.
const (
	StepBudget     = 1
	StepCategories = 2
	StepProfile    = 3
	StepCount      = StepProfile
)

// OverBudgetMessage is shown when category allocations exceed the budget.
const OverBudgetMessage = "Budget can't be over 100%"

// ErrOverBudget stops the wizard from leaving the allocation step.
var ErrOverBudget = errors.New("category allocation exceeds 100%")

// ErrCredentialsNotTested stops submission before the credentials passed
// the server check.
var ErrCredentialsNotTested = errors.New("credit card credentials have not been verified")

// Backend is the part of the API the wizard submits to.
type Backend interface {
	TestCreditCardCredentials(ctx context.Context, creds model.Credentials) error
	SetupUser(ctx context.Context, req model.SetupRequest) (*model.User, error)
}

// Wizard holds the in-progress setup. It is not safe for concurrent use.
type Wizard struct {
	data model.SetupData
}

// New resumes a wizard from saved data.
func New(data model.SetupData) *Wizard {
	if data.StepIndex < StepBudget || data.StepIndex > StepCount {
		data.StepIndex = StepBudget
	}
	return &Wizard{data: data}
}

// Data returns the wizard state for saving.
func (w *Wizard) Data() model.SetupData {
	out := w.data
	out.Categories = append([]model.SetupCategory(nil), w.data.Categories...)
	return out
}

// Step is the current step, 1 through StepCount.
func (w *Wizard) Step() int {
	return w.data.StepIndex
}

// SetMonthlyBudget sets the monthly budget.
func (w *Wizard) SetMonthlyBudget(budget int) {
	w.data.MonthlyBudget = budget
}

// SetCategories replaces the category allocation. Budgets are percentages.
func (w *Wizard) SetCategories(categories []model.SetupCategory) {
	w.data.Categories = append([]model.SetupCategory(nil), categories...)
}

// SetCategoryBudget sets the percentage of one category.
func (w *Wizard) SetCategoryBudget(index int, percent float64) error {
	if index < 0 || index >= len(w.data.Categories) {
		return fmt.Errorf("category %d out of range", index)
	}
	w.data.Categories[index].Budget = percent
	return nil
}

// SetProfile sets the name and currency symbol.
func (w *Wizard) SetProfile(fullName, currency string) {
	w.data.FullName = fullName
	w.data.Currency = currency
}

// AllocatedPercent sums the category percentages.
func (w *Wizard) AllocatedPercent() float64 {
	var total float64
	for _, c := range w.data.Categories {
		total += c.Budget
	}
	return total
}

// Next moves forward. Leaving the allocation step with more than 100%
// allocated fails with ErrOverBudget. On the last step Next reports done
// and stays put; the caller then submits.
func (w *Wizard) Next() (done bool, err error) {
	if w.data.StepIndex == StepCategories && math.Floor(w.AllocatedPercent()) > 100 {
		msg := OverBudgetMessage
		w.data.ErrorMessage = &msg
		return false, ErrOverBudget
	}
	w.data.ErrorMessage = nil
	if w.data.StepIndex >= StepCount {
		return true, nil
	}
	w.data.StepIndex++
	return false, nil
}

// Previous moves back one step.
func (w *Wizard) Previous() {
	if w.data.StepIndex > StepBudget {
		w.data.StepIndex--
	}
}

// SpreadEvenly offers categories with the budget split evenly between them.
func SpreadEvenly(categories []model.Category) []model.SetupCategory {
	out := make([]model.SetupCategory, len(categories))
	for i, c := range categories {
		out[i] = model.SetupCategory{Category: c, Budget: 100 / float64(len(categories))}
	}
	return out
}

// TestCredentials checks creds with the server and keeps them when they
// work.
func (w *Wizard) TestCredentials(ctx context.Context, backend Backend, creds model.Credentials) error {
	w.data.CreditCardCredentials = nil
	if err := backend.TestCreditCardCredentials(ctx, creds); err != nil {
		return fmt.Errorf("test credentials: %w", err)
	}
	w.data.CreditCardCredentials = &creds
	return nil
}

// Submit builds the request and completes the setup. A failure is kept as
// the wizard's error message.
func (w *Wizard) Submit(ctx context.Context, backend Backend, errorMessage func(error) string) (*model.User, error) {
	req, err := BuildRequest(w.data)
	if err == nil {
		var user *model.User
		user, err = backend.SetupUser(ctx, req)
		if err == nil {
			w.data.ErrorMessage = nil
			return user, nil
		}
	}

	msg := err.Error()
	if errorMessage != nil {
		msg = errorMessage(err)
	}
	w.data.ErrorMessage = &msg
	return nil, err
}

// BuildRequest turns wizard data into a setup-user request: categories with
// no allocation are dropped, percentages become amounts of the monthly
// budget, and every word of the name is capitalized.
func BuildRequest(data model.SetupData) (model.SetupRequest, error) {
	if data.CreditCardCredentials == nil {
		return model.SetupRequest{}, ErrCredentialsNotTested
	}

	categories := make([]model.SetupCategory, 0, len(data.Categories))
	for _, c := range data.Categories {
		if c.Budget <= 0 {
			continue
		}
		c.Budget *= float64(data.MonthlyBudget) / 100
		categories = append(categories, c)
	}

	creds := *data.CreditCardCredentials
	return model.SetupRequest{
		Budget:                data.MonthlyBudget,
		Categories:            categories,
		FullName:              CapitalizeName(data.FullName),
		Currency:              data.Currency,
		CreditCardCredentials: &creds,
	}, nil
}

// CapitalizeName upper-cases the first letter of every space separated
// word and leaves the rest as typed.
func CapitalizeName(name string) string {
	words := strings.Split(name, " ")
	for i, word := range words {
		r, size := utf8.DecodeRuneInString(word)
		if size == 0 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + word[size:]
	}
	return strings.Join(words, " ")
}
