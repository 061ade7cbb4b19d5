package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrStartDateInPast rejects new recurring items scheduled before today.
var ErrStartDateInPast = errors.New("start date cannot be in the past")

// FrequencyUnit is the period a recurring transaction repeats on.
type FrequencyUnit string

// Supported frequency units.
const (
	FrequencyDays   FrequencyUnit = "days"
	FrequencyWeeks  FrequencyUnit = "weeks"
	FrequencyMonths FrequencyUnit = "months"
)

// Valid reports whether u is a unit the backend schedules.
func (u FrequencyUnit) Valid() bool {
	switch u {
	case FrequencyDays, FrequencyWeeks, FrequencyMonths:
		return true
	default:
		return false
	}
}

// RecurringTransaction is a transaction the backend re-creates on a schedule.
type RecurringTransaction struct {
	StartDate       Date          `json:"startDate"`
	ScannedAt       Date          `json:"scannedAt"`
	Transaction     *Transaction  `json:"transaction"`
	TransactionID   string        `json:"transactionId"`
	TransactionName string        `json:"transactionName"`
	FrequencyUnit   FrequencyUnit `json:"frequencyUnit"`
	ID              int           `json:"id"`
	FrequencyValue  int           `json:"frequencyValue"`
}

// RecurringInput is the body of create- and update-recurring-transaction.
// ID is only sent on update.
type RecurringInput struct {
	ID             *int          `json:"id,omitempty"`
	Name           string        `json:"name" validate:"required"`
	FrequencyUnit  FrequencyUnit `json:"frequencyUnit" validate:"required,oneof=days weeks months"`
	StartDate      string        `json:"startDate" validate:"required,datetime=2006-01-02"`
	Amount         float64       `json:"amount" validate:"gt=0"`
	FrequencyValue int           `json:"frequencyValue" validate:"min=1,max=4"`
	CategoryID     int           `json:"categoryId" validate:"required"`
}

// NewRecurringInput prefills an update form from an existing item.
func NewRecurringInput(r *RecurringTransaction) RecurringInput {
	id := r.ID
	in := RecurringInput{
		ID:             &id,
		Name:           r.TransactionName,
		FrequencyUnit:  r.FrequencyUnit,
		FrequencyValue: r.FrequencyValue,
		StartDate:      r.StartDate.DateString(),
	}
	if r.Transaction != nil {
		in.Amount = r.Transaction.TransactionAmount.InexactFloat64()
		if r.Transaction.CategoryID != nil {
			in.CategoryID = *r.Transaction.CategoryID
		}
	}
	return in
}

// DefaultStartDate is the first day of the month nearest to now: this month
// when today is the first, next month otherwise.
func DefaultStartDate(now time.Time) time.Time {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if now.Day() == 1 {
		return first
	}
	return first.AddDate(0, 1, 0)
}

// CheckStartDate rejects a start date before the day of now. It applies to
// new items only; existing ones keep the date they were created with.
func (in RecurringInput) CheckStartDate(now time.Time) error {
	start, err := time.ParseInLocation(time.DateOnly, in.StartDate, now.Location())
	if err != nil {
		return fmt.Errorf("start date %q: %w", in.StartDate, err)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if start.Before(today) {
		return ErrStartDateInPast
	}
	return nil
}
