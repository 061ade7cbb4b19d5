package testutil

import (
	"fmt"
	"time"

	"github.com/Veraticus/expensy/internal/model"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
)

// Fixtures generates deterministic backend data.
type Fixtures struct {
	faker *gofakeit.Faker
	base  time.Time
}

// NewFixtures returns a generator seeded with seed.
func NewFixtures(seed uint64) *Fixtures {
	return &Fixtures{
		faker: gofakeit.New(seed),
		base:  time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC),
	}
}

// Categories returns categories with the given names and ids 1..n.
func (f *Fixtures) Categories(names ...string) []model.Category {
	out := make([]model.Category, len(names))
	for i, name := range names {
		owner := "user@example.com"
		out[i] = model.Category{
			ID:              i + 1,
			CategoryName:    name,
			Owner:           &owner,
			MonthlyBudget:   f.faker.IntRange(100, 3000),
			MonthlySpending: float64(f.faker.IntRange(0, 2000)),
		}
	}
	return out
}

// Transaction returns a categorized transaction with a stable id derived
// from index. Rows are dated one day apart going back from the base date.
func (f *Fixtures) Transaction(index int, category model.Category) *model.Transaction {
	amount := decimal.NewFromFloat(f.faker.Price(5, 900)).Round(2)
	purchased := f.base.AddDate(0, 0, -index)
	categoryID := category.ID
	categoryName := category.CategoryName

	return &model.Transaction{
		ID:                fmt.Sprintf("txn-%04d", index),
		ARN:               f.faker.UUID(),
		PurchaseDate:      model.NewDate(purchased),
		PaymentDate:       model.NewDate(purchased.AddDate(0, 1, 0)),
		CategoryID:        &categoryID,
		CategoryName:      &categoryName,
		MerchantData:      model.MerchantData{Name: f.faker.Company(), Address: f.faker.City()},
		ShortCardNumber:   fmt.Sprintf("%04d", f.faker.IntRange(0, 9999)),
		TransactionAmount: amount,
		OriginalAmount:    amount,
		OriginalCurrency:  "ILS",
	}
}

// Transactions returns n transactions spread over categories.
func (f *Fixtures) Transactions(n int, categories []model.Category) []*model.Transaction {
	if len(categories) == 0 {
		categories = f.Categories("General")
	}
	out := make([]*model.Transaction, n)
	for i := range out {
		out[i] = f.Transaction(i, categories[i%len(categories)])
	}
	return out
}

// Chunk lays rows[index:index+length] out at their global positions in
// chunks of chunkSize, leaving every other slot pending.
func Chunk(rows []*model.Transaction, chunkSize, index, length int) [][]*model.Transaction {
	if len(rows) == 0 || chunkSize <= 0 {
		return [][]*model.Transaction{}
	}
	chunks := make([][]*model.Transaction, (len(rows)-1)/chunkSize+1)
	end := min(index+length, len(rows))
	for i := max(index, 0); i < end; i++ {
		c := i / chunkSize
		if chunks[c] == nil {
			size := min(chunkSize, len(rows)-c*chunkSize)
			chunks[c] = make([]*model.Transaction, size)
		}
		chunks[c][i%chunkSize] = rows[i]
	}
	return chunks
}
