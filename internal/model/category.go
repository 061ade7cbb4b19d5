package model

import (
	"sort"
)

// Category is a spending category owned by a user, or a default category
// offered during setup when Owner is nil.
type Category struct {
	Owner           *string `json:"owner"`
	CategoryName    string  `json:"categoryName"`
	IconName        string  `json:"iconName,omitempty"`
	ColorCode       string  `json:"colorCode,omitempty"`
	MonthlySpending float64 `json:"monthlySpending"`
	ID              int     `json:"id"`
	MonthlyBudget   int     `json:"monthlyBudget"`
	IsPinned        bool    `json:"isPinned"`
}

// FindCategoryByName returns the category with the given name.
func FindCategoryByName(categories []Category, name string) (Category, bool) {
	for _, c := range categories {
		if c.CategoryName == name {
			return c, true
		}
	}
	return Category{}, false
}

// TopCategories returns up to n categories ordered by monthly spending, or
// nothing when no money was spent this month.
func TopCategories(categories []Category, n int) []Category {
	var total float64
	for _, c := range categories {
		total += c.MonthlySpending
	}
	if total == 0 || n <= 0 {
		return nil
	}

	sorted := make([]Category, len(categories))
	copy(sorted, categories)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MonthlySpending > sorted[j].MonthlySpending
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
