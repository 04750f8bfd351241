package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nhle/financeai/internal/model"
)

// SampleSnapshot returns a small dashboard snapshot fetched at fetchedAt.
func SampleSnapshot(fetchedAt time.Time) model.Snapshot {
	deadline := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	created := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	return model.Snapshot{
		Stats: model.DashboardStats{
			TotalBalance:    decimal.RequireFromString("24563.00"),
			MonthlyIncome:   decimal.RequireFromString("8450.00"),
			MonthlyExpenses: decimal.RequireFromString("4028.00"),
			SavingsRate:     decimal.RequireFromString("52.3"),
		},
		Spending: model.SpendingAnalytics{
			Data: []model.SpendingCategory{
				{Name: model.CategoryFood, Value: decimal.NewFromInt(850)},
				{Name: model.CategoryShopping, Value: decimal.NewFromInt(650)},
			},
			Total: decimal.NewFromInt(1500),
		},
		Transactions: []model.Transaction{
			{
				ID:        1,
				Title:     "Salary Deposit",
				Category:  model.CategoryIncome,
				Amount:    decimal.RequireFromString("5200.00"),
				Date:      created,
				Type:      model.TransactionIncome,
				Bank:      "Chase",
				CreatedAt: created,
			},
			{
				ID:        2,
				Title:     "Whole Foods Market",
				Category:  model.CategoryFood,
				Amount:    decimal.RequireFromString("-156.32"),
				Date:      created.Add(24 * time.Hour),
				Type:      model.TransactionExpense,
				CreatedAt: created,
			},
		},
		Goals: []model.Goal{
			{
				ID:        1,
				Title:     "Emergency Fund",
				Target:    decimal.NewFromInt(15000),
				Current:   decimal.NewFromInt(8500),
				Deadline:  &deadline,
				Color:     "primary",
				CreatedAt: created,
			},
			{
				ID:        2,
				Title:     "New Laptop",
				Target:    decimal.NewFromInt(2500),
				Current:   decimal.NewFromInt(1800),
				Color:     "accent",
				CreatedAt: created,
			},
		},
		FetchedAt: fetchedAt,
	}
}
