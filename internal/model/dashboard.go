package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardStats holds the four headline figures shown as stat cards.
type DashboardStats struct {
	TotalBalance    decimal.Decimal `json:"total_balance"`
	MonthlyIncome   decimal.Decimal `json:"monthly_income"`
	MonthlyExpenses decimal.Decimal `json:"monthly_expenses"`

	// SavingsRate is a percentage, e.g. 52.4.
	SavingsRate decimal.Decimal `json:"savings_rate"`
}

// SpendingCategory is one slice of the spending breakdown.
type SpendingCategory struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// SpendingAnalytics is the payload of the spending analytics endpoint.
type SpendingAnalytics struct {
	Data  []SpendingCategory `json:"data"`
	Total decimal.Decimal    `json:"total"`
}

// Share returns the fraction of the total a category represents.
func (s SpendingAnalytics) Share(c SpendingCategory) float64 {
	if s.Total.Sign() <= 0 {
		return 0
	}
	return c.Value.Div(s.Total).InexactFloat64()
}

// Snapshot is everything the dashboard renders, fetched together.
type Snapshot struct {
	ID           string            `json:"id"`
	Stats        DashboardStats    `json:"stats"`
	Spending     SpendingAnalytics `json:"spending"`
	Transactions []Transaction     `json:"transactions"`
	Goals        []Goal            `json:"goals"`
	FetchedAt    time.Time         `json:"fetched_at"`

	// Stale is set when any panel could not be refreshed and cached
	// values are shown instead.
	Stale bool `json:"-"`
}
