package mockapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nhle/financeai/internal/model"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 9, 0, 0, 0, time.UTC)
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fixtureStats() model.DashboardStats {
	return model.DashboardStats{
		TotalBalance:    money("24580"),
		MonthlyIncome:   money("6050"),
		MonthlyExpenses: money("2880"),
		SavingsRate:     money("52.4"),
	}
}

func fixtureSpending() model.SpendingAnalytics {
	data := []model.SpendingCategory{
		{Name: model.CategoryHousing, Value: money("1500")},
		{Name: model.CategoryFood, Value: money("450")},
		{Name: model.CategoryTransport, Value: money("280")},
		{Name: model.CategoryShopping, Value: money("320")},
		{Name: model.CategoryUtilities, Value: money("180")},
		{Name: model.CategoryEntertainment, Value: money("150")},
	}
	total := decimal.Zero
	for _, c := range data {
		total = total.Add(c.Value)
	}
	return model.SpendingAnalytics{Data: data, Total: total}
}

func fixtureTransactions() []model.Transaction {
	created := day(2025, time.December, 23)
	return []model.Transaction{
		{ID: 1, Title: "Salary Deposit", Category: model.CategoryIncome, Amount: money("5200"), Date: day(2025, time.December, 23), Type: model.TransactionIncome, Bank: "Chase Bank", CreatedAt: created},
		{ID: 2, Title: "Amazon Purchase", Category: model.CategoryShopping, Amount: money("-89.99"), Date: day(2025, time.December, 22), Type: model.TransactionExpense, Bank: "Chase Bank", CreatedAt: created},
		{ID: 3, Title: "Uber Ride", Category: model.CategoryTransport, Amount: money("-24.50"), Date: day(2025, time.December, 22), Type: model.TransactionExpense, Bank: "Wells Fargo", CreatedAt: created},
		{ID: 4, Title: "Electric Bill", Category: model.CategoryUtilities, Amount: money("-145.00"), Date: day(2025, time.December, 21), Type: model.TransactionExpense, Bank: "Bank of America", CreatedAt: created},
		{ID: 5, Title: "Restaurant", Category: model.CategoryFood, Amount: money("-67.80"), Date: day(2025, time.December, 20), Type: model.TransactionExpense, Bank: "Chase Bank", CreatedAt: created},
		{ID: 6, Title: "Freelance Payment", Category: model.CategoryIncome, Amount: money("850"), Date: day(2025, time.December, 19), Type: model.TransactionIncome, Bank: "PayPal", CreatedAt: created},
	}
}

func fixtureGoals() []model.Goal {
	created := day(2025, time.January, 1)
	mar, jun, dec := day(2026, time.March, 31), day(2026, time.June, 30), day(2026, time.December, 31)
	return []model.Goal{
		{ID: 1, Title: "Emergency Fund", Target: money("10000"), Current: money("7500"), Deadline: &mar, Color: "primary", CreatedAt: created},
		{ID: 2, Title: "Vacation", Target: money("3000"), Current: money("1800"), Deadline: &jun, Color: "warning", CreatedAt: created},
		{ID: 3, Title: "New Car", Target: money("25000"), Current: money("5000"), Deadline: &dec, Color: "accent", CreatedAt: created},
	}
}

// syncBatches is what successive Gmail syncs report: the first finds new
// mail, later ones find nothing new.
var syncBatches = []struct{ total, fresh int }{
	{total: 24, fresh: 5},
	{total: 24, fresh: 0},
}

// advice maps question keywords to canned advisor answers.
var advice = []struct {
	keyword string
	answer  string
}{
	{"spending", "Housing is 52% of your spending this month, followed by food at 16%. Dining out is up 23% on last month."},
	{"save", "You spent 23% more on dining out this month. Cooking at home 2-3 more days per week could save you about $180/month."},
	{"goal", "Your Emergency Fund is 75% funded and on track for March. At the current pace the New Car goal needs $2,222/month to hit December."},
	{"budget", "Try capping Shopping at $250 and Entertainment at $120. That frees $100/month for your Vacation goal."},
}

const defaultAdvice = "Your savings rate of 52.4% is excellent. Keep your emergency fund topped up before investing the surplus."
