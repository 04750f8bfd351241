package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types as reported by the backend.
const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

// Transaction categories the backend assigns when parsing bank emails.
const (
	CategoryIncome        = "Income"
	CategoryFood          = "Food"
	CategoryShopping      = "Shopping"
	CategoryTransport     = "Transport"
	CategoryUtilities     = "Utilities"
	CategoryEntertainment = "Entertainment"
	CategoryHealthcare    = "Healthcare"
	CategoryEducation     = "Education"
	CategoryHousing       = "Housing"
	CategoryOther         = "Other"
)

// Transaction is a single income or expense entry imported by the backend.
type Transaction struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`

	// Amount is signed: expenses are negative.
	Amount decimal.Decimal `json:"amount"`

	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	Bank        string    `json:"bank,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsIncome reports whether the transaction credits the account.
func (t Transaction) IsIncome() bool {
	return t.Type == TransactionIncome
}
