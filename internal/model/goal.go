package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a savings target tracked on the dashboard.
type Goal struct {
	ID       int             `json:"id"`
	Title    string          `json:"title"`
	Target   decimal.Decimal `json:"target"`
	Current  decimal.Decimal `json:"current"`
	Deadline *time.Time      `json:"deadline,omitempty"`

	// Color is a theme key ("primary", "warning", "accent").
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// Progress returns current/target clamped to [0, 1]. A zero target
// yields zero.
func (g Goal) Progress() float64 {
	if g.Target.Sign() <= 0 {
		return 0
	}
	p := g.Current.Div(g.Target).InexactFloat64()
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
