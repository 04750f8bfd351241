package model

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Money formats d as dollars with thousands separators and two decimals,
// e.g. "$24,580.00" or "-$89.99".
func Money(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + "$" + humanize.FormatFloat("#,###.##", d.Abs().Round(2).InexactFloat64())
}

// WholeMoney is Money without cents, for stat cards and goal amounts.
func WholeMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + "$" + humanize.Comma(d.Abs().Round(0).IntPart())
}

// Percent formats a percentage value such as 52.4 as "52.4%".
func Percent(d decimal.Decimal) string {
	return d.Round(1).StringFixed(1) + "%"
}
