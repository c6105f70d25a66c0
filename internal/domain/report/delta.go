package report

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// FormatDelta renders the percentage change from previous to current with
// one decimal and an explicit sign. A zero baseline yields "+0.0%" when
// current is also zero and "+100.0%" otherwise.
func FormatDelta(previous, current decimal.Decimal) string {
	if previous.IsZero() {
		if current.IsZero() {
			return "+0.0%"
		}
		return "+100.0%"
	}
	pct := current.Sub(previous).Div(previous.Abs()).Mul(hundred).Round(1)
	if pct.IsNegative() {
		return pct.StringFixed(1) + "%"
	}
	return "+" + pct.StringFixed(1) + "%"
}

// FormatCountDelta is FormatDelta for integer counts
func FormatCountDelta(previous, current int64) string {
	return FormatDelta(decimal.NewFromInt(previous), decimal.NewFromInt(current))
}
