package ecommerce

import (
	"fmt"
	"strings"
	"time"

	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// ParseDecimal parses a decimal string, returning zero for empty or invalid input.
// Use it for optional amounts only.
func ParseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// parseRequiredDecimal parses an amount the adapter cannot do without
func parseRequiredDecimal(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, malformed("%s is required", field)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, malformed("%s is not a decimal: %q", field, s)
	}
	return d, nil
}

// currencyScale returns the number of minor-unit digits for an ISO 4217 code
func currencyScale(code string) (int32, string, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return 0, "", malformed("unknown currency %q", code)
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale), unit.String(), nil
}

// FromMinorUnits converts an integer minor-unit amount (cents, pence, yen)
// to a decimal using the currency's standard scale.
func FromMinorUnits(amount int64, code string) (decimal.Decimal, error) {
	scale, _, err := currencyScale(code)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(amount, -scale), nil
}

// FromDivisor converts amount/divisor, falling back to the currency's scale
// when the divisor is missing. The result is rounded to the currency scale.
func FromDivisor(amount, divisor int64, code string) (decimal.Decimal, error) {
	scale, _, err := currencyScale(code)
	if err != nil {
		return decimal.Zero, err
	}
	if divisor <= 0 {
		return decimal.New(amount, -scale), nil
	}
	return decimal.NewFromInt(amount).Div(decimal.NewFromInt(divisor)).Round(scale), nil
}

// normalizeCurrency validates and upper-cases an ISO 4217 code
func normalizeCurrency(code string) (string, error) {
	_, iso, err := currencyScale(code)
	return iso, err
}

// nonNegative floors an amount at zero. Fee models subtract estimates that
// can exceed small sale prices.
func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z0700",
}

// parseISOTime parses the ISO-8601 variants channels emit. Results are UTC.
func parseISOTime(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, malformed("%s is required", field)
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, malformed("%s is not an ISO-8601 timestamp: %q", field, s)
}

// parseEpochSeconds converts a unix timestamp in seconds
func parseEpochSeconds(field string, secs int64) (time.Time, error) {
	if secs <= 0 {
		return time.Time{}, malformed("%s is required", field)
	}
	return time.Unix(secs, 0).UTC(), nil
}

func malformed(format string, args ...any) error {
	return integration.ErrPayloadMalformed.Refine(integration.ErrPayloadMalformed.Code, fmt.Sprintf(format, args...))
}
