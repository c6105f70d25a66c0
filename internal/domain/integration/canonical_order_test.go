package integration

import (
	"testing"
	"time"

	"github.com/marketsync/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validCanonicalOrder(now time.Time) *CanonicalOrderData {
	return &CanonicalOrderData{
		Channel:        ChannelEtsy,
		ChannelOrderID: "3012345678",
		BuyerPaid:      decimal.RequireFromString("50.00"),
		SellerPaid:     decimal.RequireFromString("46.00"),
		TaxAmount:      decimal.RequireFromString("4.00"),
		Currency:       "USD",
		SoldAt:         now.Add(-time.Hour),
	}
}

func TestCanonicalOrderData_Validate(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(d *CanonicalOrderData)
		want   error
	}{
		{"valid", func(d *CanonicalOrderData) {}, nil},
		{"unknown channel", func(d *CanonicalOrderData) { d.Channel = "mercari" }, ErrChannelNotSupported},
		{"missing order id", func(d *CanonicalOrderData) { d.ChannelOrderID = " " }, shared.ErrValidation},
		{"negative buyer paid", func(d *CanonicalOrderData) { d.BuyerPaid = decimal.NewFromInt(-1) }, shared.ErrValidation},
		{"negative fees", func(d *CanonicalOrderData) { d.Fees = decimal.NewFromInt(-2) }, shared.ErrValidation},
		{"missing currency", func(d *CanonicalOrderData) { d.Currency = "" }, shared.ErrValidation},
		{"missing sold at", func(d *CanonicalOrderData) { d.SoldAt = time.Time{} }, shared.ErrValidation},
		{"sold in the future", func(d *CanonicalOrderData) { d.SoldAt = now.Add(time.Hour) }, shared.ErrValidation},
		{"small clock skew allowed", func(d *CanonicalOrderData) { d.SoldAt = now.Add(time.Minute) }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validCanonicalOrder(now)
			tt.mutate(d)
			err := d.Validate(now)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestCanonicalOrderData_DedupKey(t *testing.T) {
	d := validCanonicalOrder(time.Now())
	assert.Equal(t, "etsy:3012345678", d.DedupKey())
}
