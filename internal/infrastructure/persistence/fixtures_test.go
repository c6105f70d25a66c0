package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/catalog"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/domain/trade"
	"github.com/marketsync/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func insertSeller(t *testing.T, db *gorm.DB, name string) uuid.UUID {
	t.Helper()
	seller := models.SellerModel{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	require.NoError(t, db.Create(&seller).Error)
	return seller.ID
}

func insertProduct(t *testing.T, db *gorm.DB, sellerID uuid.UUID, status catalog.ProductStatus, price string, createdAt time.Time) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sellerID, "Vintage denim jacket", decimal.RequireFromString(price), "usd")
	require.NoError(t, err)
	p.Status = status
	p.CreatedAt = createdAt.UTC()
	p.UpdatedAt = createdAt.UTC()
	require.NoError(t, NewGormProductRepository(db).Save(context.Background(), p))
	return p
}

func insertListing(t *testing.T, db *gorm.DB, productID uuid.UUID, channel integration.Channel, marketplaceID string) *integration.MarketplaceListing {
	t.Helper()
	l, err := integration.NewMarketplaceListing(productID, channel, marketplaceID)
	require.NoError(t, err)
	require.NoError(t, NewGormListingRepository(db).Save(context.Background(), l))
	return l
}

type orderSpec struct {
	channel    integration.Channel
	orderID    string
	sellerPaid string
	soldAt     time.Time
	email      string
	username   string
	name       string
}

func insertOrder(t *testing.T, db *gorm.DB, product *catalog.Product, o orderSpec) *trade.Order {
	t.Helper()
	if o.channel == "" {
		o.channel = integration.ChannelEtsy
	}
	paid := decimal.RequireFromString(o.sellerPaid)
	data := &integration.CanonicalOrderData{
		Channel:        o.channel,
		ChannelOrderID: o.orderID,
		BuyerPaid:      paid,
		SellerPaid:     paid,
		Currency:       "USD",
		SoldAt:         o.soldAt,
		Buyer: integration.BuyerInfo{
			Name:     o.name,
			Email:    o.email,
			Username: o.username,
		},
	}
	order, err := trade.NewOrderFromCanonical(data, product.ID, product.SellerID)
	require.NoError(t, err)
	require.NoError(t, db.Create(models.OrderModelFromDomain(order)).Error)
	return order
}
