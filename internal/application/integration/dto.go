package integration

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	apptrade "github.com/marketsync/backend/internal/application/trade"
	"github.com/marketsync/backend/internal/domain/integration"
)

// IngestOrderRequest is the create-order request body.
// Payload is the channel's sale notification, passed to the channel adapter untouched.
type IngestOrderRequest struct {
	Channel   string          `json:"channel" binding:"required,channel"`
	ProductID *uuid.UUID      `json:"product_id"`
	Payload   json.RawMessage `json:"payload" binding:"required"`
}

// DelistRequest asks for a product's listing on one channel to be taken down
type DelistRequest struct {
	Channel string `json:"channel" binding:"required,channel"`
}

// ListingResponse represents a marketplace listing in API responses
type ListingResponse struct {
	ID            uuid.UUID           `json:"id"`
	ProductID     uuid.UUID           `json:"product_id"`
	Channel       integration.Channel `json:"channel"`
	ChannelName   string              `json:"channel_name"`
	MarketplaceID string              `json:"marketplace_id"`
	Slug          *string             `json:"slug,omitempty"`
	Status        *string             `json:"status,omitempty"`
	Visible       bool                `json:"visible"`
	CreatedAt     time.Time           `json:"created_at"`
}

// ListingDelistResponse is the outcome for one listing
type ListingDelistResponse struct {
	ListingID     uuid.UUID           `json:"listing_id"`
	Channel       integration.Channel `json:"channel"`
	MarketplaceID string              `json:"marketplace_id,omitempty"`
	Action        string              `json:"action"`
	Outcome       string              `json:"outcome"`
	RetryTaskID   *uuid.UUID          `json:"retry_task_id,omitempty"`
	Error         string              `json:"error,omitempty"`
}

// DelistResponse is the outcome of a delisting pass
type DelistResponse struct {
	ProductID   uuid.UUID               `json:"product_id"`
	SoldChannel integration.Channel     `json:"sold_channel"`
	Listings    []ListingDelistResponse `json:"listings"`
	ChannelLess bool                    `json:"channel_less"`
	Failed      int                     `json:"failed"`
	RetryTaskID *uuid.UUID              `json:"retry_task_id,omitempty"`
}

// OtherListingsResponse lists a product's listings outside one channel
type OtherListingsResponse struct {
	ProductID uuid.UUID         `json:"product_id"`
	Listings  []ListingResponse `json:"other_listings"`
}

// IngestOrderResponse is the create-order response
type IngestOrderResponse struct {
	Order          apptrade.OrderResponse `json:"order"`
	Duplicate      bool                   `json:"duplicate"`
	PartialFailure bool                   `json:"partial_failure"`
	Delist         *DelistResponse        `json:"delist,omitempty"`
}

// ToListingResponse converts a domain listing to ListingResponse
func ToListingResponse(l *integration.MarketplaceListing) ListingResponse {
	resp := ListingResponse{
		ID:            l.ID,
		ProductID:     l.ProductID,
		Channel:       l.Channel,
		ChannelName:   l.Channel.DisplayName(),
		MarketplaceID: l.MarketplaceID,
		Slug:          l.Slug,
		Visible:       l.IsVisible(),
		CreatedAt:     l.CreatedAt,
	}
	if l.Status != nil {
		status := string(*l.Status)
		resp.Status = &status
	}
	return resp
}

// ToOtherListingsResponse converts the coordinator lookup result
func ToOtherListingsResponse(o *OtherListings) OtherListingsResponse {
	resp := OtherListingsResponse{
		ProductID: o.ProductID,
		Listings:  make([]ListingResponse, len(o.Listings)),
	}
	for i := range o.Listings {
		resp.Listings[i] = ToListingResponse(&o.Listings[i])
	}
	return resp
}

// ToListingDelistResponse converts one listing outcome
func ToListingDelistResponse(d *ListingDelist) ListingDelistResponse {
	resp := ListingDelistResponse{
		ListingID:     d.Listing.ID,
		Channel:       d.Listing.Channel,
		MarketplaceID: d.Listing.MarketplaceID,
		Action:        string(d.Action),
		Outcome:       string(d.Outcome),
		RetryTaskID:   d.TaskID,
	}
	if d.Err != nil {
		resp.Error = d.Err.Error()
	}
	return resp
}

// ToDelistResponse converts a delisting pass result
func ToDelistResponse(r *DelistResult) DelistResponse {
	resp := DelistResponse{
		ProductID:   r.ProductID,
		SoldChannel: r.SoldChannel,
		Listings:    make([]ListingDelistResponse, len(r.Listings)),
		ChannelLess: r.ChannelLess,
		Failed:      r.Failed,
		RetryTaskID: r.TaskID,
	}
	for i := range r.Listings {
		resp.Listings[i] = ToListingDelistResponse(&r.Listings[i])
	}
	return resp
}

// ToIngestOrderResponse converts an ingestion result
func ToIngestOrderResponse(r *IngestResult) IngestOrderResponse {
	resp := IngestOrderResponse{
		Order:          apptrade.ToOrderResponse(r.Order),
		Duplicate:      r.Duplicate,
		PartialFailure: r.PartialFailure,
	}
	if r.Delist != nil {
		d := ToDelistResponse(r.Delist)
		resp.Delist = &d
	}
	return resp
}
