package integration

import "github.com/marketsync/backend/internal/domain/shared"

var (
	ErrChannelNotSupported = shared.ErrInvalidInput.Refine("CHANNEL_NOT_SUPPORTED", "Sales channel is not supported")
	ErrPayloadMalformed    = shared.ErrValidation.Refine("PAYLOAD_MALFORMED", "Channel payload is malformed")

	ErrListingNotFound       = shared.ErrNotFound.Refine("LISTING_NOT_FOUND", "Marketplace listing not found")
	ErrListingAlreadyExists  = shared.ErrAlreadyExists.Refine("LISTING_ALREADY_EXISTS", "Product is already listed on this channel")
	ErrListingInvalidProduct = shared.ErrValidation.Refine("LISTING_INVALID_PRODUCT", "Listing product ID cannot be empty")
	ErrListingInvalidID      = shared.ErrValidation.Refine("LISTING_INVALID_MARKETPLACE_ID", "Marketplace ID cannot be empty")

	ErrDelistTaskNotFound     = shared.ErrNotFound.Refine("DELIST_TASK_NOT_FOUND", "Delist task not found")
	ErrDelistTaskInvalidState = shared.ErrInvalidState.Refine("DELIST_TASK_INVALID_STATE", "Delist task cannot change to the requested state")
)
