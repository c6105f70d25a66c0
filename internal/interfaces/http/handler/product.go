package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcatalog "github.com/marketsync/backend/internal/application/catalog"
	appintegration "github.com/marketsync/backend/internal/application/integration"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/interfaces/http/router"
)

// ListingCoordinator finds and takes down a product's channel listings
type ListingCoordinator interface {
	FindOtherListings(ctx context.Context, id uuid.UUID, soldChannel integration.Channel) (*appintegration.OtherListings, error)
	DelistChannel(ctx context.Context, productID uuid.UUID, channel integration.Channel) (*appintegration.ListingDelist, error)
	RemoveListing(ctx context.Context, productID uuid.UUID, channel integration.Channel) (*appintegration.ListingDelist, error)
}

// ProductStatusChanger reads products and applies seller status changes
type ProductStatusChanger interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*appcatalog.ProductResponse, error)
	ListSellerProducts(ctx context.Context, sellerID uuid.UUID, filter appcatalog.ProductListFilter) ([]appcatalog.ProductResponse, error)
	ChangeStatus(ctx context.Context, productID uuid.UUID, target string) (*appcatalog.ChangeStatusResponse, error)
}

// ProductHandler handles product and listing endpoints
type ProductHandler struct {
	BaseHandler
	listings ListingCoordinator
	products ProductStatusChanger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(listings ListingCoordinator, products ProductStatusChanger) *ProductHandler {
	return &ProductHandler{listings: listings, products: products}
}

// Routes returns the product route group
func (h *ProductHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("products", "/products").
		GET("/:id", h.Get).
		GET("/:id/other-listings", h.OtherListings).
		POST("/:id/delist", h.Delist).
		DELETE("/:id/listings/:channel", h.RemoveListing).
		POST("/:id/status", h.ChangeStatus)
}

// SellerRoutes returns the seller-scoped product routes
func (h *ProductHandler) SellerRoutes() *router.DomainGroup {
	return router.NewDomainGroup("sellers", "/sellers").
		GET("/:id/products", h.ListBySeller)
}

// Get godoc
// @Summary      Get product by ID
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Response{data=appcatalog.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	product, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// OtherListings godoc
// @Summary      Listings outside the sale channel
// @Description  id may be a product id or one of its listing ids. Without sold_channel every visible listing is returned.
// @Tags         products
// @Produce      json
// @Param        id           path  string true  "Product or listing ID"
// @Param        sold_channel query string false "etsy, ebay or depop"
// @Success      200 {object} dto.Response{data=appintegration.OtherListingsResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id}/other-listings [get]
func (h *ProductHandler) OtherListings(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	soldChannel := integration.Channel(c.Query("sold_channel"))
	if soldChannel != "" && !soldChannel.IsValid() {
		h.HandleError(c, integration.ErrChannelNotSupported)
		return
	}

	others, err := h.listings.FindOtherListings(c.Request.Context(), id, soldChannel)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, appintegration.ToOtherListingsResponse(others))
}

// Delist godoc
// @Summary      Delist a product from one channel
// @Description  Applies the channel's delist policy: etsy listings are deactivated, ebay and depop listings are removed. Delisting an already delisted channel is a no-op.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "Product ID"
// @Param        request body appintegration.DelistRequest true "Channel to delist"
// @Success      200 {object} dto.Response{data=appintegration.ListingDelistResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id}/delist [post]
func (h *ProductHandler) Delist(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appintegration.DelistRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.listings.DelistChannel(c.Request.Context(), id, integration.Channel(req.Channel))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, appintegration.ToListingDelistResponse(result))
}

// RemoveListing godoc
// @Summary      Remove a product's listing on one channel
// @Tags         products
// @Produce      json
// @Param        id      path string true "Product ID"
// @Param        channel path string true "etsy, ebay or depop"
// @Success      200 {object} dto.Response{data=appintegration.ListingDelistResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id}/listings/{channel} [delete]
func (h *ProductHandler) RemoveListing(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	removed, err := h.listings.RemoveListing(c.Request.Context(), id, integration.Channel(c.Param("channel")))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, appintegration.ToListingDelistResponse(removed))
}

// ChangeStatus godoc
// @Summary      Change a product's status
// @Description  Moving a product to sold or deactivated withdraws its listings.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id      path string                         true "Product ID"
// @Param        request body appcatalog.ChangeStatusRequest true "Target status"
// @Success      200 {object} dto.Response{data=appcatalog.ChangeStatusResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id}/status [post]
func (h *ProductHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appcatalog.ChangeStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.products.ChangeStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListBySeller godoc
// @Summary      List a seller's products
// @Tags         products
// @Produce      json
// @Param        id     path  string true  "Seller ID"
// @Param        status query string false "Product status"
// @Success      200 {object} dto.Response{data=[]appcatalog.ProductResponse}
// @Router       /sellers/{id}/products [get]
func (h *ProductHandler) ListBySeller(c *gin.Context) {
	sellerID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var filter appcatalog.ProductListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	products, err := h.products.ListSellerProducts(c.Request.Context(), sellerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}
