package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/auth"
	catalogsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/catalog"
	"github.com/CrossGen-ai/ai-in-4-sub002/internal/transport/http/dto"
	httperrors "github.com/CrossGen-ai/ai-in-4-sub002/internal/transport/http/errors"
)

type CatalogHandler struct {
	service *catalogsvc.Service
}

func NewCatalogHandler(service *catalogsvc.Service) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	products, err := h.service.Products(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load products")
		return
	}

	out := make([]dto.ProductResponse, 0, len(products))
	for _, product := range products {
		out = append(out, dto.ProductResponse{
			ID:       product.ID,
			Name:     product.Name,
			Category: product.Category,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.ProductListResponse{Products: out})
}

// ResolvePrice answers what the authenticated user would pay for a product.
func (h *CatalogHandler) ResolvePrice(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	productID := chi.URLParam(r, "productID")
	price, err := h.service.ResolvePrice(r.Context(), identity.UserID, productID)
	if err != nil {
		handlePriceResolutionError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ResolvedPriceResponse{
		PriceID:   price.ID,
		ProductID: price.ProductID,
		Amount:    price.Amount,
		Currency:  price.Currency,
	})
}

func handlePriceResolutionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalogsvc.ErrProductNotFound):
		writeNotFound(w, "PRODUCT_NOT_FOUND", "product not found")
	case errors.Is(err, catalogsvc.ErrMissingEmploymentProfile):
		httperrors.Write(w, http.StatusUnprocessableEntity, httperrors.APIError{
			Code:    "EMPLOYMENT_PROFILE_REQUIRED",
			Message: "complete your employment profile before purchasing",
		})
	case errors.Is(err, catalogsvc.ErrNoEligiblePrice):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{
			Code:    "NO_ELIGIBLE_PRICE",
			Message: "no price is available for your employment status",
		})
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to resolve price")
	}
}
