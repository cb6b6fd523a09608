package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/rxreturn/rxreturn-backend/internal/catalog/repository"
	"github.com/rxreturn/rxreturn-backend/internal/catalog/service"
	"github.com/rxreturn/rxreturn-backend/pkg/httputil"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
)

// ProductHandler handles product HTTP requests
type ProductHandler struct {
	catalog *service.CatalogService
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalog *service.CatalogService, log *logger.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, logger: log}
}

// Get handles GET /products/{ndc}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "ndc"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, product)
}

// UpsertProductRequest is the admin product upsert payload
type UpsertProductRequest struct {
	NDC                 string  `json:"ndc" validate:"required"`
	ProprietaryName     string  `json:"proprietary_name" validate:"required"`
	NonProprietaryName  *string `json:"non_proprietary_name"`
	Manufacturer        *string `json:"manufacturer"`
	WACUnitPrice        float64 `json:"wac_unit_price" validate:"gte=0"`
	DEASchedule         *string `json:"dea_schedule"`
	ReturnWindowDays    int     `json:"return_window_days" validate:"gte=0"`
	BaseCreditPct       float64 `json:"base_credit_pct" validate:"gte=0,lte=100"`
	DestructionRequired bool    `json:"destruction_required"`
}

// Upsert handles POST /admin/products
func (h *ProductHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertProductRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	product := &repository.Product{
		NDC:                 req.NDC,
		ProprietaryName:     req.ProprietaryName,
		NonProprietaryName:  req.NonProprietaryName,
		Manufacturer:        req.Manufacturer,
		WACUnitPrice:        decimal.NewFromFloat(req.WACUnitPrice),
		DEASchedule:         req.DEASchedule,
		ReturnWindowDays:    req.ReturnWindowDays,
		BaseCreditPct:       decimal.NewFromFloat(req.BaseCreditPct),
		DestructionRequired: req.DestructionRequired,
	}

	if err := h.catalog.UpsertProduct(r.Context(), product); err != nil {
		httputil.Error(w, err)
		return
	}

	h.logger.Info().Str("ndc", product.NDC).Msg("product upserted")
	httputil.JSON(w, http.StatusOK, product)
}
