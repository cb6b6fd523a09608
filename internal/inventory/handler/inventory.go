package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rxreturn/rxreturn-backend/internal/inventory/repository"
	"github.com/rxreturn/rxreturn-backend/internal/inventory/service"
	"github.com/rxreturn/rxreturn-backend/pkg/httputil"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
	"github.com/rxreturn/rxreturn-backend/pkg/ndc"
)

// InventoryHandler handles inventory HTTP requests
type InventoryHandler struct {
	inventory *service.InventoryService
	logger    *logger.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(inventory *service.InventoryService, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, logger: log}
}

// Create handles POST /inventory/items
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.ItemInput
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.inventory.CreateItem(r.Context(), httputil.GetPharmacyID(r.Context()), req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, item)
}

// Get handles GET /inventory/items/{id}
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.inventory.GetItem(r.Context(), httputil.GetPharmacyID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, item)
}

// List handles GET /inventory/items
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.ItemFilter{
		Status:  q.Get("status"),
		Page:    1,
		PerPage: 50,
	}
	if raw := q.Get("ndc"); raw != "" {
		normalized, err := ndc.Normalize(raw)
		if err == nil {
			filter.NDC = normalized
		} else {
			filter.NDC = raw
		}
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		filter.Page = page
	}
	if perPage, err := strconv.Atoi(q.Get("per_page")); err == nil && perPage > 0 && perPage <= 200 {
		filter.PerPage = perPage
	}

	items, total, err := h.inventory.ListItems(r.Context(), httputil.GetPharmacyID(r.Context()), filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	totalPages := int((total + int64(filter.PerPage) - 1) / int64(filter.PerPage))
	httputil.JSONWithMeta(w, http.StatusOK, items, &httputil.Meta{
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

// Update handles PUT /inventory/items/{id}
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.ItemInput
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.inventory.UpdateItem(r.Context(), httputil.GetPharmacyID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// Delete handles DELETE /inventory/items/{id}
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.inventory.DeleteItem(r.Context(), httputil.GetPharmacyID(r.Context()), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// DashboardStats handles GET /inventory/dashboard/stats
func (h *InventoryHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.inventory.GetDashboardStats(r.Context(), httputil.GetPharmacyID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, stats)
}
