package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rxreturn/rxreturn-backend/internal/returns/service"
	"github.com/rxreturn/rxreturn-backend/pkg/httputil"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
)

// ReturnsHandler handles return HTTP requests
type ReturnsHandler struct {
	returns *service.ReturnsService
	logger  *logger.Logger
}

// NewReturnsHandler creates a new returns handler
func NewReturnsHandler(returns *service.ReturnsService, log *logger.Logger) *ReturnsHandler {
	return &ReturnsHandler{returns: returns, logger: log}
}

// Create handles POST /returns
func (h *ReturnsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateInput
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	ret, err := h.returns.Create(r.Context(), httputil.GetPharmacyID(r.Context()), req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, ret)
}

// Get handles GET /returns/{id}
func (h *ReturnsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ret, err := h.returns.Get(r.Context(), httputil.GetPharmacyID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, ret)
}

// List handles GET /returns
func (h *ReturnsHandler) List(w http.ResponseWriter, r *http.Request) {
	returns, err := h.returns.List(r.Context(), httputil.GetPharmacyID(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, returns)
}

// UpdateItemsRequest replaces a draft return's items
type UpdateItemsRequest struct {
	Items []service.ItemInput `json:"items" validate:"required,min=1,dive"`
}

// UpdateItems handles PUT /returns/{id}
func (h *ReturnsHandler) UpdateItems(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	ret, err := h.returns.UpdateItems(r.Context(), httputil.GetPharmacyID(r.Context()), chi.URLParam(r, "id"), req.Items)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ret)
}

// UpdateStatusRequest moves a return to a new status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus handles PUT /returns/{id}/status
func (h *ReturnsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	ctx := r.Context()
	ret, err := h.returns.UpdateStatus(ctx, httputil.GetPharmacyID(ctx), chi.URLParam(r, "id"), req.Status, httputil.IsAdmin(ctx))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ret)
}

// Delete handles DELETE /returns/{id}
func (h *ReturnsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.returns.Delete(r.Context(), httputil.GetPharmacyID(r.Context()), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}
