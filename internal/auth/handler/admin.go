package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rxreturn/rxreturn-backend/internal/auth/repository"
	"github.com/rxreturn/rxreturn-backend/pkg/httputil"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
)

// AdminHandler handles admin pharmacy management requests
type AdminHandler struct {
	pharmacies *repository.PharmacyRepository
	logger     *logger.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(pharmacies *repository.PharmacyRepository, log *logger.Logger) *AdminHandler {
	return &AdminHandler{pharmacies: pharmacies, logger: log}
}

// ListPharmacies handles GET /admin/pharmacies
func (h *AdminHandler) ListPharmacies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := 1, 50
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		page = n
	}
	if n, err := strconv.Atoi(q.Get("per_page")); err == nil && n > 0 && n <= 200 {
		perPage = n
	}

	pharmacies, total, err := h.pharmacies.List(r.Context(), page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	httputil.JSONWithMeta(w, http.StatusOK, pharmacies, &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

// UpdatePharmacyStatusRequest suspends, blacklists or reactivates an account
type UpdatePharmacyStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended blacklisted"`
}

// UpdatePharmacyStatus handles PUT /admin/pharmacies/{id}/status
func (h *AdminHandler) UpdatePharmacyStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdatePharmacyStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.pharmacies.UpdateStatus(r.Context(), id, req.Status); err != nil {
		httputil.Error(w, err)
		return
	}

	h.logger.Info().Str("pharmacy_id", id).Str("status", req.Status).Msg("pharmacy status updated")

	pharmacy, err := h.pharmacies.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, pharmacy)
}
