package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rxreturn/rxreturn-backend/internal/optimization/service"
	"github.com/rxreturn/rxreturn-backend/pkg/errors"
	"github.com/rxreturn/rxreturn-backend/pkg/httputil"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
)

// OptimizationHandler handles recommendation and package HTTP requests
type OptimizationHandler struct {
	optimization *service.OptimizationService
	logger       *logger.Logger
}

// NewOptimizationHandler creates a new optimization handler
func NewOptimizationHandler(optimization *service.OptimizationService, log *logger.Logger) *OptimizationHandler {
	return &OptimizationHandler{optimization: optimization, logger: log}
}

// countParam reads a count parameter, accepting the documented CamelCase
// name alongside the snake_case one.
func countParam(q url.Values, names ...string) string {
	for _, name := range names {
		if v := q.Get(name); v != "" {
			return v
		}
	}
	return ""
}

// parseCounts parses a csv count parameter aligned positionally with the
// ndc list. An absent parameter yields the fallback for every position; a
// present one must match the ndc count exactly.
func parseCounts(raw, name string, want, fallback int) ([]int, error) {
	if raw == "" {
		counts := make([]int, want)
		for i := range counts {
			counts[i] = fallback
		}
		return counts, nil
	}

	parts := strings.Split(raw, ",")
	if len(parts) != want {
		return nil, errors.BadRequest(name + " must have the same number of values as ndc")
	}

	counts := make([]int, 0, want)
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return nil, errors.BadRequest(name + " values must be non-negative integers")
		}
		counts = append(counts, n)
	}
	return counts, nil
}

// Recommendations handles GET /optimization/recommendations
func (h *OptimizationHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	rawNDCs := q.Get("ndc")
	if rawNDCs == "" {
		httputil.Error(w, errors.BadRequest("ndc query parameter is required"))
		return
	}
	ndcs := strings.Split(rawNDCs, ",")

	fulls, err := parseCounts(countParam(q, "full_count", "FullCount"), "full_count", len(ndcs), 1)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	partials, err := parseCounts(countParam(q, "partial_count", "PartialCount"), "partial_count", len(ndcs), 0)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	inputs := make([]service.ItemInput, 0, len(ndcs))
	for i, code := range ndcs {
		inputs = append(inputs, service.ItemInput{
			NDC:     strings.TrimSpace(code),
			Full:    fulls[i],
			Partial: partials[i],
		})
	}

	result, err := h.optimization.Recommend(r.Context(), inputs)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, result)
}

// ItemsRequest carries a list of requested items
type ItemsRequest struct {
	Items []service.ItemInput `json:"items" validate:"required,min=1,dive"`
}

// Suggestions handles POST /optimization/suggestions
func (h *OptimizationHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	var req ItemsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.optimization.Suggest(r.Context(), httputil.GetPharmacyID(r.Context()), req.Items)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, result)
}

// PackageSuggestions handles POST /optimization/packages/suggestions
func (h *OptimizationHandler) PackageSuggestions(w http.ResponseWriter, r *http.Request) {
	var req ItemsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.optimization.SuggestPackages(r.Context(), httputil.GetPharmacyID(r.Context()), req.Items)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, result)
}

// DistributorSuggestionRequest prices items for one chosen distributor
type DistributorSuggestionRequest struct {
	DistributorID string              `json:"distributor_id" validate:"required,uuid"`
	Items         []service.ItemInput `json:"items" validate:"required,min=1,dive"`
}

// DistributorSuggestion handles POST /optimization/packages/distributor-suggestion
func (h *OptimizationHandler) DistributorSuggestion(w http.ResponseWriter, r *http.Request) {
	var req DistributorSuggestionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.optimization.SuggestForDistributor(r.Context(), req.DistributorID, req.Items)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, result)
}

// CreatePackageRequest creates a package from suggestion output
type CreatePackageRequest struct {
	DistributorID string              `json:"distributor_id" validate:"required,uuid"`
	Items         []service.ItemInput `json:"items" validate:"required,min=1,dive"`
}

// CreatePackage handles POST /optimization/custom-packages
func (h *OptimizationHandler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var req CreatePackageRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	pkg, err := h.optimization.CreatePackage(r.Context(), httputil.GetPharmacyID(r.Context()), req.DistributorID, req.Items)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, pkg)
}

// GetPackage handles GET /optimization/custom-packages/{id}
func (h *OptimizationHandler) GetPackage(w http.ResponseWriter, r *http.Request) {
	pkg, err := h.optimization.GetPackage(r.Context(), httputil.GetPharmacyID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, pkg)
}

// ListPackages handles GET /optimization/custom-packages
func (h *OptimizationHandler) ListPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.optimization.ListPackages(r.Context(), httputil.GetPharmacyID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, packages)
}

// UpdatePackageStatus handles PUT /optimization/custom-packages/{id}/status
func (h *OptimizationHandler) UpdatePackageStatus(w http.ResponseWriter, r *http.Request) {
	var req service.DeliveryInput
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	pkg, err := h.optimization.SetPackageDelivered(r.Context(), httputil.GetPharmacyID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, pkg)
}

// DeletePackage handles DELETE /optimization/custom-packages/{id}
func (h *OptimizationHandler) DeletePackage(w http.ResponseWriter, r *http.Request) {
	if err := h.optimization.DeletePackage(r.Context(), httputil.GetPharmacyID(r.Context()), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}
