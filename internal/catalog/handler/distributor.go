package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/rxreturn/rxreturn-backend/internal/catalog/repository"
	"github.com/rxreturn/rxreturn-backend/internal/catalog/service"
	"github.com/rxreturn/rxreturn-backend/pkg/errors"
	"github.com/rxreturn/rxreturn-backend/pkg/httputil"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
)

// DistributorHandler handles reverse distributor HTTP requests
type DistributorHandler struct {
	catalog *service.CatalogService
	logger  *logger.Logger
}

// NewDistributorHandler creates a new distributor handler
func NewDistributorHandler(catalog *service.CatalogService, log *logger.Logger) *DistributorHandler {
	return &DistributorHandler{catalog: catalog, logger: log}
}

// DistributorRequest is the create/update payload
type DistributorRequest struct {
	Name             string   `json:"name" validate:"required,min=2,max=200"`
	ContactEmail     *string  `json:"contact_email" validate:"omitempty,email"`
	ContactPhone     *string  `json:"contact_phone"`
	Address          *string  `json:"address"`
	City             *string  `json:"city"`
	State            *string  `json:"state"`
	Zip              *string  `json:"zip"`
	SupportedFormats []string `json:"supported_formats"`
	IsActive         *bool    `json:"is_active"`
}

// Create handles POST /admin/distributors
func (h *DistributorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req DistributorRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	d := &repository.ReverseDistributor{
		Name:             req.Name,
		ContactEmail:     req.ContactEmail,
		ContactPhone:     req.ContactPhone,
		Address:          req.Address,
		City:             req.City,
		State:            req.State,
		Zip:              req.Zip,
		SupportedFormats: req.SupportedFormats,
		IsActive:         true,
	}
	if req.IsActive != nil {
		d.IsActive = *req.IsActive
	}

	if err := h.catalog.CreateDistributor(r.Context(), d); err != nil {
		httputil.Error(w, err)
		return
	}

	h.logger.Info().Str("distributor_id", d.ID).Str("name", d.Name).Msg("distributor created")
	httputil.Created(w, d)
}

// Get handles GET /distributors/{id}
func (h *DistributorHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.catalog.GetDistributor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, d)
}

// List handles GET /distributors
func (h *DistributorHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	distributors, err := h.catalog.ListDistributors(r.Context(), activeOnly)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, distributors)
}

// Update handles PUT /admin/distributors/{id}
func (h *DistributorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req DistributorRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	existing, err := h.catalog.GetDistributor(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	existing.Name = req.Name
	existing.ContactEmail = req.ContactEmail
	existing.ContactPhone = req.ContactPhone
	existing.Address = req.Address
	existing.City = req.City
	existing.State = req.State
	existing.Zip = req.Zip
	existing.SupportedFormats = req.SupportedFormats
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	if err := h.catalog.UpdateDistributor(r.Context(), existing); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, existing)
}

// FeeScheduleRequest adds one fee schedule entry
type FeeScheduleRequest struct {
	DurationDays  int     `json:"duration_days" validate:"required,gte=1"`
	Percentage    float64 `json:"percentage" validate:"gte=0,lte=100"`
	EffectiveDate string  `json:"effective_date" validate:"required"`
}

// AddFeeEntry handles POST /admin/distributors/{id}/fee-schedule
func (h *DistributorHandler) AddFeeEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req FeeScheduleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	effectiveDate, err := time.Parse("2006-01-02", req.EffectiveDate)
	if err != nil {
		httputil.Error(w, errors.BadRequest("effective_date must be YYYY-MM-DD"))
		return
	}

	entry := &repository.FeeScheduleEntry{
		DistributorID: id,
		DurationDays:  req.DurationDays,
		Percentage:    decimal.NewFromFloat(req.Percentage),
		EffectiveDate: effectiveDate,
	}

	if err := h.catalog.AddFeeScheduleEntry(r.Context(), entry); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, entry)
}

// ListFeeSchedule handles GET /distributors/{id}/fee-schedule
func (h *DistributorHandler) ListFeeSchedule(w http.ResponseWriter, r *http.Request) {
	entries, err := h.catalog.ListFeeSchedule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, entries)
}
