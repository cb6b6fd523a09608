package handler

import (
	"net/http"
	"time"

	"github.com/rxreturn/rxreturn-backend/internal/catalog/service"
	"github.com/rxreturn/rxreturn-backend/pkg/errors"
	"github.com/rxreturn/rxreturn-backend/pkg/httputil"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
)

// ReportHandler handles return-report import requests
type ReportHandler struct {
	catalog *service.CatalogService
	logger  *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(catalog *service.CatalogService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{catalog: catalog, logger: log}
}

// ImportReportRequest is a bulk import of report records for one
// distributor and report date.
type ImportReportRequest struct {
	DistributorID string                      `json:"distributor_id" validate:"required,uuid"`
	ReportDate    string                      `json:"report_date" validate:"required"`
	Records       []service.ReportRecordInput `json:"records" validate:"required,min=1,dive"`
}

// Import handles POST /admin/reports/records
func (h *ReportHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportReportRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	reportDate, err := time.Parse("2006-01-02", req.ReportDate)
	if err != nil {
		httputil.Error(w, errors.BadRequest("report_date must be YYYY-MM-DD"))
		return
	}

	count, err := h.catalog.ImportReport(r.Context(), req.DistributorID, reportDate, req.Records)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	h.logger.Info().
		Str("distributor_id", req.DistributorID).
		Int("records", count).
		Msg("return report imported")

	httputil.Created(w, map[string]interface{}{
		"distributor_id": req.DistributorID,
		"report_date":    req.ReportDate,
		"imported":       count,
	})
}
