package handler

import (
	"net/http"

	"github.com/rxreturn/rxreturn-backend/internal/credits/service"
	"github.com/rxreturn/rxreturn-backend/pkg/httputil"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
)

// CreditsHandler handles credit estimation requests
type CreditsHandler struct {
	credits *service.CreditsService
	logger  *logger.Logger
}

// NewCreditsHandler creates a new credits handler
func NewCreditsHandler(credits *service.CreditsService, log *logger.Logger) *CreditsHandler {
	return &CreditsHandler{credits: credits, logger: log}
}

// EstimateRequest is the credit estimate payload
type EstimateRequest struct {
	Items []service.EstimateItemInput `json:"items" validate:"required,min=1,dive"`
}

// Estimate handles POST /credits/estimate
func (h *CreditsHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	batch, err := h.credits.Estimate(r.Context(), req.Items)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batch)
}
