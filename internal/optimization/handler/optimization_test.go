package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxreturn/rxreturn-backend/internal/optimization/handler"
	"github.com/rxreturn/rxreturn-backend/pkg/httputil"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
)

// newTestHandler builds a handler without a backing service. Only request
// parsing and validation paths run before the service is touched, so these
// tests exercise the rejection paths exclusively.
func newTestHandler() *handler.OptimizationHandler {
	return handler.NewOptimizationHandler(nil, logger.New("test", "test"))
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestRecommendations_RequiresNDC(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/optimization/recommendations", nil)
	rec := httptest.NewRecorder()
	h.Recommendations(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "fail", resp.Status)
	assert.Equal(t, "ndc query parameter is required", resp.Message)
}

func TestRecommendations_CountAlignment(t *testing.T) {
	h := newTestHandler()

	t.Run("full_count length must match ndc length", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/optimization/recommendations?ndc=00002-3227-30,00002-4462-30&full_count=1", nil)
		rec := httptest.NewRecorder()
		h.Recommendations(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, "full_count must have the same number of values as ndc", resp.Message)
	})

	t.Run("partial_count length must match ndc length", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/optimization/recommendations?ndc=00002-3227-30&partial_count=1,2", nil)
		rec := httptest.NewRecorder()
		h.Recommendations(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, "partial_count must have the same number of values as ndc", resp.Message)
	})

	t.Run("CamelCase alias is honored for length checks", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/optimization/recommendations?ndc=00002-3227-30,00002-4462-30&FullCount=1", nil)
		rec := httptest.NewRecorder()
		h.Recommendations(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, "full_count must have the same number of values as ndc", resp.Message)
	})

	t.Run("PartialCount alias is honored for length checks", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/optimization/recommendations?ndc=00002-3227-30&PartialCount=1,2", nil)
		rec := httptest.NewRecorder()
		h.Recommendations(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, "partial_count must have the same number of values as ndc", resp.Message)
	})

	t.Run("counts must be non-negative integers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/optimization/recommendations?ndc=00002-3227-30&full_count=-1", nil)
		rec := httptest.NewRecorder()
		h.Recommendations(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, "full_count values must be non-negative integers", resp.Message)
	})

	t.Run("counts must be numeric", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/optimization/recommendations?ndc=00002-3227-30&partial_count=two", nil)
		rec := httptest.NewRecorder()
		h.Recommendations(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, "partial_count values must be non-negative integers", resp.Message)
	})
}

func TestSuggestions_RejectsBadPayloads(t *testing.T) {
	h := newTestHandler()

	t.Run("invalid JSON body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/optimization/suggestions",
			strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		h.Suggestions(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, "fail", resp.Status)
	})

	t.Run("empty items list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/optimization/suggestions",
			strings.NewReader(`{"items": []}`))
		rec := httptest.NewRecorder()
		h.Suggestions(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, "fail", resp.Status)
	})
}

func TestCreatePackage_RequiresDistributorUUID(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/optimization/custom-packages",
		strings.NewReader(`{"distributor_id": "not-a-uuid", "items": [{"ndc": "00002-3227-30", "full": 1}]}`))
	rec := httptest.NewRecorder()
	h.CreatePackage(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "fail", resp.Status)
	assert.Contains(t, resp.Details, "DistributorID")
}
