package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxreturn/rxreturn-backend/internal/credits/handler"
	"github.com/rxreturn/rxreturn-backend/pkg/httputil"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
)

// The rejection paths below never reach the service, so a nil service keeps
// these tests free of database setup.
func newTestHandler() *handler.CreditsHandler {
	return handler.NewCreditsHandler(nil, logger.New("test", "test"))
}

func postEstimate(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/credits/estimate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	newTestHandler().Estimate(rec, req)
	return rec
}

func TestEstimate_RejectsBadPayloads(t *testing.T) {
	t.Run("invalid JSON body", func(t *testing.T) {
		rec := postEstimate(t, "{broken")

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp httputil.Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "fail", resp.Status)
		assert.Equal(t, "invalid JSON body", resp.Message)
	})

	t.Run("empty items list", func(t *testing.T) {
		rec := postEstimate(t, `{"items": []}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp httputil.Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "fail", resp.Status)
	})

	t.Run("item without quantity", func(t *testing.T) {
		rec := postEstimate(t, `{"items": [{"ndc": "00002-3227-30", "expiration_date": "2027-01-01"}]}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp httputil.Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Contains(t, resp.Details, "Quantity")
	})

	t.Run("unknown condition", func(t *testing.T) {
		rec := postEstimate(t, `{"items": [{"ndc": "00002-3227-30", "quantity": 2, "expiration_date": "2027-01-01", "condition": "CRUSHED"}]}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp httputil.Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Contains(t, resp.Details, "Condition")
	})
}
