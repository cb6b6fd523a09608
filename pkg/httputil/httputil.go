package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/rxreturn/rxreturn-backend/pkg/errors"
)

// Response is the standard API envelope. Status is "success" for 2xx,
// "fail" for 4xx and "error" for 5xx, matching the dashboard client.
type Response struct {
	Status  string            `json:"status"`
	Data    interface{}       `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
	Meta    *Meta             `json:"meta,omitempty"`
}

// Meta contains pagination metadata
type Meta struct {
	Page       int   `json:"page,omitempty"`
	PerPage    int   `json:"per_page,omitempty"`
	Total      int64 `json:"total,omitempty"`
	TotalPages int   `json:"total_pages,omitempty"`
}

// JSON sends a success JSON response
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(Response{
		Status: "success",
		Data:   data,
	})
}

// JSONWithMeta sends a success JSON response with pagination metadata
func JSONWithMeta(w http.ResponseWriter, statusCode int, data interface{}, meta *Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(Response{
		Status: "success",
		Data:   data,
		Meta:   meta,
	})
}

// Error sends an error response. Client errors (4xx) serialize as
// status "fail" with the message surfaced verbatim; everything else is a
// generic status "error" so internals never leak to the caller.
func Error(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	var appErr *errors.AppError
	if errors.As(err, &appErr) && appErr.StatusCode < http.StatusInternalServerError {
		w.WriteHeader(appErr.StatusCode)
		json.NewEncoder(w).Encode(Response{
			Status:  "fail",
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(Response{
		Status:  "error",
		Message: "an unexpected error occurred",
	})
}

// NoContent sends a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Created sends a 201 Created response
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

// DecodeJSON decodes the request body into the provided struct
func DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.BadRequest("invalid JSON body")
	}
	return nil
}
