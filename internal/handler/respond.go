package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/nuklias/crm/internal/validate"
)

// pagination is attached to list responses. HasMore follows the exact
// formula offset+limit < total, not whether the returned page was full.
type pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

type successEnvelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *pagination `json:"pagination,omitempty"`
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondData(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, successEnvelope{Success: true, Data: data, Message: message})
}

func respondList(w http.ResponseWriter, data any, total, limit, offset int) {
	writeJSON(w, http.StatusOK, successEnvelope{
		Success: true,
		Data:    data,
		Pagination: &pagination{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+limit < total,
		},
	})
}

func respondError(w http.ResponseWriter, status int, errMsg, message string) {
	writeJSON(w, status, errorEnvelope{Error: errMsg, Message: message})
}

func respondValidation(w http.ResponseWriter, details validate.FieldErrors) {
	writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: "Validation error", Details: details})
}

// decodeJSON decodes the request body, rejecting unparseable payloads.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(r.Body).Decode(dst)
}

// parseListParams pulls limit/offset from the query with the shared
// defaults. Unparseable values fall back rather than erroring.
func parseListParams(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		limit = n
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && n >= 0 {
		offset = n
	}
	return limit, offset
}
