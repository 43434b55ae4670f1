package web

// errors.go maps pipeline errors to coded JSON responses. The technical
// error is logged server-side with the request ID; clients get a stable
// machine-readable code plus a human-readable message.

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sheetbridge/sheetbridge/internal/logging"
	"github.com/sheetbridge/sheetbridge/internal/tabular"
)

// ErrorResponse is the JSON structure for API errors.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Row     int               `json:"row,omitempty"`
	Missing []string          `json:"missing,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// respondError logs the technical error and writes the mapped response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	resp := mapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", resp.Code,
		"error", err,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// badRequest is respondError with a fixed 400 status and plain message.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	s.respondError(w, r, errors.New(msg), http.StatusBadRequest)
}

// mapError translates pipeline errors into coded responses. Unknown errors
// get a generic code; their details still reach the log.
func mapError(err error) ErrorResponse {
	var missingErr *tabular.MissingHeadersError
	var rowErr *tabular.RowValidationError
	var collisionErr *tabular.HeaderCollisionError

	switch {
	case errors.Is(err, tabular.ErrEmptyPayload):
		return ErrorResponse{
			Code:    "EMPTY_PAYLOAD",
			Message: "The spreadsheet contains no data rows.",
		}
	case errors.As(err, &missingErr):
		return ErrorResponse{
			Code:    "MISSING_HEADERS",
			Message: err.Error(),
			Missing: missingErr.Missing,
		}
	case errors.As(err, &rowErr):
		return ErrorResponse{
			Code:    "ROW_INVALID",
			Message: err.Error(),
			Row:     rowErr.Row,
			Fields:  rowErr.Fields,
		}
	case errors.As(err, &collisionErr):
		return ErrorResponse{
			Code:    "HEADER_COLLISION",
			Message: err.Error(),
		}
	default:
		return ErrorResponse{
			Code:    "CONVERSION_FAILED",
			Message: err.Error(),
		}
	}
}
