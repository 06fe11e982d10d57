// ABOUTME: JSON response helpers and the domain error to status code mapping.
// ABOUTME: Successful bodies wrap results in {"data": ...}; errors use {"error","detail"}.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/harperreed/workwell/internal/aggregate"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, map[string]any{"data": v})
}

func writeError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, ErrorBody{Error: msg, Detail: detail})
}

// StatusFor maps a domain error to its HTTP status and short message. A
// stored row that fails to parse is a server fault even though it wraps a
// timestamp error.
func StatusFor(err error) (int, string) {
	var (
		stored    *aggregate.StoredRowError
		empty     *aggregate.EmptyInputError
		noData    *aggregate.NoDataError
		unknown   *aggregate.UnknownMetricError
		malformed *aggregate.MalformedTimestampError
		invalid   *aggregate.InvalidRequestError
	)
	switch {
	case errors.As(err, &stored):
		return http.StatusInternalServerError, "internal error"
	case errors.As(err, &noData), errors.As(err, &empty):
		return http.StatusNotFound, "no data"
	case errors.As(err, &unknown):
		return http.StatusNotFound, "unknown metric"
	case errors.As(err, &malformed), errors.As(err, &invalid):
		return http.StatusBadRequest, "invalid request"
	}
	return http.StatusInternalServerError, "internal error"
}

// fail writes err as a mapped error response. Server errors are logged and
// their detail carries the request id for correlation.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := StatusFor(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		detail += " (request id " + RequestID(r.Context()) + ")"
	}
	writeError(w, status, msg, detail)
}
