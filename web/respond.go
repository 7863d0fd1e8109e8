// ABOUTME: JSON responses and the error envelope shared by every route
// ABOUTME: Maps store, roster and directory errors onto HTTP status codes
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/harperreed/orgmap/db"
	"github.com/harperreed/orgmap/directory"
	"github.com/harperreed/orgmap/orgchart"
)

// ErrorEnvelope is the body of every error response.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// errorStatus classifies err. The zero code means an internal failure.
func errorStatus(err error) (int, string, map[string]string) {
	var verr *directory.ValidationError
	var cerr *directory.ConsistencyError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "validation_failed", map[string]string{"field": verr.Field}
	case errors.As(err, &cerr):
		// one entry per person; several issue kinds are comma-joined
		meta := map[string]string{}
		for _, is := range cerr.Issues {
			kind := string(is.Kind)
			switch prev, ok := meta[is.Email]; {
			case !ok:
				meta[is.Email] = kind
			case !slices.Contains(strings.Split(prev, ","), kind):
				meta[is.Email] = prev + "," + kind
			}
		}
		return http.StatusBadRequest, "inconsistent_batch", meta
	case errors.Is(err, orgchart.ErrSelfReport):
		return http.StatusBadRequest, "self_report", nil
	case errors.Is(err, orgchart.ErrCircular):
		return http.StatusBadRequest, "circular", nil
	case errors.Is(err, db.ErrHasReportees):
		return http.StatusBadRequest, "has_reportees", nil
	case directory.IsNotFound(err):
		return http.StatusNotFound, "not_found", nil
	case errors.Is(err, db.ErrConflict):
		return http.StatusConflict, "conflict", nil
	case errors.Is(err, db.ErrAmbiguous):
		return http.StatusConflict, "ambiguous", nil
	default:
		return http.StatusInternalServerError, "", nil
	}
}

// writeServiceError renders err. Internal failures are logged and reported
// with the status text only.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, meta := errorStatus(err)
	if code == "" {
		s.logger(r).WithError(err).Error("request failed")
		_ = WriteError(w, status, "internal", http.StatusText(status), nil)
		return
	}
	_ = WriteError(w, status, code, err.Error(), meta)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return &directory.ValidationError{Message: "invalid JSON body: " + err.Error()}
	}
	return nil
}

const maxBodyBytes = 4 << 20
