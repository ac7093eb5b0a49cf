package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finance-agent/domain"
)

type errorBody struct {
	Detail string `json:"detail"`
}

// writeJSON marshals v before writing headers; encode failures become a 500.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		loggerFrom(r.Context()).WithError(err).Error("encoding response")
		status = http.StatusInternalServerError
		body = []byte(`{"detail":"internal server error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		loggerFrom(r.Context()).WithError(err).Debug("writing response")
	}
}

// statusFor maps service errors to an HTTP status and client-facing detail.
func statusFor(err error) (int, string) {
	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		status := upstream.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		return status, upstream.Body
	}

	detail := "internal server error"
	var de *domain.DetailError
	if errors.As(err, &de) {
		detail = de.Detail
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, detail
	case errors.Is(err, domain.ErrSchemaMismatch), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, detail
	case errors.Is(err, domain.ErrAgentNotConfigured):
		return http.StatusInternalServerError, detail
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := statusFor(err)
	entry := loggerFrom(r.Context()).WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Warn("request rejected")
	}
	writeJSON(w, r, status, errorBody{Detail: detail})
}
