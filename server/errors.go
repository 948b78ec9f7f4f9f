package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hupe1980/parlance/core"
)

type apiError struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Param     string `json:"param,omitempty"`
	Status    int    `json:"upstream_status,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type errorEnvelope struct {
	Error *apiError `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, err *apiError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: err})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fromError maps an error onto the public envelope and HTTP status.
func fromError(err error, requestID string) (*apiError, int) {
	if errors.Is(err, context.DeadlineExceeded) {
		return &apiError{Type: "timeout", Message: "request timeout", RequestID: requestID}, http.StatusGatewayTimeout
	}
	if errors.Is(err, core.ErrRecordNotFound) {
		return &apiError{Type: "not_found", Message: err.Error(), RequestID: requestID}, http.StatusNotFound
	}

	var e *core.Error
	if errors.As(err, &e) && e != nil {
		out := &apiError{Type: string(e.Kind), Message: e.Error(), Status: e.Status, RequestID: requestID}
		return out, statusFromKind(e.Kind)
	}

	return &apiError{Type: "internal_error", Message: "internal error", RequestID: requestID}, http.StatusInternalServerError
}

func statusFromKind(k core.ErrorKind) int {
	switch k {
	case core.KindInvalidInput:
		return http.StatusBadRequest
	case core.KindInvalidState:
		return http.StatusConflict
	case core.KindUpstreamRequest, core.KindMalformedUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID, _ := RequestIDFrom(r.Context())
	apiErr, status := fromError(err, reqID)
	writeJSONError(w, status, apiErr)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allow string) {
	reqID, _ := RequestIDFrom(r.Context())
	w.Header().Set("Allow", allow)
	writeJSONError(w, http.StatusMethodNotAllowed, &apiError{
		Type:      "method_not_allowed",
		Message:   "method " + r.Method + " not allowed",
		RequestID: reqID,
	})
}

func badRequest(w http.ResponseWriter, r *http.Request, msg, param string) {
	reqID, _ := RequestIDFrom(r.Context())
	writeJSONError(w, http.StatusBadRequest, &apiError{Type: string(core.KindInvalidInput), Message: msg, Param: param, RequestID: reqID})
}
