// Package httputil provides JSON response helpers shared by handlers and
// middleware.
package httputil

import (
	"encoding/json"
	"net/http"

	serrors "github.com/habitloop/habitloop/internal/errors"
)

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON encodes data with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteErrorResponse renders a structured error body.
func WriteErrorResponse(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorBody{Error: errorPayload{Code: code, Message: message}})
}

// WriteServiceError renders an error using its ServiceError classification,
// falling back to a 500 for unclassified errors.
func WriteServiceError(w http.ResponseWriter, err error) {
	se := serrors.GetServiceError(err)
	if se == nil {
		se = serrors.Internal("internal error", err)
	}
	WriteErrorResponse(w, se.HTTPStatus, string(se.Code), se.Message)
}

// Unauthorized renders a generic 401 with the bearer challenge header.
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "could not validate credentials"
	}
	w.Header().Set("WWW-Authenticate", "Bearer")
	WriteErrorResponse(w, http.StatusUnauthorized, string(serrors.CodeUnauthenticated), message)
}
