// Package response provides shared JSON response helpers for HTTP handlers.
package response

import (
	"encoding/json"
	"net/http"
)

// ErrorBody carries a machine-checkable error classification alongside the
// human-readable message. Kind is stable across releases; clients may branch
// on it.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Envelope is the standard API response envelope.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// JSON writes a JSON-encoded payload with the given HTTP status code.
func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes a 200 response with data.
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Fail writes an error response with the given status, kind, and message.
func Fail(w http.ResponseWriter, status int, kind, message string) {
	JSON(w, status, Envelope{Success: false, Error: &ErrorBody{Kind: kind, Message: message}})
}

// BadRequest writes a 400 response with kind "InputError".
func BadRequest(w http.ResponseWriter, message string) {
	Fail(w, http.StatusBadRequest, "InputError", message)
}

// Unauthorized writes a 401 response.
func Unauthorized(w http.ResponseWriter, message string) {
	Fail(w, http.StatusUnauthorized, "Unauthorized", message)
}

// NotFound writes a 404 response.
func NotFound(w http.ResponseWriter, message string) {
	Fail(w, http.StatusNotFound, "NotFound", message)
}

// InternalError writes a 500 response with a generic message.
func InternalError(w http.ResponseWriter) {
	Fail(w, http.StatusInternalServerError, "InternalError", "internal server error")
}
