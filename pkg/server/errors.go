package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"mercator-hq/magicbox/pkg/limiter"
	"mercator-hq/magicbox/pkg/storage"
)

// ErrorResponse is the body of every error answer.
type ErrorResponse struct {
	// Error contains the error details.
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error.
	// Possible values: "invalid_request_error", "not_found", "server_error".
	Type string `json:"type"`

	// Param names the query parameter or field that caused the error.
	Param string `json:"param,omitempty"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`
}

// Error type constants.
const (
	// ErrorTypeInvalidRequest indicates a client-side error (400).
	ErrorTypeInvalidRequest = "invalid_request_error"

	// ErrorTypeNotFound indicates a resource was not found (404).
	ErrorTypeNotFound = "not_found"

	// ErrorTypeServerError indicates an internal server error (500).
	ErrorTypeServerError = "server_error"
)

// Error code constants.
const (
	CodeInvalidQuery  = "invalid_query"
	CodeInvalidFilter = "invalid_filter"
	CodeInvalidValue  = "invalid_value"
	CodeInvalidJSON   = "invalid_json"
	CodeUnknownModel  = "unknown_model"
	CodeNotFound      = "record_not_found"
)

func newError(errType, code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Message: message, Type: errType, Code: code}}
}

// statusFor maps an error type to its HTTP status.
func statusFor(errType string) int {
	switch errType {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, resp ErrorResponse) {
	writeJSON(w, statusFor(resp.Error.Type), resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Error("failed to encode response", "component", "server", "error", err)
	}
}

// queryError converts an error returned by the repository. Errors caused by
// the request become 400 answers naming the offending parameter.
func queryError(err error, filtersParam string) ErrorResponse {
	var syntax *limiter.SyntaxError
	if errors.As(err, &syntax) {
		resp := newError(ErrorTypeInvalidRequest, CodeInvalidFilter, err.Error())
		if syntax.Field != "" {
			resp.Error.Param = filtersParam + "[" + syntax.Field + "]"
		}
		return resp
	}

	var coerce *storage.CoercionError
	if errors.As(err, &coerce) {
		resp := newError(ErrorTypeInvalidRequest, CodeInvalidValue, err.Error())
		resp.Error.Param = coerce.Field
		return resp
	}

	var missing *storage.MissingKeyError
	if errors.As(err, &missing) {
		resp := newError(ErrorTypeInvalidRequest, CodeInvalidValue, missing.Error())
		resp.Error.Param = missing.Field
		return resp
	}

	return newError(ErrorTypeServerError, "", "An internal error occurred. Please try again later.")
}
