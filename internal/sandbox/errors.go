package sandbox

import (
	"fmt"
	"net/http"
)

// Reasons carried in the error envelope.
const (
	ReasonNotFound = "notFound"
	ReasonNotMCA   = "notMCA"
	ReasonInvalid  = "invalid"
)

// Error is a rejected request. The router renders it as the API error envelope.
type Error struct {
	Status  int
	Reason  string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Reason, e.Message)
}

func notFound(format string, args ...any) *Error {
	return &Error{Status: http.StatusNotFound, Reason: ReasonNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Reason: ReasonInvalid, Message: fmt.Sprintf(format, args...)}
}

func notMCA(merchantID uint64) *Error {
	return &Error{
		Status:  http.StatusForbidden,
		Reason:  ReasonNotMCA,
		Message: fmt.Sprintf("Merchant %d is not a multi-client account.", merchantID),
	}
}

type errorDetail struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type errorBody struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Errors  []errorDetail `json:"errors"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func (e *Error) envelope() errorEnvelope {
	return errorEnvelope{Error: errorBody{
		Code:    e.Status,
		Message: e.Message,
		Errors:  []errorDetail{{Domain: "global", Reason: e.Reason, Message: e.Message}},
	}}
}
