package apierror

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrConflict       ErrorCode = "CONFLICT"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrBusinessRule   ErrorCode = "BUSINESS_RULE"
	ErrInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"
)

type APIError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	logrus.Error(details)
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewBusinessError reports a business rule stopping an operation. These
// surface over HTTP as a 200 with the failure embedded in the body, so
// callers distinguish "the system refused" from "the system broke".
func NewBusinessError(message string, details interface{}) APIError {
	logrus.Info(message)
	return APIError{
		Code:    ErrBusinessRule,
		Message: message,
		Details: details,
	}
}

// MapErrorToHTTPStatus maps the error taxonomy onto HTTP statuses:
// validation failures are 400, business rule refusals travel as 200 with
// the failure in the payload, everything else is a server fault.
func MapErrorToHTTPStatus(err error) int {
	if apiErr, ok := err.(APIError); ok {
		switch apiErr.Code {
		case ErrNotFound:
			return http.StatusNotFound
		case ErrConflict:
			return http.StatusConflict
		case ErrInvalidInput:
			return http.StatusBadRequest
		case ErrBusinessRule:
			return http.StatusOK
		case ErrInternalServer:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

// IsBusiness reports whether the error is a business rule refusal.
func IsBusiness(err error) bool {
	apiErr, ok := err.(APIError)
	return ok && apiErr.Code == ErrBusinessRule
}

// IsValidation reports whether the error is an input validation failure.
func IsValidation(err error) bool {
	apiErr, ok := err.(APIError)
	return ok && (apiErr.Code == ErrInvalidInput || apiErr.Code == ErrNotFound)
}
