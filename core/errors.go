package core

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorKind tags an API error with its numeric code and HTTP status.
type ErrorKind int

const (
	ErrInvalidArgument ErrorKind = 1
	ErrInvalidState    ErrorKind = 2
	ErrNotFound        ErrorKind = 3
	ErrRateLimit       ErrorKind = 4
	ErrExternal        ErrorKind = 5
	ErrInternal        ErrorKind = 6
)

// Reason returns the wire name of the kind.
func (k ErrorKind) Reason() string {
	switch k {
	case ErrInvalidArgument:
		return "ERR_INVALID_ARGUMENT"
	case ErrInvalidState:
		return "ERR_INVALID_STATE"
	case ErrNotFound:
		return "ERR_NOT_FOUND"
	case ErrRateLimit:
		return "ERR_RATE_LIMIT"
	case ErrExternal:
		return "ERR_EXTERNAL"
	case ErrInternal:
		return "ERR_INTERNAL"
	}
	panic(fmt.Sprintf("unknown error kind %d", int(k)))
}

// HTTPStatus maps the kind to its response status.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case ErrInvalidArgument, ErrInvalidState, ErrRateLimit:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrExternal, ErrInternal:
		return http.StatusInternalServerError
	}
	panic(fmt.Sprintf("unknown error kind %d", int(k)))
}

// APIError is the failure payload sent to clients.
type APIError struct {
	Code    int    `json:"code"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// Kind recovers the taxonomy entry from the numeric code.
func (e *APIError) Kind() ErrorKind {
	return ErrorKind(e.Code)
}

// NewError builds a tagged API error.
func NewError(kind ErrorKind, format string, args ...any) *APIError {
	return &APIError{
		Code:    int(kind),
		Reason:  kind.Reason(),
		Message: fmt.Sprintf(format, args...),
	}
}

// respondError sends the unified error payload. Errors that are not APIError
// values are reported as ERR_INTERNAL with the error text as the message.
func respondError(c *gin.Context, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = NewError(ErrInternal, "%v", err)
	}
	c.JSON(apiErr.Kind().HTTPStatus(), apiErr)
}
