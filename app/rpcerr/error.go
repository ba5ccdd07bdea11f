// Package rpcerr defines the error codes returned by console procedures and
// their mapping to HTTP responses.
package rpcerr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeBadRequest          Code = "BAD_REQUEST"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeForbidden           Code = "FORBIDDEN"
	CodeNotFound            Code = "NOT_FOUND"
	CodeConflict            Code = "CONFLICT"
	CodePreconditionFailed  Code = "PRECONDITION_FAILED"
	CodeTooManyRequests     Code = "TOO_MANY_REQUESTS"
	CodeInternalServerError Code = "INTERNAL_SERVER_ERROR"
)

var supportEmail = "support@example.com"

// SetSupportEmail changes the contact address used in internal error messages.
func SetSupportEmail(email string) {
	if email != "" {
		supportEmail = email
	}
}

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Internal wraps an unexpected failure. The cause is kept for logging only.
func Internal(action string, err error) *Error {
	return &Error{
		Code:    CodeInternalServerError,
		Message: fmt.Sprintf("We are unable to %s. Please try again or contact %s", action, supportEmail),
		Err:     err,
	}
}

func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

func BadRequest(message string) *Error {
	return New(CodeBadRequest, message)
}

func Conflict(message string) *Error {
	return New(CodeConflict, message)
}

// As returns the *Error in err's chain, or an INTERNAL_SERVER_ERROR wrapping err.
func As(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return Internal("handle this request", err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return As(err).Code
}

func HTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodePreconditionFailed:
		return http.StatusPreconditionFailed
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

type Body struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

type Response struct {
	Error Body `json:"error"`
}

func ResponseOf(err error) (int, Response) {
	rpcErr := As(err)
	return HTTPStatus(rpcErr.Code), Response{Error: Body{Code: rpcErr.Code, Message: rpcErr.Message}}
}
