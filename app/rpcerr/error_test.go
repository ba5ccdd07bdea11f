package rpcerr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestAsKeepsTypedErrors(t *testing.T) {
	sentinel := NotFound("api not found")
	wrapped := fmt.Errorf("loading api: %w", sentinel)

	got := As(wrapped)
	assert.Same(t, sentinel, got)
	assert.True(t, errors.Is(wrapped, sentinel))
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
}

func TestAsWrapsUnknownErrors(t *testing.T) {
	SetSupportEmail("help@console.test")
	t.Cleanup(func() { SetSupportEmail("support@example.com") })

	cause := errors.New("connection reset")
	got := As(cause)

	assert.Equal(t, CodeInternalServerError, got.Code)
	assert.Contains(t, got.Message, "help@console.test")
	assert.NotContains(t, got.Message, "connection reset")
	assert.ErrorIs(t, got, cause)
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:          http.StatusBadRequest,
		CodeUnauthorized:        http.StatusUnauthorized,
		CodeForbidden:           http.StatusForbidden,
		CodeNotFound:            http.StatusNotFound,
		CodeConflict:            http.StatusConflict,
		CodePreconditionFailed:  http.StatusPreconditionFailed,
		CodeTooManyRequests:     http.StatusTooManyRequests,
		CodeInternalServerError: http.StatusInternalServerError,
		Code("UNKNOWN"):         http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, HTTPStatus(code), code)
	}
}

func TestResponseOf(t *testing.T) {
	status, body := ResponseOf(Conflict("duplicate name"))

	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, CodeConflict, body.Error.Code)
	assert.Equal(t, "duplicate name", body.Error.Message)
}

func TestCodeOfNil(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestRespondWritesBody(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/rpc/api.get", nil), rec)

	err := Respond(c, fmt.Errorf("find: %w", NotFound("api not found")))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"NOT_FOUND","message":"api not found"}}`, rec.Body.String())
}

func TestRespondHidesInternalCause(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/rpc/api.get", nil), rec)

	assert.NoError(t, Respond(c, errors.New("dial tcp 10.0.0.5:3306: refused")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}
