package controller

import (
	"context"
	"net/http"

	"github.com/vibast-solutions/ms-go-console/app/auth"
	"github.com/vibast-solutions/ms-go-console/app/dto"
	"github.com/vibast-solutions/ms-go-console/app/middleware"
	"github.com/vibast-solutions/ms-go-console/app/rpcerr"
	"github.com/vibast-solutions/ms-go-console/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

var (
	errInvalidBody = rpcerr.BadRequest("invalid request body")
	okResult       = dto.MessageResult{Message: "ok"}
)

type request[T any] interface {
	*T
	Validate() error
}

// bind decodes the body into a new T and validates it.
func bind[T any, PT request[T]](ctx echo.Context) (PT, error) {
	body, err := types.Bind[T](ctx)
	if err != nil {
		logrus.WithError(err).WithField("path", ctx.Path()).Debug("Failed to bind request")
		return nil, errInvalidBody
	}
	req := PT(body)
	if err = req.Validate(); err != nil {
		logrus.WithError(err).WithField("path", ctx.Path()).Debug("Request validation failed")
		return nil, rpcerr.BadRequest(err.Error())
	}
	return req, nil
}

// query runs a procedure that takes a request and returns a result.
func query[T any, PT request[T], R any](ctx echo.Context, fn func(context.Context, *auth.Caller, PT) (R, error)) error {
	req, err := bind[T, PT](ctx)
	if err != nil {
		return rpcerr.Respond(ctx, err)
	}
	result, err := fn(ctx.Request().Context(), middleware.GetCaller(ctx), req)
	if err != nil {
		return rpcerr.Respond(ctx, err)
	}
	return ctx.JSON(http.StatusOK, result)
}

// command runs a procedure that only reports success.
func command[T any, PT request[T]](ctx echo.Context, fn func(context.Context, *auth.Caller, PT) error) error {
	req, err := bind[T, PT](ctx)
	if err != nil {
		return rpcerr.Respond(ctx, err)
	}
	if err = fn(ctx.Request().Context(), middleware.GetCaller(ctx), req); err != nil {
		return rpcerr.Respond(ctx, err)
	}
	return ctx.JSON(http.StatusOK, okResult)
}

// list runs a procedure without input.
func list[R any](ctx echo.Context, fn func(context.Context, *auth.Caller) (R, error)) error {
	result, err := fn(ctx.Request().Context(), middleware.GetCaller(ctx))
	if err != nil {
		return rpcerr.Respond(ctx, err)
	}
	return ctx.JSON(http.StatusOK, result)
}
