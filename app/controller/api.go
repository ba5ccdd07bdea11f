package controller

import (
	"github.com/vibast-solutions/ms-go-console/app/service"

	"github.com/labstack/echo/v4"
)

type APIController struct {
	apis service.APIService
}

func NewAPIController(apis service.APIService) *APIController {
	return &APIController{apis: apis}
}

func (c *APIController) Create(ctx echo.Context) error {
	return query(ctx, c.apis.Create)
}

func (c *APIController) List(ctx echo.Context) error {
	return list(ctx, c.apis.List)
}

func (c *APIController) Get(ctx echo.Context) error {
	return query(ctx, c.apis.Get)
}

func (c *APIController) UpdateName(ctx echo.Context) error {
	return command(ctx, c.apis.UpdateName)
}

func (c *APIController) UpdateDeleteProtection(ctx echo.Context) error {
	return command(ctx, c.apis.UpdateDeleteProtection)
}

func (c *APIController) UpdateIPWhitelist(ctx echo.Context) error {
	return command(ctx, c.apis.UpdateIPWhitelist)
}

func (c *APIController) Delete(ctx echo.Context) error {
	return command(ctx, c.apis.Delete)
}
