package controller

import (
	"github.com/vibast-solutions/ms-go-console/app/service"

	"github.com/labstack/echo/v4"
)

type RootKeyController struct {
	rootKeys service.RootKeyService
}

func NewRootKeyController(rootKeys service.RootKeyService) *RootKeyController {
	return &RootKeyController{rootKeys: rootKeys}
}

func (c *RootKeyController) Create(ctx echo.Context) error {
	return query(ctx, c.rootKeys.Create)
}

func (c *RootKeyController) List(ctx echo.Context) error {
	return list(ctx, c.rootKeys.List)
}

func (c *RootKeyController) UpdateName(ctx echo.Context) error {
	return command(ctx, c.rootKeys.UpdateName)
}

func (c *RootKeyController) Delete(ctx echo.Context) error {
	return command(ctx, c.rootKeys.Delete)
}
