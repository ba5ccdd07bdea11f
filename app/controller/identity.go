package controller

import (
	"github.com/vibast-solutions/ms-go-console/app/service"

	"github.com/labstack/echo/v4"
)

type IdentityController struct {
	identities service.IdentityService
}

func NewIdentityController(identities service.IdentityService) *IdentityController {
	return &IdentityController{identities: identities}
}

func (c *IdentityController) Create(ctx echo.Context) error {
	return query(ctx, c.identities.Create)
}

func (c *IdentityController) List(ctx echo.Context) error {
	return list(ctx, c.identities.List)
}

func (c *IdentityController) Get(ctx echo.Context) error {
	return query(ctx, c.identities.Get)
}

func (c *IdentityController) UpdateMetadata(ctx echo.Context) error {
	return command(ctx, c.identities.UpdateMetadata)
}

func (c *IdentityController) Delete(ctx echo.Context) error {
	return command(ctx, c.identities.Delete)
}
