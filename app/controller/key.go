package controller

import (
	"github.com/vibast-solutions/ms-go-console/app/service"

	"github.com/labstack/echo/v4"
)

type KeyController struct {
	keys service.KeyService
}

func NewKeyController(keys service.KeyService) *KeyController {
	return &KeyController{keys: keys}
}

func (c *KeyController) Create(ctx echo.Context) error {
	return query(ctx, c.keys.Create)
}

func (c *KeyController) List(ctx echo.Context) error {
	return query(ctx, c.keys.List)
}

func (c *KeyController) Get(ctx echo.Context) error {
	return query(ctx, c.keys.Get)
}

func (c *KeyController) UpdateName(ctx echo.Context) error {
	return command(ctx, c.keys.UpdateName)
}

func (c *KeyController) UpdateEnabled(ctx echo.Context) error {
	return command(ctx, c.keys.UpdateEnabled)
}

func (c *KeyController) UpdateExpiration(ctx echo.Context) error {
	return command(ctx, c.keys.UpdateExpiration)
}

func (c *KeyController) UpdateMetadata(ctx echo.Context) error {
	return command(ctx, c.keys.UpdateMetadata)
}

func (c *KeyController) UpdateOwnerID(ctx echo.Context) error {
	return command(ctx, c.keys.UpdateOwnerID)
}

func (c *KeyController) UpdateRemaining(ctx echo.Context) error {
	return command(ctx, c.keys.UpdateRemaining)
}

func (c *KeyController) UpdateRatelimit(ctx echo.Context) error {
	return command(ctx, c.keys.UpdateRatelimit)
}

func (c *KeyController) Delete(ctx echo.Context) error {
	return command(ctx, c.keys.Delete)
}

func (c *KeyController) ConnectRole(ctx echo.Context) error {
	return command(ctx, c.keys.ConnectRole)
}

func (c *KeyController) DisconnectRole(ctx echo.Context) error {
	return command(ctx, c.keys.DisconnectRole)
}

func (c *KeyController) ConnectPermission(ctx echo.Context) error {
	return command(ctx, c.keys.ConnectPermission)
}

func (c *KeyController) DisconnectPermission(ctx echo.Context) error {
	return command(ctx, c.keys.DisconnectPermission)
}
