package controller

import (
	"github.com/vibast-solutions/ms-go-console/app/service"

	"github.com/labstack/echo/v4"
)

type RBACController struct {
	rbac service.RBACService
}

func NewRBACController(rbac service.RBACService) *RBACController {
	return &RBACController{rbac: rbac}
}

func (c *RBACController) CreatePermission(ctx echo.Context) error {
	return query(ctx, c.rbac.CreatePermission)
}

func (c *RBACController) ListPermissions(ctx echo.Context) error {
	return list(ctx, c.rbac.ListPermissions)
}

func (c *RBACController) UpdatePermission(ctx echo.Context) error {
	return command(ctx, c.rbac.UpdatePermission)
}

func (c *RBACController) DeletePermission(ctx echo.Context) error {
	return command(ctx, c.rbac.DeletePermission)
}

func (c *RBACController) CreateRole(ctx echo.Context) error {
	return query(ctx, c.rbac.CreateRole)
}

func (c *RBACController) ListRoles(ctx echo.Context) error {
	return list(ctx, c.rbac.ListRoles)
}

func (c *RBACController) UpdateRole(ctx echo.Context) error {
	return command(ctx, c.rbac.UpdateRole)
}

func (c *RBACController) DeleteRole(ctx echo.Context) error {
	return command(ctx, c.rbac.DeleteRole)
}

func (c *RBACController) ConnectRolePermission(ctx echo.Context) error {
	return command(ctx, c.rbac.ConnectRolePermission)
}

func (c *RBACController) DisconnectRolePermission(ctx echo.Context) error {
	return command(ctx, c.rbac.DisconnectRolePermission)
}
