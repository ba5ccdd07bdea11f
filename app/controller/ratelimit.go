package controller

import (
	"github.com/vibast-solutions/ms-go-console/app/service"

	"github.com/labstack/echo/v4"
)

// RatelimitController serves namespaces and their overrides.
type RatelimitController struct {
	ratelimits service.RatelimitService
}

func NewRatelimitController(ratelimits service.RatelimitService) *RatelimitController {
	return &RatelimitController{ratelimits: ratelimits}
}

func (c *RatelimitController) CreateNamespace(ctx echo.Context) error {
	return query(ctx, c.ratelimits.CreateNamespace)
}

func (c *RatelimitController) ListNamespaces(ctx echo.Context) error {
	return list(ctx, c.ratelimits.ListNamespaces)
}

func (c *RatelimitController) UpdateNamespaceName(ctx echo.Context) error {
	return command(ctx, c.ratelimits.UpdateNamespaceName)
}

func (c *RatelimitController) DeleteNamespace(ctx echo.Context) error {
	return command(ctx, c.ratelimits.DeleteNamespace)
}

func (c *RatelimitController) CreateOverride(ctx echo.Context) error {
	return query(ctx, c.ratelimits.CreateOverride)
}

func (c *RatelimitController) ListOverrides(ctx echo.Context) error {
	return query(ctx, c.ratelimits.ListOverrides)
}

func (c *RatelimitController) UpdateOverride(ctx echo.Context) error {
	return command(ctx, c.ratelimits.UpdateOverride)
}

func (c *RatelimitController) DeleteOverride(ctx echo.Context) error {
	return command(ctx, c.ratelimits.DeleteOverride)
}
