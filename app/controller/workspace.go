package controller

import (
	"net/http"

	"github.com/vibast-solutions/ms-go-console/app/auth"
	"github.com/vibast-solutions/ms-go-console/app/dto"
	"github.com/vibast-solutions/ms-go-console/app/middleware"
	"github.com/vibast-solutions/ms-go-console/app/rpcerr"
	"github.com/vibast-solutions/ms-go-console/app/service"
	"github.com/vibast-solutions/ms-go-console/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type WorkspaceController struct {
	workspaces service.WorkspaceService
	provider   auth.Provider
	cookies    *auth.CookieService
}

func NewWorkspaceController(workspaces service.WorkspaceService, provider auth.Provider, cookies *auth.CookieService) *WorkspaceController {
	return &WorkspaceController{workspaces: workspaces, provider: provider, cookies: cookies}
}

// Create registers the workspace and moves the caller's session onto it.
func (c *WorkspaceController) Create(ctx echo.Context) error {
	req, err := bind[types.CreateWorkspaceRequest](ctx)
	if err != nil {
		return rpcerr.Respond(ctx, err)
	}

	rctx := ctx.Request().Context()
	ws, err := c.workspaces.Create(rctx, middleware.GetCaller(ctx), req)
	if err != nil {
		return rpcerr.Respond(ctx, err)
	}

	if cookie, err := c.cookies.Read(ctx); err == nil {
		session, err := c.provider.RefreshSession(rctx, cookie.RefreshToken, ws.OrgID)
		if err == nil {
			err = c.cookies.Set(ctx, auth.SessionCookie{AccessToken: session.AccessToken, RefreshToken: session.RefreshToken})
		}
		if err != nil {
			logrus.WithError(err).WithField("workspace_id", ws.ID).Warn("Failed to switch session to new workspace")
		}
	}

	return ctx.JSON(http.StatusOK, dto.NewWorkspace(ws))
}

func (c *WorkspaceController) Get(ctx echo.Context) error {
	ws, err := c.workspaces.FindByID(ctx.Request().Context(), middleware.GetCaller(ctx).WorkspaceID)
	if err != nil {
		return rpcerr.Respond(ctx, err)
	}
	return ctx.JSON(http.StatusOK, dto.NewWorkspace(ws))
}

func (c *WorkspaceController) UpdateName(ctx echo.Context) error {
	return command(ctx, c.workspaces.UpdateName)
}

func (c *WorkspaceController) Members(ctx echo.Context) error {
	return list(ctx, c.workspaces.Members)
}
