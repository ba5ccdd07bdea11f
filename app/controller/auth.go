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

// AuthController handles dashboard sign-up, sign-in and session switching.
type AuthController struct {
	provider   auth.Provider
	cookies    *auth.CookieService
	workspaces service.WorkspaceService
}

func NewAuthController(provider auth.Provider, cookies *auth.CookieService, workspaces service.WorkspaceService) *AuthController {
	return &AuthController{provider: provider, cookies: cookies, workspaces: workspaces}
}

func (c *AuthController) SignUp(ctx echo.Context) error {
	req, err := bind[types.SignUpRequest](ctx)
	if err != nil {
		return rpcerr.Respond(ctx, err)
	}

	rctx := ctx.Request().Context()
	user, err := c.provider.SignUp(rctx, req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		logrus.WithError(err).WithField("email", req.Email).Warn("Sign up failed")
		return rpcerr.Respond(ctx, err)
	}

	session, err := c.provider.SignIn(rctx, req.Email, req.Password, "")
	if err != nil {
		return rpcerr.Respond(ctx, err)
	}
	if err = c.setSession(ctx, session); err != nil {
		return rpcerr.Respond(ctx, err)
	}

	logrus.WithField("user_id", user.ID).Info("User signed up")
	return ctx.JSON(http.StatusCreated, dto.SessionResult{UserID: user.ID})
}

func (c *AuthController) SignIn(ctx echo.Context) error {
	req, err := bind[types.SignInRequest](ctx)
	if err != nil {
		return rpcerr.Respond(ctx, err)
	}

	session, err := c.provider.SignIn(ctx.Request().Context(), req.Email, req.Password, req.OrgID)
	if err != nil {
		logrus.WithField("email", req.Email).Warn("Sign in failed")
		return rpcerr.Respond(ctx, err)
	}
	if err = c.setSession(ctx, session); err != nil {
		return rpcerr.Respond(ctx, err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": session.UserID,
		"org_id":  session.OrgID,
	}).Info("User signed in")
	return ctx.JSON(http.StatusOK, dto.SessionResult{UserID: session.UserID, OrgID: session.OrgID})
}

// SignOut revokes the refresh token when the cookie is readable and always
// clears the cookie.
func (c *AuthController) SignOut(ctx echo.Context) error {
	if cookie, err := c.cookies.Read(ctx); err == nil {
		if err = c.provider.SignOut(ctx.Request().Context(), cookie.RefreshToken); err != nil {
			return rpcerr.Respond(ctx, err)
		}
	}
	c.cookies.Delete(ctx)
	return ctx.JSON(http.StatusOK, okResult)
}

func (c *AuthController) SwitchWorkspace(ctx echo.Context) error {
	req, err := bind[types.SwitchWorkspaceRequest](ctx)
	if err != nil {
		return rpcerr.Respond(ctx, err)
	}

	cookie, err := c.cookies.Read(ctx)
	if err != nil {
		return rpcerr.Respond(ctx, middleware.ErrUnauthorized)
	}
	session, err := c.provider.RefreshSession(ctx.Request().Context(), cookie.RefreshToken, req.OrgID)
	if err != nil {
		return rpcerr.Respond(ctx, err)
	}
	if err = c.setSession(ctx, session); err != nil {
		return rpcerr.Respond(ctx, err)
	}
	return ctx.JSON(http.StatusOK, dto.SessionResult{UserID: session.UserID, OrgID: session.OrgID})
}

func (c *AuthController) Me(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	caller := middleware.GetCaller(ctx)

	user, err := c.provider.GetUser(rctx, caller.ActorID)
	if err != nil {
		return rpcerr.Respond(ctx, err)
	}
	memberships, err := c.provider.ListMemberships(rctx, caller.ActorID)
	if err != nil {
		return rpcerr.Respond(ctx, err)
	}

	result := dto.MeResult{User: dto.NewUser(user), Memberships: make([]dto.Membership, 0, len(memberships))}
	for _, m := range memberships {
		result.Memberships = append(result.Memberships, dto.NewMembership(m))
	}
	if caller.WorkspaceID != "" {
		ws, err := c.workspaces.FindByID(rctx, caller.WorkspaceID)
		if err != nil {
			return rpcerr.Respond(ctx, err)
		}
		view := dto.NewWorkspace(ws)
		result.Workspace = &view
	}
	return ctx.JSON(http.StatusOK, result)
}

func (c *AuthController) setSession(ctx echo.Context, session *auth.Session) error {
	err := c.cookies.Set(ctx, auth.SessionCookie{AccessToken: session.AccessToken, RefreshToken: session.RefreshToken})
	if err != nil {
		return rpcerr.Internal("start your session", err)
	}
	return nil
}
