package middleware

import (
	"strings"

	"github.com/vibast-solutions/ms-go-console/app/rpcerr"
	"github.com/vibast-solutions/ms-go-console/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

func (m *AuthMiddleware) authenticateRootKey(c echo.Context, header string, next echo.HandlerFunc) error {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		logrus.Debug("Invalid authorization header format")
		return rpcerr.Respond(c, service.ErrInvalidRootKey)
	}

	ctx := c.Request().Context()
	caller, err := m.rootKeys.Authenticate(ctx, parts[1])
	if err != nil {
		return rpcerr.Respond(c, err)
	}

	ws, err := m.workspaces.FindByID(ctx, caller.WorkspaceID)
	if err != nil {
		if rpcerr.CodeOf(err) == rpcerr.CodeNotFound {
			logrus.WithField("key_id", caller.ActorID).Warn("Root key belongs to a missing workspace")
			return rpcerr.Respond(c, service.ErrInvalidRootKey)
		}
		return rpcerr.Respond(c, err)
	}

	caller.OrgID = ws.OrgID
	caller.RemoteIP = c.RealIP()
	caller.UserAgent = c.Request().UserAgent()
	c.Set(ContextKeyCaller, caller)
	return next(c)
}

// RequirePermission lets session users through and checks root keys for
// permission or a wildcard form of it.
func RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := GetCaller(c)
			if caller == nil {
				return rpcerr.Respond(c, ErrUnauthorized)
			}
			if !caller.HasPermission(permission) {
				logrus.WithFields(logrus.Fields{
					"key_id":     caller.ActorID,
					"permission": permission,
				}).Debug("Root key lacks permission")
				return rpcerr.Respond(c, rpcerr.New(rpcerr.CodeForbidden, "This root key is missing the "+permission+" permission"))
			}
			return next(c)
		}
	}
}
