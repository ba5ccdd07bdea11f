package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/vibast-solutions/ms-go-console/app/auth"
	"github.com/vibast-solutions/ms-go-console/app/entity"
	"github.com/vibast-solutions/ms-go-console/app/rpcerr"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const ContextKeyCaller = "caller"

var (
	ErrUnauthorized = rpcerr.New(rpcerr.CodeUnauthorized, "You need to sign in to continue")
	ErrNoWorkspace  = rpcerr.NotFound("You do not have an active workspace")
)

type sessionProvider interface {
	ValidateSession(accessToken string) (*auth.SessionInfo, error)
	RefreshSession(ctx context.Context, refreshToken, orgID string) (*auth.Session, error)
	GetUser(ctx context.Context, userID string) (*entity.User, error)
}

type workspaceFinder interface {
	FindByOrgID(ctx context.Context, orgID string) (*entity.Workspace, error)
	FindByID(ctx context.Context, id string) (*entity.Workspace, error)
}

type rootKeyAuthenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*auth.Caller, error)
}

// AuthMiddleware resolves the caller of a request from the session cookie or
// from a root key bearer token.
type AuthMiddleware struct {
	provider   sessionProvider
	cookies    *auth.CookieService
	workspaces workspaceFinder
	rootKeys   rootKeyAuthenticator
}

func NewAuthMiddleware(provider sessionProvider, cookies *auth.CookieService, workspaces workspaceFinder, rootKeys rootKeyAuthenticator) *AuthMiddleware {
	return &AuthMiddleware{
		provider:   provider,
		cookies:    cookies,
		workspaces: workspaces,
		rootKeys:   rootKeys,
	}
}

// RequireAuth accepts a root key in the Authorization header or a session cookie.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if header := strings.TrimSpace(c.Request().Header.Get("Authorization")); header != "" {
			return m.authenticateRootKey(c, header, next)
		}
		return m.authenticateSession(c, next)
	}
}

// RequireSession only accepts dashboard users.
func (m *AuthMiddleware) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		return m.authenticateSession(c, next)
	}
}

func (m *AuthMiddleware) authenticateSession(c echo.Context, next echo.HandlerFunc) error {
	ctx := c.Request().Context()

	cookie, err := m.cookies.Read(c)
	if err != nil {
		return m.reject(c, err)
	}

	info, err := m.provider.ValidateSession(cookie.AccessToken)
	if errors.Is(err, auth.ErrSessionExpired) {
		info, err = m.refresh(c, cookie)
	}
	if err != nil {
		return m.reject(c, err)
	}

	user, err := m.provider.GetUser(ctx, info.UserID)
	if err != nil {
		if rpcerr.CodeOf(err) == rpcerr.CodeNotFound {
			return m.reject(c, err)
		}
		return rpcerr.Respond(c, err)
	}

	caller := &auth.Caller{
		ActorType: entity.ActorTypeUser,
		ActorID:   user.ID,
		ActorName: displayName(user),
		Email:     user.Email,
		OrgID:     info.OrgID,
		Role:      info.Role,
		RemoteIP:  c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
	if info.OrgID != "" {
		ws, err := m.workspaces.FindByOrgID(ctx, info.OrgID)
		switch {
		case err == nil:
			caller.WorkspaceID = ws.ID
		case rpcerr.CodeOf(err) == rpcerr.CodeNotFound:
			logrus.WithField("org_id", info.OrgID).Debug("Session org has no workspace")
		default:
			return rpcerr.Respond(c, err)
		}
	}

	c.Set(ContextKeyCaller, caller)
	return next(c)
}

// refresh rotates an expired session once and re-sets the cookie.
func (m *AuthMiddleware) refresh(c echo.Context, cookie *auth.SessionCookie) (*auth.SessionInfo, error) {
	session, err := m.provider.RefreshSession(c.Request().Context(), cookie.RefreshToken, "")
	if err != nil {
		return nil, err
	}
	if err = m.cookies.Set(c, auth.SessionCookie{AccessToken: session.AccessToken, RefreshToken: session.RefreshToken}); err != nil {
		return nil, err
	}

	logrus.WithField("user_id", session.UserID).Debug("Session refreshed")
	return &auth.SessionInfo{
		UserID:    session.UserID,
		OrgID:     session.OrgID,
		Role:      session.Role,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (m *AuthMiddleware) reject(c echo.Context, cause error) error {
	logrus.WithError(cause).Debug("Session rejected")
	m.cookies.Delete(c)
	return rpcerr.Respond(c, ErrUnauthorized)
}

// RequireWorkspace rejects callers without an active workspace.
func RequireWorkspace(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller := GetCaller(c)
		if caller == nil {
			return rpcerr.Respond(c, ErrUnauthorized)
		}
		if caller.WorkspaceID == "" {
			return rpcerr.Respond(c, ErrNoWorkspace)
		}
		return next(c)
	}
}

// GetCaller returns the caller set by AuthMiddleware, or nil.
func GetCaller(c echo.Context) *auth.Caller {
	caller, _ := c.Get(ContextKeyCaller).(*auth.Caller)
	return caller
}

func displayName(user *entity.User) string {
	name := strings.TrimSpace(user.FirstName.String + " " + user.LastName.String)
	if name == "" {
		return user.Email
	}
	return name
}
