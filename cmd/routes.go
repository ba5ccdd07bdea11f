package cmd

import (
	"github.com/vibast-solutions/ms-go-console/app/controller"
	"github.com/vibast-solutions/ms-go-console/app/middleware"

	"github.com/labstack/echo/v4"
)

// procedure is one POST /rpc/<name> endpoint. A non-empty permission is
// required from root keys; mutations count against the caller's rate limit.
type procedure struct {
	name       string
	handler    echo.HandlerFunc
	permission string
	mutation   bool
}

type controllers struct {
	auth      *controller.AuthController
	workspace *controller.WorkspaceController
	api       *controller.APIController
	key       *controller.KeyController
	rootKey   *controller.RootKeyController
	ratelimit *controller.RatelimitController
	rbac      *controller.RBACController
	identity  *controller.IdentityController
	project   *controller.ProjectController
	audit     *controller.AuditController
	support   *controller.SupportController
}

// machineProcedures are open to both dashboard users and root keys.
func machineProcedures(c controllers) []procedure {
	return []procedure{
		{"api.create", c.api.Create, "api.*.create_api", true},
		{"api.list", c.api.List, "api.*.read_api", false},
		{"api.get", c.api.Get, "api.*.read_api", false},
		{"api.updateName", c.api.UpdateName, "api.*.update_api", true},
		{"api.updateDeleteProtection", c.api.UpdateDeleteProtection, "api.*.update_api", true},
		{"api.updateIpWhitelist", c.api.UpdateIPWhitelist, "api.*.update_api", true},
		{"api.delete", c.api.Delete, "api.*.delete_api", true},

		{"key.create", c.key.Create, "api.*.create_key", true},
		{"key.list", c.key.List, "api.*.read_key", false},
		{"key.get", c.key.Get, "api.*.read_key", false},
		{"key.updateName", c.key.UpdateName, "api.*.update_key", true},
		{"key.updateEnabled", c.key.UpdateEnabled, "api.*.update_key", true},
		{"key.updateExpiration", c.key.UpdateExpiration, "api.*.update_key", true},
		{"key.updateMetadata", c.key.UpdateMetadata, "api.*.update_key", true},
		{"key.updateOwnerId", c.key.UpdateOwnerID, "api.*.update_key", true},
		{"key.updateRemaining", c.key.UpdateRemaining, "api.*.update_key", true},
		{"key.updateRatelimit", c.key.UpdateRatelimit, "api.*.update_key", true},
		{"key.delete", c.key.Delete, "api.*.delete_key", true},
		{"key.connectRole", c.key.ConnectRole, "rbac.*.add_role_to_key", true},
		{"key.disconnectRole", c.key.DisconnectRole, "rbac.*.remove_role_from_key", true},
		{"key.connectPermission", c.key.ConnectPermission, "rbac.*.add_permission_to_key", true},
		{"key.disconnectPermission", c.key.DisconnectPermission, "rbac.*.remove_permission_from_key", true},

		{"ratelimit.namespace.create", c.ratelimit.CreateNamespace, "ratelimit.*.create_namespace", true},
		{"ratelimit.namespace.list", c.ratelimit.ListNamespaces, "ratelimit.*.read_namespace", false},
		{"ratelimit.namespace.updateName", c.ratelimit.UpdateNamespaceName, "ratelimit.*.update_namespace", true},
		{"ratelimit.namespace.delete", c.ratelimit.DeleteNamespace, "ratelimit.*.delete_namespace", true},
		{"ratelimit.override.create", c.ratelimit.CreateOverride, "ratelimit.*.set_override", true},
		{"ratelimit.override.list", c.ratelimit.ListOverrides, "ratelimit.*.read_override", false},
		{"ratelimit.override.update", c.ratelimit.UpdateOverride, "ratelimit.*.set_override", true},
		{"ratelimit.override.delete", c.ratelimit.DeleteOverride, "ratelimit.*.delete_override", true},

		{"rbac.permission.create", c.rbac.CreatePermission, "rbac.*.create_permission", true},
		{"rbac.permission.list", c.rbac.ListPermissions, "rbac.*.read_permission", false},
		{"rbac.permission.update", c.rbac.UpdatePermission, "rbac.*.update_permission", true},
		{"rbac.permission.delete", c.rbac.DeletePermission, "rbac.*.delete_permission", true},
		{"rbac.role.create", c.rbac.CreateRole, "rbac.*.create_role", true},
		{"rbac.role.list", c.rbac.ListRoles, "rbac.*.read_role", false},
		{"rbac.role.update", c.rbac.UpdateRole, "rbac.*.update_role", true},
		{"rbac.role.delete", c.rbac.DeleteRole, "rbac.*.delete_role", true},
		{"rbac.role.connectPermission", c.rbac.ConnectRolePermission, "rbac.*.add_permission_to_role", true},
		{"rbac.role.disconnectPermission", c.rbac.DisconnectRolePermission, "rbac.*.remove_permission_from_role", true},

		{"identity.create", c.identity.Create, "identity.*.create_identity", true},
		{"identity.list", c.identity.List, "identity.*.read_identity", false},
		{"identity.get", c.identity.Get, "identity.*.read_identity", false},
		{"identity.updateMetadata", c.identity.UpdateMetadata, "identity.*.update_identity", true},
		{"identity.delete", c.identity.Delete, "identity.*.delete_identity", true},

		{"project.create", c.project.Create, "project.*.create_project", true},
		{"project.list", c.project.List, "project.*.read_project", false},
		{"project.updateDeleteProtection", c.project.UpdateDeleteProtection, "project.*.update_project", true},
		{"project.delete", c.project.Delete, "project.*.delete_project", true},
		{"deployment.create", c.project.CreateDeployment, "project.*.create_deployment", true},
		{"deployment.list", c.project.ListDeployments, "project.*.read_deployment", false},
		{"deployment.get", c.project.GetDeployment, "project.*.read_deployment", false},
	}
}

// dashboardProcedures need a signed-in user with an active workspace.
func dashboardProcedures(c controllers) []procedure {
	return []procedure{
		{"workspace.get", c.workspace.Get, "", false},
		{"workspace.updateName", c.workspace.UpdateName, "", true},
		{"workspace.members", c.workspace.Members, "", false},

		{"rootKey.create", c.rootKey.Create, "", true},
		{"rootKey.list", c.rootKey.List, "", false},
		{"rootKey.updateName", c.rootKey.UpdateName, "", true},
		{"rootKey.delete", c.rootKey.Delete, "", true},

		{"audit.list", c.audit.List, "", false},
		{"support.createTicket", c.support.CreateTicket, "", true},
	}
}

func registerRoutes(e *echo.Echo, c controllers, authMiddleware *middleware.AuthMiddleware, limiter *middleware.RateLimitMiddleware) {
	authGroup := e.Group("/auth")
	authGroup.POST("/sign-up", c.auth.SignUp)
	authGroup.POST("/sign-in", c.auth.SignIn)
	authGroup.POST("/sign-out", c.auth.SignOut)
	authGroup.POST("/switch-workspace", c.auth.SwitchWorkspace, authMiddleware.RequireSession)
	authGroup.GET("/me", c.auth.Me, authMiddleware.RequireSession)

	// A user without any workspace creates the first one.
	e.POST("/rpc/workspace.create", c.workspace.Create, authMiddleware.RequireSession, limiter.LimitMutations)

	for _, p := range machineProcedures(c) {
		register(e, p, authMiddleware.RequireAuth, limiter)
	}
	for _, p := range dashboardProcedures(c) {
		register(e, p, authMiddleware.RequireSession, limiter)
	}
}

func register(e *echo.Echo, p procedure, authenticate echo.MiddlewareFunc, limiter *middleware.RateLimitMiddleware) {
	chain := []echo.MiddlewareFunc{authenticate, middleware.RequireWorkspace}
	if p.permission != "" {
		chain = append(chain, middleware.RequirePermission(p.permission))
	}
	if p.mutation {
		chain = append(chain, limiter.LimitMutations)
	}
	e.POST("/rpc/"+p.name, p.handler, chain...)
}
