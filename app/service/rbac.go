package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-console/app/auth"
	"github.com/vibast-solutions/ms-go-console/app/dto"
	"github.com/vibast-solutions/ms-go-console/app/entity"
	"github.com/vibast-solutions/ms-go-console/app/repository"
	"github.com/vibast-solutions/ms-go-console/app/rpcerr"
	"github.com/vibast-solutions/ms-go-console/app/types"
)

var (
	ErrPermissionNotFound = rpcerr.NotFound("permission not found")
	ErrPermissionExists   = rpcerr.Conflict("A permission with this name already exists")
	ErrRoleExists         = rpcerr.Conflict("A role with this name already exists")
)

type RBACService interface {
	CreatePermission(ctx context.Context, caller *auth.Caller, req *types.CreatePermissionRequest) (*dto.IDResult, error)
	ListPermissions(ctx context.Context, caller *auth.Caller) ([]dto.Permission, error)
	UpdatePermission(ctx context.Context, caller *auth.Caller, req *types.UpdatePermissionRequest) error
	DeletePermission(ctx context.Context, caller *auth.Caller, req *types.PermissionRequest) error
	CreateRole(ctx context.Context, caller *auth.Caller, req *types.CreateRoleRequest) (*dto.IDResult, error)
	ListRoles(ctx context.Context, caller *auth.Caller) ([]dto.Role, error)
	UpdateRole(ctx context.Context, caller *auth.Caller, req *types.UpdateRoleRequest) error
	DeleteRole(ctx context.Context, caller *auth.Caller, req *types.RoleRequest) error
	ConnectRolePermission(ctx context.Context, caller *auth.Caller, req *types.RolePermissionRequest) error
	DisconnectRolePermission(ctx context.Context, caller *auth.Caller, req *types.RolePermissionRequest) error
}

type rbacService struct {
	db *sql.DB
}

func NewRBACService(db *sql.DB) RBACService {
	return &rbacService{db: db}
}

func (s *rbacService) CreatePermission(ctx context.Context, caller *auth.Caller, req *types.CreatePermissionRequest) (*dto.IDResult, error) {
	now := time.Now()
	permission := &entity.Permission{
		ID:          newID(prefixPermission),
		WorkspaceID: caller.WorkspaceID,
		Name:        req.Name,
		Description: optionalStringPtr(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.inTx(ctx, caller, "create the permission", func(tx *sql.Tx) ([]auditEntry, error) {
		repo := repository.NewPermissionRepository(tx)
		existing, err := repo.FindByName(ctx, caller.WorkspaceID, req.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrPermissionExists
		}
		if err = repo.Create(ctx, permission); err != nil {
			if repository.IsDuplicateEntry(err) {
				return nil, ErrPermissionExists
			}
			return nil, err
		}
		return []auditEntry{{
			Event:       "permission.create",
			Description: "Created " + permission.ID,
			Targets:     []entity.AuditLogTarget{target("permission", permission.ID, permission.Name)},
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.IDResult{ID: permission.ID}, nil
}

func (s *rbacService) ListPermissions(ctx context.Context, caller *auth.Caller) ([]dto.Permission, error) {
	permissions, err := repository.NewPermissionRepository(s.db).ListByWorkspace(ctx, caller.WorkspaceID)
	if err != nil {
		return nil, rpcerr.Internal("load the permissions", err)
	}
	return dto.NewPermissions(permissions), nil
}

func (s *rbacService) UpdatePermission(ctx context.Context, caller *auth.Caller, req *types.UpdatePermissionRequest) error {
	return s.inTx(ctx, caller, "update the permission", func(tx *sql.Tx) ([]auditEntry, error) {
		repo := repository.NewPermissionRepository(tx)
		permission, err := repo.FindByID(ctx, caller.WorkspaceID, req.PermissionID)
		if err != nil {
			return nil, err
		}
		if permission == nil {
			return nil, ErrPermissionNotFound
		}
		if permission.Name != req.Name {
			clash, err := repo.FindByName(ctx, caller.WorkspaceID, req.Name)
			if err != nil {
				return nil, err
			}
			if clash != nil {
				return nil, ErrPermissionExists
			}
		}

		permission.Name = req.Name
		permission.Description = optionalStringPtr(req.Description)
		permission.UpdatedAt = time.Now()
		if err = repo.Update(ctx, permission); err != nil {
			return nil, err
		}
		return []auditEntry{{
			Event:       "permission.update",
			Description: "Updated " + permission.ID,
			Targets:     []entity.AuditLogTarget{target("permission", permission.ID, permission.Name)},
		}}, nil
	})
}

func (s *rbacService) DeletePermission(ctx context.Context, caller *auth.Caller, req *types.PermissionRequest) error {
	return s.inTx(ctx, caller, "delete the permission", func(tx *sql.Tx) ([]auditEntry, error) {
		repo := repository.NewPermissionRepository(tx)
		permission, err := repo.FindByID(ctx, caller.WorkspaceID, req.PermissionID)
		if err != nil {
			return nil, err
		}
		if permission == nil {
			return nil, ErrPermissionNotFound
		}
		if err = repo.Delete(ctx, permission.ID); err != nil {
			return nil, err
		}
		return []auditEntry{{
			Event:       "permission.delete",
			Description: "Deleted " + permission.ID,
			Targets:     []entity.AuditLogTarget{target("permission", permission.ID, permission.Name)},
		}}, nil
	})
}

func (s *rbacService) CreateRole(ctx context.Context, caller *auth.Caller, req *types.CreateRoleRequest) (*dto.IDResult, error) {
	now := time.Now()
	role := &entity.Role{
		ID:          newID(prefixRole),
		WorkspaceID: caller.WorkspaceID,
		Name:        req.Name,
		Description: optionalStringPtr(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.inTx(ctx, caller, "create the role", func(tx *sql.Tx) ([]auditEntry, error) {
		roleRepo := repository.NewRoleRepository(tx)
		if err := roleRepo.Create(ctx, role); err != nil {
			if repository.IsDuplicateEntry(err) {
				return nil, ErrRoleExists
			}
			return nil, err
		}
		entries := []auditEntry{{
			Event:       "role.create",
			Description: "Created " + role.ID,
			Targets:     []entity.AuditLogTarget{target("role", role.ID, role.Name)},
		}}

		permRepo := repository.NewPermissionRepository(tx)
		for _, permissionID := range uniqueStrings(req.PermissionIDs) {
			permission, err := permRepo.FindByID(ctx, caller.WorkspaceID, permissionID)
			if err != nil {
				return nil, err
			}
			if permission == nil {
				return nil, ErrPermissionNotFound
			}
			if err = roleRepo.AddPermission(ctx, caller.WorkspaceID, role.ID, permission.ID, now); err != nil {
				return nil, err
			}
			entries = append(entries, auditEntry{
				Event:       "authorization.connect_role_and_permission",
				Description: "Connected " + role.ID + " and " + permission.ID,
				Targets: []entity.AuditLogTarget{
					target("role", role.ID, role.Name),
					target("permission", permission.ID, permission.Name),
				},
			})
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.IDResult{ID: role.ID}, nil
}

func (s *rbacService) ListRoles(ctx context.Context, caller *auth.Caller) ([]dto.Role, error) {
	repo := repository.NewRoleRepository(s.db)
	roles, err := repo.ListByWorkspace(ctx, caller.WorkspaceID)
	if err != nil {
		return nil, rpcerr.Internal("load the roles", err)
	}

	out := make([]dto.Role, 0, len(roles))
	for _, role := range roles {
		permissionIDs, err := repo.ListPermissionIDs(ctx, role.ID)
		if err != nil {
			return nil, rpcerr.Internal("load the roles", err)
		}
		out = append(out, dto.NewRole(role, permissionIDs))
	}
	return out, nil
}

func (s *rbacService) UpdateRole(ctx context.Context, caller *auth.Caller, req *types.UpdateRoleRequest) error {
	return s.inTx(ctx, caller, "update the role", func(tx *sql.Tx) ([]auditEntry, error) {
		repo := repository.NewRoleRepository(tx)
		role, err := repo.FindByID(ctx, caller.WorkspaceID, req.RoleID)
		if err != nil {
			return nil, err
		}
		if role == nil {
			return nil, ErrRoleNotFound
		}

		role.Name = req.Name
		role.Description = optionalStringPtr(req.Description)
		role.UpdatedAt = time.Now()
		if err = repo.Update(ctx, role); err != nil {
			if repository.IsDuplicateEntry(err) {
				return nil, ErrRoleExists
			}
			return nil, err
		}
		return []auditEntry{{
			Event:       "role.update",
			Description: "Updated " + role.ID,
			Targets:     []entity.AuditLogTarget{target("role", role.ID, role.Name)},
		}}, nil
	})
}

func (s *rbacService) DeleteRole(ctx context.Context, caller *auth.Caller, req *types.RoleRequest) error {
	return s.inTx(ctx, caller, "delete the role", func(tx *sql.Tx) ([]auditEntry, error) {
		repo := repository.NewRoleRepository(tx)
		role, err := repo.FindByID(ctx, caller.WorkspaceID, req.RoleID)
		if err != nil {
			return nil, err
		}
		if role == nil {
			return nil, ErrRoleNotFound
		}
		if err = repo.Delete(ctx, role.ID); err != nil {
			return nil, err
		}
		return []auditEntry{{
			Event:       "role.delete",
			Description: "Deleted " + role.ID,
			Targets:     []entity.AuditLogTarget{target("role", role.ID, role.Name)},
		}}, nil
	})
}

func (s *rbacService) ConnectRolePermission(ctx context.Context, caller *auth.Caller, req *types.RolePermissionRequest) error {
	return s.inTx(ctx, caller, "connect the permission", func(tx *sql.Tx) ([]auditEntry, error) {
		role, permission, err := s.findPair(ctx, tx, caller.WorkspaceID, req)
		if err != nil {
			return nil, err
		}
		if err = repository.NewRoleRepository(tx).AddPermission(ctx, caller.WorkspaceID, role.ID, permission.ID, time.Now()); err != nil {
			return nil, err
		}
		return []auditEntry{{
			Event:       "authorization.connect_role_and_permission",
			Description: "Connected " + role.ID + " and " + permission.ID,
			Targets:     []entity.AuditLogTarget{target("role", role.ID, role.Name), target("permission", permission.ID, permission.Name)},
		}}, nil
	})
}

func (s *rbacService) DisconnectRolePermission(ctx context.Context, caller *auth.Caller, req *types.RolePermissionRequest) error {
	return s.inTx(ctx, caller, "disconnect the permission", func(tx *sql.Tx) ([]auditEntry, error) {
		role, permission, err := s.findPair(ctx, tx, caller.WorkspaceID, req)
		if err != nil {
			return nil, err
		}
		if err = repository.NewRoleRepository(tx).RemovePermission(ctx, role.ID, permission.ID); err != nil {
			return nil, err
		}
		return []auditEntry{{
			Event:       "authorization.disconnect_role_and_permissions",
			Description: "Disconnected " + role.ID + " and " + permission.ID,
			Targets:     []entity.AuditLogTarget{target("role", role.ID, role.Name), target("permission", permission.ID, permission.Name)},
		}}, nil
	})
}

func (s *rbacService) findPair(ctx context.Context, tx *sql.Tx, workspaceID string, req *types.RolePermissionRequest) (*entity.Role, *entity.Permission, error) {
	role, err := repository.NewRoleRepository(tx).FindByID(ctx, workspaceID, req.RoleID)
	if err != nil {
		return nil, nil, err
	}
	if role == nil {
		return nil, nil, ErrRoleNotFound
	}
	permission, err := repository.NewPermissionRepository(tx).FindByID(ctx, workspaceID, req.PermissionID)
	if err != nil {
		return nil, nil, err
	}
	if permission == nil {
		return nil, nil, ErrPermissionNotFound
	}
	return role, permission, nil
}

// inTx runs fn in a transaction and writes its audit entries before commit.
// Errors that are not already *rpcerr.Error are wrapped as internal failures.
func (s *rbacService) inTx(ctx context.Context, caller *auth.Caller, action string, fn func(tx *sql.Tx) ([]auditEntry, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rpcerr.Internal(action, err)
	}
	defer tx.Rollback()

	entries, err := fn(tx)
	if err != nil {
		return asRPCError(action, err)
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, entries...); err != nil {
		return rpcerr.Internal(action, err)
	}
	if err = tx.Commit(); err != nil {
		return rpcerr.Internal(action, err)
	}
	return nil
}
