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

	"github.com/sirupsen/logrus"
)

var (
	ErrNamespaceNotFound = rpcerr.NotFound("We are unable to find the namespace. Please try again or contact support")
	ErrNamespaceExists   = rpcerr.Conflict("A namespace with this name already exists")
	ErrOverrideNotFound  = rpcerr.NotFound("We are unable to find the override. Please try again or contact support")
	ErrOverrideExists    = rpcerr.Conflict("An override for this identifier already exists")
)

type RatelimitService interface {
	CreateNamespace(ctx context.Context, caller *auth.Caller, req *types.CreateNamespaceRequest) (*dto.IDResult, error)
	ListNamespaces(ctx context.Context, caller *auth.Caller) ([]dto.Namespace, error)
	UpdateNamespaceName(ctx context.Context, caller *auth.Caller, req *types.UpdateNamespaceNameRequest) error
	DeleteNamespace(ctx context.Context, caller *auth.Caller, req *types.NamespaceRequest) error
	CreateOverride(ctx context.Context, caller *auth.Caller, req *types.CreateOverrideRequest) (*dto.IDResult, error)
	ListOverrides(ctx context.Context, caller *auth.Caller, req *types.NamespaceRequest) ([]dto.Override, error)
	UpdateOverride(ctx context.Context, caller *auth.Caller, req *types.UpdateOverrideRequest) error
	DeleteOverride(ctx context.Context, caller *auth.Caller, req *types.OverrideRequest) error
}

type ratelimitService struct {
	db *sql.DB
}

func NewRatelimitService(db *sql.DB) RatelimitService {
	return &ratelimitService{db: db}
}

func (s *ratelimitService) CreateNamespace(ctx context.Context, caller *auth.Caller, req *types.CreateNamespaceRequest) (*dto.IDResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, rpcerr.Internal("create the namespace", err)
	}
	defer tx.Rollback()

	repo := repository.NewRatelimitNamespaceRepository(tx)
	existing, err := repo.FindByName(ctx, caller.WorkspaceID, req.Name)
	if err != nil {
		return nil, rpcerr.Internal("create the namespace", err)
	}
	if existing != nil {
		return nil, ErrNamespaceExists
	}

	now := time.Now()
	ns := &entity.RatelimitNamespace{
		ID:          newID(prefixNamespace),
		WorkspaceID: caller.WorkspaceID,
		Name:        req.Name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = repo.Create(ctx, ns); err != nil {
		if repository.IsDuplicateEntry(err) {
			return nil, ErrNamespaceExists
		}
		return nil, rpcerr.Internal("create the namespace", err)
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, auditEntry{
		Event:       "ratelimitNamespace.create",
		Description: "Created " + ns.ID,
		Targets:     []entity.AuditLogTarget{target("ratelimitNamespace", ns.ID, ns.Name)},
	}); err != nil {
		return nil, rpcerr.Internal("create the namespace", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, rpcerr.Internal("create the namespace", err)
	}

	logrus.WithFields(logrus.Fields{
		"workspace_id": caller.WorkspaceID,
		"namespace_id": ns.ID,
	}).Info("Ratelimit namespace created")
	return &dto.IDResult{ID: ns.ID}, nil
}

func (s *ratelimitService) ListNamespaces(ctx context.Context, caller *auth.Caller) ([]dto.Namespace, error) {
	namespaces, err := repository.NewRatelimitNamespaceRepository(s.db).ListByWorkspace(ctx, caller.WorkspaceID)
	if err != nil {
		return nil, rpcerr.Internal("load the namespaces", err)
	}
	return dto.NewNamespaces(namespaces), nil
}

func (s *ratelimitService) UpdateNamespaceName(ctx context.Context, caller *auth.Caller, req *types.UpdateNamespaceNameRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rpcerr.Internal("update the namespace", err)
	}
	defer tx.Rollback()

	repo := repository.NewRatelimitNamespaceRepository(tx)
	ns, err := findNamespace(ctx, tx, caller.WorkspaceID, req.NamespaceID)
	if err != nil {
		return err
	}
	if ns.Name != req.Name {
		clash, err := repo.FindByName(ctx, caller.WorkspaceID, req.Name)
		if err != nil {
			return rpcerr.Internal("update the namespace", err)
		}
		if clash != nil {
			return ErrNamespaceExists
		}
	}

	if err = repo.UpdateName(ctx, ns.ID, req.Name, time.Now()); err != nil {
		if repository.IsDuplicateEntry(err) {
			return ErrNamespaceExists
		}
		return rpcerr.Internal("update the namespace", err)
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, auditEntry{
		Event:       "ratelimitNamespace.update",
		Description: "Changed " + ns.ID + " name from " + ns.Name + " to " + req.Name,
		Targets:     []entity.AuditLogTarget{target("ratelimitNamespace", ns.ID, req.Name)},
	}); err != nil {
		return rpcerr.Internal("update the namespace", err)
	}
	if err = tx.Commit(); err != nil {
		return rpcerr.Internal("update the namespace", err)
	}
	return nil
}

// DeleteNamespace soft-deletes the namespace together with all of its overrides.
func (s *ratelimitService) DeleteNamespace(ctx context.Context, caller *auth.Caller, req *types.NamespaceRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rpcerr.Internal("delete the namespace", err)
	}
	defer tx.Rollback()

	ns, err := findNamespace(ctx, tx, caller.WorkspaceID, req.NamespaceID)
	if err != nil {
		return err
	}

	now := time.Now()
	if err = repository.NewRatelimitNamespaceRepository(tx).SoftDelete(ctx, ns.ID, now); err != nil {
		return rpcerr.Internal("delete the namespace", err)
	}
	if err = repository.NewRatelimitOverrideRepository(tx).SoftDeleteByNamespace(ctx, ns.ID, now); err != nil {
		return rpcerr.Internal("delete the namespace", err)
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, auditEntry{
		Event:       "ratelimitNamespace.delete",
		Description: "Deleted " + ns.ID,
		Targets:     []entity.AuditLogTarget{target("ratelimitNamespace", ns.ID, ns.Name)},
	}); err != nil {
		return rpcerr.Internal("delete the namespace", err)
	}
	if err = tx.Commit(); err != nil {
		return rpcerr.Internal("delete the namespace", err)
	}
	return nil
}

func (s *ratelimitService) CreateOverride(ctx context.Context, caller *auth.Caller, req *types.CreateOverrideRequest) (*dto.IDResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, rpcerr.Internal("create the override", err)
	}
	defer tx.Rollback()

	ns, err := findNamespace(ctx, tx, caller.WorkspaceID, req.NamespaceID)
	if err != nil {
		return nil, err
	}

	repo := repository.NewRatelimitOverrideRepository(tx)
	existing, err := repo.FindByIdentifier(ctx, ns.ID, req.Identifier)
	if err != nil {
		return nil, rpcerr.Internal("create the override", err)
	}
	if existing != nil {
		return nil, ErrOverrideExists
	}

	now := time.Now()
	override := &entity.RatelimitOverride{
		ID:          newID(prefixOverride),
		WorkspaceID: caller.WorkspaceID,
		NamespaceID: ns.ID,
		Identifier:  req.Identifier,
		Limit:       *req.Limit,
		Duration:    req.Duration,
		Async:       optionalBool(req.Async),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = repo.Create(ctx, override); err != nil {
		if repository.IsDuplicateEntry(err) {
			return nil, ErrOverrideExists
		}
		return nil, rpcerr.Internal("create the override", err)
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, auditEntry{
		Event:       "ratelimitOverride.create",
		Description: "Created an override for " + override.Identifier + " in " + ns.Name,
		Targets: []entity.AuditLogTarget{
			target("ratelimitNamespace", ns.ID, ns.Name),
			target("ratelimitOverride", override.ID, override.Identifier),
		},
	}); err != nil {
		return nil, rpcerr.Internal("create the override", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, rpcerr.Internal("create the override", err)
	}
	return &dto.IDResult{ID: override.ID}, nil
}

func (s *ratelimitService) ListOverrides(ctx context.Context, caller *auth.Caller, req *types.NamespaceRequest) ([]dto.Override, error) {
	ns, err := findNamespace(ctx, s.db, caller.WorkspaceID, req.NamespaceID)
	if err != nil {
		return nil, err
	}
	overrides, err := repository.NewRatelimitOverrideRepository(s.db).ListByNamespace(ctx, ns.ID)
	if err != nil {
		return nil, rpcerr.Internal("load the overrides", err)
	}
	return dto.NewOverrides(overrides), nil
}

func (s *ratelimitService) UpdateOverride(ctx context.Context, caller *auth.Caller, req *types.UpdateOverrideRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rpcerr.Internal("update the override", err)
	}
	defer tx.Rollback()

	repo := repository.NewRatelimitOverrideRepository(tx)
	override, err := findOverride(ctx, tx, caller.WorkspaceID, req.OverrideID)
	if err != nil {
		return err
	}

	override.Limit = *req.Limit
	override.Duration = req.Duration
	override.Async = optionalBool(req.Async)
	override.UpdatedAt = time.Now()
	if err = repo.Update(ctx, override); err != nil {
		return rpcerr.Internal("update the override", err)
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, auditEntry{
		Event:       "ratelimitOverride.update",
		Description: "Changed the limits of " + override.ID,
		Targets:     []entity.AuditLogTarget{target("ratelimitOverride", override.ID, override.Identifier)},
	}); err != nil {
		return rpcerr.Internal("update the override", err)
	}
	if err = tx.Commit(); err != nil {
		return rpcerr.Internal("update the override", err)
	}
	return nil
}

func (s *ratelimitService) DeleteOverride(ctx context.Context, caller *auth.Caller, req *types.OverrideRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rpcerr.Internal("delete the override", err)
	}
	defer tx.Rollback()

	override, err := findOverride(ctx, tx, caller.WorkspaceID, req.OverrideID)
	if err != nil {
		return err
	}
	if err = repository.NewRatelimitOverrideRepository(tx).SoftDelete(ctx, override.ID, time.Now()); err != nil {
		return rpcerr.Internal("delete the override", err)
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, auditEntry{
		Event:       "ratelimitOverride.delete",
		Description: "Deleted " + override.ID,
		Targets:     []entity.AuditLogTarget{target("ratelimitOverride", override.ID, override.Identifier)},
	}); err != nil {
		return rpcerr.Internal("delete the override", err)
	}
	if err = tx.Commit(); err != nil {
		return rpcerr.Internal("delete the override", err)
	}
	return nil
}

func findNamespace(ctx context.Context, db repository.DBTX, workspaceID, namespaceID string) (*entity.RatelimitNamespace, error) {
	ns, err := repository.NewRatelimitNamespaceRepository(db).FindByID(ctx, workspaceID, namespaceID)
	if err != nil {
		return nil, rpcerr.Internal("load the namespace", err)
	}
	if ns == nil {
		return nil, ErrNamespaceNotFound
	}
	return ns, nil
}

func findOverride(ctx context.Context, db repository.DBTX, workspaceID, overrideID string) (*entity.RatelimitOverride, error) {
	override, err := repository.NewRatelimitOverrideRepository(db).FindByID(ctx, workspaceID, overrideID)
	if err != nil {
		return nil, rpcerr.Internal("load the override", err)
	}
	if override == nil {
		return nil, ErrOverrideNotFound
	}
	return override, nil
}

func optionalBool(value *bool) sql.NullBool {
	if value == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *value, Valid: true}
}
