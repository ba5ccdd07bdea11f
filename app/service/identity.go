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
	ErrIdentityNotFound = rpcerr.NotFound("identity not found")
	ErrIdentityExists   = rpcerr.Conflict("An identity with this externalId already exists")
)

type IdentityService interface {
	Create(ctx context.Context, caller *auth.Caller, req *types.CreateIdentityRequest) (*dto.IDResult, error)
	List(ctx context.Context, caller *auth.Caller) ([]dto.Identity, error)
	Get(ctx context.Context, caller *auth.Caller, req *types.IdentityRequest) (*dto.Identity, error)
	UpdateMetadata(ctx context.Context, caller *auth.Caller, req *types.UpdateIdentityMetadataRequest) error
	Delete(ctx context.Context, caller *auth.Caller, req *types.IdentityRequest) error
}

type identityService struct {
	db *sql.DB
}

func NewIdentityService(db *sql.DB) IdentityService {
	return &identityService{db: db}
}

func (s *identityService) Create(ctx context.Context, caller *auth.Caller, req *types.CreateIdentityRequest) (*dto.IDResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, rpcerr.Internal("create the identity", err)
	}
	defer tx.Rollback()

	repo := repository.NewIdentityRepository(tx)
	existing, err := repo.FindByExternalID(ctx, caller.WorkspaceID, req.ExternalID)
	if err != nil {
		return nil, rpcerr.Internal("create the identity", err)
	}
	if existing != nil {
		return nil, ErrIdentityExists
	}

	now := time.Now()
	identity := &entity.Identity{
		ID:          newID(prefixIdentity),
		WorkspaceID: caller.WorkspaceID,
		ExternalID:  req.ExternalID,
		Environment: defaultIdentityEnvironment,
		Meta:        rawJSON(req.Meta),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = repo.Create(ctx, identity); err != nil {
		if repository.IsDuplicateEntry(err) {
			return nil, ErrIdentityExists
		}
		return nil, rpcerr.Internal("create the identity", err)
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, auditEntry{
		Event:       "identity.create",
		Description: "Created " + identity.ID,
		Targets:     []entity.AuditLogTarget{target("identity", identity.ID, identity.ExternalID)},
	}); err != nil {
		return nil, rpcerr.Internal("create the identity", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, rpcerr.Internal("create the identity", err)
	}
	return &dto.IDResult{ID: identity.ID}, nil
}

func (s *identityService) List(ctx context.Context, caller *auth.Caller) ([]dto.Identity, error) {
	identities, err := repository.NewIdentityRepository(s.db).ListByWorkspace(ctx, caller.WorkspaceID)
	if err != nil {
		return nil, rpcerr.Internal("load the identities", err)
	}
	return dto.NewIdentities(identities), nil
}

func (s *identityService) Get(ctx context.Context, caller *auth.Caller, req *types.IdentityRequest) (*dto.Identity, error) {
	identity, err := findIdentity(ctx, s.db, caller.WorkspaceID, req.IdentityID)
	if err != nil {
		return nil, err
	}
	view := dto.NewIdentity(identity)
	return &view, nil
}

func (s *identityService) UpdateMetadata(ctx context.Context, caller *auth.Caller, req *types.UpdateIdentityMetadataRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rpcerr.Internal("update the identity", err)
	}
	defer tx.Rollback()

	identity, err := findIdentity(ctx, tx, caller.WorkspaceID, req.IdentityID)
	if err != nil {
		return err
	}
	if err = repository.NewIdentityRepository(tx).UpdateMeta(ctx, identity.ID, rawJSON(req.Meta), time.Now()); err != nil {
		return rpcerr.Internal("update the identity", err)
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, auditEntry{
		Event:       "identity.update",
		Description: "Updated the metadata of " + identity.ID,
		Targets:     []entity.AuditLogTarget{target("identity", identity.ID, identity.ExternalID)},
	}); err != nil {
		return rpcerr.Internal("update the identity", err)
	}
	if err = tx.Commit(); err != nil {
		return rpcerr.Internal("update the identity", err)
	}
	return nil
}

// Delete soft-deletes the identity and detaches it from every key.
func (s *identityService) Delete(ctx context.Context, caller *auth.Caller, req *types.IdentityRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rpcerr.Internal("delete the identity", err)
	}
	defer tx.Rollback()

	identity, err := findIdentity(ctx, tx, caller.WorkspaceID, req.IdentityID)
	if err != nil {
		return err
	}

	now := time.Now()
	if err = repository.NewKeyRepository(tx).ClearIdentity(ctx, identity.ID, now); err != nil {
		return rpcerr.Internal("delete the identity", err)
	}
	if err = repository.NewIdentityRepository(tx).SoftDelete(ctx, identity.ID, now); err != nil {
		return rpcerr.Internal("delete the identity", err)
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, auditEntry{
		Event:       "identity.delete",
		Description: "Deleted " + identity.ID,
		Targets:     []entity.AuditLogTarget{target("identity", identity.ID, identity.ExternalID)},
	}); err != nil {
		return rpcerr.Internal("delete the identity", err)
	}
	if err = tx.Commit(); err != nil {
		return rpcerr.Internal("delete the identity", err)
	}
	return nil
}

func findIdentity(ctx context.Context, db repository.DBTX, workspaceID, identityID string) (*entity.Identity, error) {
	identity, err := repository.NewIdentityRepository(db).FindByID(ctx, workspaceID, identityID)
	if err != nil {
		return nil, rpcerr.Internal("load the identity", err)
	}
	if identity == nil {
		return nil, ErrIdentityNotFound
	}
	return identity, nil
}
