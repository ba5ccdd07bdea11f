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
	"github.com/vibast-solutions/ms-go-console/config"

	"github.com/sirupsen/logrus"
)

const (
	rootKeyPrefix = "console"
	rootKeyBytes  = 24
)

var (
	ErrRootKeyNotFound = rpcerr.NotFound("We are unable to find the root key. Please try again or contact support")
	ErrInvalidRootKey  = rpcerr.New(rpcerr.CodeUnauthorized, "The root key is invalid, disabled or expired")
)

type RootKeyService interface {
	Create(ctx context.Context, caller *auth.Caller, req *types.CreateRootKeyRequest) (*dto.CreateKeyResult, error)
	List(ctx context.Context, caller *auth.Caller) ([]dto.RootKey, error)
	UpdateName(ctx context.Context, caller *auth.Caller, req *types.UpdateRootKeyNameRequest) error
	Delete(ctx context.Context, caller *auth.Caller, req *types.DeleteRootKeysRequest) error
	Authenticate(ctx context.Context, rawKey string) (*auth.Caller, error)
}

type rootKeyService struct {
	db  *sql.DB
	cfg config.RootKeyConfig
	now func() time.Time
}

func NewRootKeyService(db *sql.DB, cfg config.RootKeyConfig) RootKeyService {
	return &rootKeyService{db: db, cfg: cfg, now: time.Now}
}

// Create stores the key in the platform key space and grants its permissions.
// Permission rows are created on first use in the platform workspace.
func (s *rootKeyService) Create(ctx context.Context, caller *auth.Caller, req *types.CreateRootKeyRequest) (*dto.CreateKeyResult, error) {
	rawKey, hash, start, err := generateKey(rootKeyPrefix, rootKeyBytes)
	if err != nil {
		return nil, rpcerr.Internal("create the root key", err)
	}

	now := s.now()
	key := &entity.Key{
		ID:             newID(prefixKey),
		KeyAuthID:      s.cfg.KeyAuthID,
		WorkspaceID:    s.cfg.WorkspaceID,
		ForWorkspaceID: sql.NullString{String: caller.WorkspaceID, Valid: true},
		Hash:           hash,
		Start:          start,
		Name:           optionalStringPtr(req.Name),
		Enabled:        true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, rpcerr.Internal("create the root key", err)
	}
	defer tx.Rollback()

	keyRepo := repository.NewKeyRepository(tx)
	if err = keyRepo.Create(ctx, key); err != nil {
		return nil, rpcerr.Internal("create the root key", err)
	}

	entries := []auditEntry{{
		Event:       "key.create",
		Description: "Created root key " + key.ID,
		Targets:     []entity.AuditLogTarget{target("key", key.ID, key.Name.String)},
	}}
	permRepo := repository.NewPermissionRepository(tx)
	for _, name := range uniqueStrings(req.Permissions) {
		permission, err := permRepo.FindByName(ctx, s.cfg.WorkspaceID, name)
		if err != nil {
			return nil, rpcerr.Internal("create the root key", err)
		}
		if permission == nil {
			permission = &entity.Permission{
				ID:          newID(prefixPermission),
				WorkspaceID: s.cfg.WorkspaceID,
				Name:        name,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err = permRepo.Create(ctx, permission); err != nil {
				return nil, rpcerr.Internal("create the root key", err)
			}
		}
		if err = keyRepo.AddPermission(ctx, s.cfg.WorkspaceID, key.ID, permission.ID, now); err != nil {
			return nil, rpcerr.Internal("create the root key", err)
		}
		entries = append(entries, auditEntry{
			Event:       "authorization.connect_permission_and_key",
			Description: "Connected " + name + " and " + key.ID,
			Targets: []entity.AuditLogTarget{
				target("permission", permission.ID, permission.Name),
				target("key", key.ID, key.Name.String),
			},
		})
	}

	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, entries...); err != nil {
		return nil, rpcerr.Internal("create the root key", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, rpcerr.Internal("create the root key", err)
	}

	logrus.WithFields(logrus.Fields{
		"workspace_id": caller.WorkspaceID,
		"key_id":       key.ID,
		"permissions":  len(req.Permissions),
	}).Info("Root key created")
	return &dto.CreateKeyResult{KeyID: key.ID, Key: rawKey}, nil
}

func (s *rootKeyService) List(ctx context.Context, caller *auth.Caller) ([]dto.RootKey, error) {
	repo := repository.NewKeyRepository(s.db)
	keys, err := repo.ListRootKeys(ctx, caller.WorkspaceID)
	if err != nil {
		return nil, rpcerr.Internal("load the root keys", err)
	}

	out := make([]dto.RootKey, 0, len(keys))
	for _, key := range keys {
		permissions, err := repo.ListPermissionNames(ctx, key.ID)
		if err != nil {
			return nil, rpcerr.Internal("load the root keys", err)
		}
		out = append(out, dto.NewRootKey(key, permissions))
	}
	return out, nil
}

func (s *rootKeyService) UpdateName(ctx context.Context, caller *auth.Caller, req *types.UpdateRootKeyNameRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rpcerr.Internal("update the root key", err)
	}
	defer tx.Rollback()

	repo := repository.NewKeyRepository(tx)
	key, err := repo.FindRootKeyByID(ctx, caller.WorkspaceID, req.KeyID)
	if err != nil {
		return rpcerr.Internal("update the root key", err)
	}
	if key == nil {
		return ErrRootKeyNotFound
	}

	key.Name = optionalStringPtr(req.Name)
	key.UpdatedAt = s.now()
	if err = repo.Update(ctx, key); err != nil {
		return rpcerr.Internal("update the root key", err)
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, auditEntry{
		Event:       "key.update",
		Description: "Changed the name of root key " + key.ID,
		Targets:     []entity.AuditLogTarget{target("key", key.ID, key.Name.String)},
	}); err != nil {
		return rpcerr.Internal("update the root key", err)
	}
	if err = tx.Commit(); err != nil {
		return rpcerr.Internal("update the root key", err)
	}
	return nil
}

func (s *rootKeyService) Delete(ctx context.Context, caller *auth.Caller, req *types.DeleteRootKeysRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rpcerr.Internal("delete the root keys", err)
	}
	defer tx.Rollback()

	repo := repository.NewKeyRepository(tx)
	ids := uniqueStrings(req.KeyIDs)
	keys, err := repo.FindRootKeysByIDs(ctx, caller.WorkspaceID, ids)
	if err != nil {
		return rpcerr.Internal("delete the root keys", err)
	}
	if len(keys) != len(ids) {
		return ErrRootKeyNotFound
	}
	if err = repo.SoftDelete(ctx, ids, s.now()); err != nil {
		return rpcerr.Internal("delete the root keys", err)
	}

	entries := make([]auditEntry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, auditEntry{
			Event:       "key.delete",
			Description: "Deleted root key " + key.ID,
			Targets:     []entity.AuditLogTarget{target("key", key.ID, key.Name.String)},
		})
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, entries...); err != nil {
		return rpcerr.Internal("delete the root keys", err)
	}
	if err = tx.Commit(); err != nil {
		return rpcerr.Internal("delete the root keys", err)
	}
	return nil
}

// Authenticate resolves a bearer root key to a caller acting on the key's
// target workspace.
func (s *rootKeyService) Authenticate(ctx context.Context, rawKey string) (*auth.Caller, error) {
	if rawKey == "" {
		return nil, ErrInvalidRootKey
	}

	repo := repository.NewKeyRepository(s.db)
	key, err := repo.FindByHash(ctx, HashKey(rawKey))
	if err != nil {
		return nil, rpcerr.Internal("verify the root key", err)
	}
	if key == nil || !key.IsRootKey() || key.WorkspaceID != s.cfg.WorkspaceID {
		return nil, ErrInvalidRootKey
	}
	if !key.Enabled || key.IsExpired(s.now()) {
		logrus.WithField("key_id", key.ID).Debug("Rejected disabled or expired root key")
		return nil, ErrInvalidRootKey
	}

	permissions, err := repo.ListPermissionNames(ctx, key.ID)
	if err != nil {
		return nil, rpcerr.Internal("verify the root key", err)
	}

	return &auth.Caller{
		ActorType:   entity.ActorTypeKey,
		ActorID:     key.ID,
		ActorName:   key.Name.String,
		WorkspaceID: key.ForWorkspaceID.String,
		Permissions: permissions,
	}, nil
}
