package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/vibast-solutions/ms-go-console/app/auth"
	"github.com/vibast-solutions/ms-go-console/app/dto"
	"github.com/vibast-solutions/ms-go-console/app/entity"
	"github.com/vibast-solutions/ms-go-console/app/repository"
	"github.com/vibast-solutions/ms-go-console/app/rpcerr"
	"github.com/vibast-solutions/ms-go-console/app/types"

	"github.com/sirupsen/logrus"
)

const defaultIdentityEnvironment = "default"

var (
	ErrKeyNotFound     = rpcerr.NotFound("We are unable to find the correct key. Please try again or contact support")
	ErrKeyAuthNotFound = rpcerr.NotFound("We are unable to find the correct keyAuth. Please try again or contact support")
	ErrRoleNotFound    = rpcerr.NotFound("role not found")
)

type KeyService interface {
	Create(ctx context.Context, caller *auth.Caller, req *types.CreateKeyRequest) (*dto.CreateKeyResult, error)
	List(ctx context.Context, caller *auth.Caller, req *types.ListKeysRequest) ([]dto.Key, error)
	Get(ctx context.Context, caller *auth.Caller, req *types.KeyRequest) (*dto.Key, error)
	UpdateName(ctx context.Context, caller *auth.Caller, req *types.UpdateKeyNameRequest) error
	UpdateEnabled(ctx context.Context, caller *auth.Caller, req *types.UpdateKeyEnabledRequest) error
	UpdateExpiration(ctx context.Context, caller *auth.Caller, req *types.UpdateKeyExpirationRequest) error
	UpdateMetadata(ctx context.Context, caller *auth.Caller, req *types.UpdateKeyMetadataRequest) error
	UpdateOwnerID(ctx context.Context, caller *auth.Caller, req *types.UpdateKeyOwnerRequest) error
	UpdateRemaining(ctx context.Context, caller *auth.Caller, req *types.UpdateKeyRemainingRequest) error
	UpdateRatelimit(ctx context.Context, caller *auth.Caller, req *types.UpdateKeyRatelimitRequest) error
	Delete(ctx context.Context, caller *auth.Caller, req *types.DeleteKeysRequest) error
	ConnectRole(ctx context.Context, caller *auth.Caller, req *types.KeyRoleRequest) error
	DisconnectRole(ctx context.Context, caller *auth.Caller, req *types.KeyRoleRequest) error
	ConnectPermission(ctx context.Context, caller *auth.Caller, req *types.KeyPermissionRequest) error
	DisconnectPermission(ctx context.Context, caller *auth.Caller, req *types.KeyPermissionRequest) error
}

type keyService struct {
	db *sql.DB
}

func NewKeyService(db *sql.DB) KeyService {
	return &keyService{db: db}
}

func (s *keyService) Create(ctx context.Context, caller *auth.Caller, req *types.CreateKeyRequest) (*dto.CreateKeyResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, rpcerr.Internal("create the key", err)
	}
	defer tx.Rollback()

	api, err := repository.NewAPIRepository(tx).FindByKeyAuthID(ctx, caller.WorkspaceID, req.KeyAuthID)
	if err != nil {
		return nil, rpcerr.Internal("create the key", err)
	}
	if api == nil {
		return nil, ErrKeyAuthNotFound
	}

	rawKey, hash, start, err := generateKey(req.Prefix, req.KeyBytes())
	if err != nil {
		return nil, rpcerr.Internal("create the key", err)
	}

	now := time.Now()
	key := &entity.Key{
		ID:          newID(prefixKey),
		KeyAuthID:   req.KeyAuthID,
		WorkspaceID: caller.WorkspaceID,
		Hash:        hash,
		Start:       start,
		Name:        optionalStringPtr(req.Name),
		OwnerID:     optionalStringPtr(req.OwnerID),
		Meta:        rawJSON(req.Meta),
		Environment: optionalStringPtr(req.Environment),
		Enabled:     req.IsEnabled(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Expires != nil {
		key.Expires = sql.NullTime{Time: time.UnixMilli(*req.Expires), Valid: true}
	}
	applyRemaining(key, req.Remaining, req.Refill)
	if req.Ratelimit != nil {
		key.RatelimitLimit = sql.NullInt64{Int64: req.Ratelimit.Limit, Valid: true}
		key.RatelimitDuration = sql.NullInt64{Int64: req.Ratelimit.Duration, Valid: true}
		key.RatelimitAsync = sql.NullBool{Bool: req.Ratelimit.Async, Valid: true}
	}

	if req.ExternalID != nil && *req.ExternalID != "" {
		identity, err := findOrCreateIdentity(ctx, tx, caller.WorkspaceID, *req.ExternalID, now)
		if err != nil {
			return nil, rpcerr.Internal("create the key", err)
		}
		key.IdentityID = sql.NullString{String: identity.ID, Valid: true}
		key.OwnerID = sql.NullString{String: identity.ExternalID, Valid: true}
	}

	if err = repository.NewKeyRepository(tx).Create(ctx, key); err != nil {
		return nil, rpcerr.Internal("create the key", err)
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, auditEntry{
		Event:       "key.create",
		Description: "Created " + key.ID + " in " + key.KeyAuthID,
		Targets: []entity.AuditLogTarget{
			target("key", key.ID, key.Name.String),
			target("api", api.ID, api.Name),
		},
	}); err != nil {
		return nil, rpcerr.Internal("create the key", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, rpcerr.Internal("create the key", err)
	}

	logrus.WithFields(logrus.Fields{
		"workspace_id": caller.WorkspaceID,
		"key_id":       key.ID,
		"key_auth_id":  key.KeyAuthID,
	}).Info("Key created")
	return &dto.CreateKeyResult{KeyID: key.ID, Key: rawKey}, nil
}

func (s *keyService) List(ctx context.Context, caller *auth.Caller, req *types.ListKeysRequest) ([]dto.Key, error) {
	keys, err := repository.NewKeyRepository(s.db).ListByKeyAuth(ctx, caller.WorkspaceID, req.KeyAuthID)
	if err != nil {
		return nil, rpcerr.Internal("load the keys", err)
	}
	return dto.NewKeys(keys), nil
}

func (s *keyService) Get(ctx context.Context, caller *auth.Caller, req *types.KeyRequest) (*dto.Key, error) {
	key, err := findKey(ctx, s.db, caller.WorkspaceID, req.KeyID)
	if err != nil {
		return nil, err
	}
	view := dto.NewKey(key)
	return &view, nil
}

func (s *keyService) UpdateName(ctx context.Context, caller *auth.Caller, req *types.UpdateKeyNameRequest) error {
	return s.update(ctx, caller, req.KeyID, "update the name", func(key *entity.Key) string {
		key.Name = optionalStringPtr(req.Name)
		if !key.Name.Valid {
			return "Removed the name of " + key.ID
		}
		return "Changed the name of " + key.ID + " to " + key.Name.String
	})
}

func (s *keyService) UpdateEnabled(ctx context.Context, caller *auth.Caller, req *types.UpdateKeyEnabledRequest) error {
	return s.update(ctx, caller, req.KeyID, "update the key", func(key *entity.Key) string {
		key.Enabled = *req.Enabled
		if key.Enabled {
			return "Enabled " + key.ID
		}
		return "Disabled " + key.ID
	})
}

func (s *keyService) UpdateExpiration(ctx context.Context, caller *auth.Caller, req *types.UpdateKeyExpirationRequest) error {
	return s.update(ctx, caller, req.KeyID, "update the expiration", func(key *entity.Key) string {
		if req.Expires == nil {
			key.Expires = sql.NullTime{}
			return "Removed the expiration of " + key.ID
		}
		key.Expires = sql.NullTime{Time: time.UnixMilli(*req.Expires), Valid: true}
		return "Changed the expiration of " + key.ID + " to " + key.Expires.Time.UTC().Format(time.RFC3339)
	})
}

func (s *keyService) UpdateMetadata(ctx context.Context, caller *auth.Caller, req *types.UpdateKeyMetadataRequest) error {
	return s.update(ctx, caller, req.KeyID, "update the metadata", func(key *entity.Key) string {
		key.Meta = rawJSON(req.Meta)
		if !key.Meta.Valid {
			return "Removed the metadata of " + key.ID
		}
		return "Updated the metadata of " + key.ID
	})
}

func (s *keyService) UpdateOwnerID(ctx context.Context, caller *auth.Caller, req *types.UpdateKeyOwnerRequest) error {
	return s.update(ctx, caller, req.KeyID, "update the owner", func(key *entity.Key) string {
		key.OwnerID = optionalStringPtr(req.OwnerID)
		if !key.OwnerID.Valid {
			return "Removed the owner of " + key.ID
		}
		return "Changed the owner of " + key.ID + " to " + key.OwnerID.String
	})
}

func (s *keyService) UpdateRemaining(ctx context.Context, caller *auth.Caller, req *types.UpdateKeyRemainingRequest) error {
	return s.update(ctx, caller, req.KeyID, "update the remaining uses", func(key *entity.Key) string {
		applyRemaining(key, req.Remaining, req.Refill)
		if !key.RemainingRequests.Valid {
			return "Removed the usage limit of " + key.ID
		}
		return "Changed the remaining uses of " + key.ID
	})
}

// UpdateRatelimit clears every ratelimit column when ratelimiting is disabled.
func (s *keyService) UpdateRatelimit(ctx context.Context, caller *auth.Caller, req *types.UpdateKeyRatelimitRequest) error {
	return s.update(ctx, caller, req.KeyID, "update the ratelimit", func(key *entity.Key) string {
		if !req.Enabled {
			key.RatelimitLimit = sql.NullInt64{}
			key.RatelimitDuration = sql.NullInt64{}
			key.RatelimitAsync = sql.NullBool{}
			return "Disabled ratelimiting for " + key.ID
		}
		key.RatelimitLimit = sql.NullInt64{Int64: *req.Limit, Valid: true}
		key.RatelimitDuration = sql.NullInt64{Int64: *req.Duration, Valid: true}
		async := req.Async != nil && *req.Async
		key.RatelimitAsync = sql.NullBool{Bool: async, Valid: true}
		return "Changed the ratelimit of " + key.ID
	})
}

// Delete soft-deletes every listed key. Unknown ids fail the whole call.
func (s *keyService) Delete(ctx context.Context, caller *auth.Caller, req *types.DeleteKeysRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rpcerr.Internal("delete the keys", err)
	}
	defer tx.Rollback()

	keyRepo := repository.NewKeyRepository(tx)
	ids := uniqueStrings(req.KeyIDs)
	keys, err := keyRepo.FindByIDs(ctx, caller.WorkspaceID, ids)
	if err != nil {
		return rpcerr.Internal("delete the keys", err)
	}
	if len(keys) != len(ids) {
		return ErrKeyNotFound
	}

	if err = keyRepo.SoftDelete(ctx, ids, time.Now()); err != nil {
		return rpcerr.Internal("delete the keys", err)
	}

	entries := make([]auditEntry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, auditEntry{
			Event:       "key.delete",
			Description: "Deleted " + key.ID,
			Targets:     []entity.AuditLogTarget{target("key", key.ID, key.Name.String)},
		})
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, entries...); err != nil {
		return rpcerr.Internal("delete the keys", err)
	}
	if err = tx.Commit(); err != nil {
		return rpcerr.Internal("delete the keys", err)
	}
	return nil
}

func (s *keyService) ConnectRole(ctx context.Context, caller *auth.Caller, req *types.KeyRoleRequest) error {
	return s.link(ctx, caller, req.KeyID, "connect the role", func(tx *sql.Tx, key *entity.Key) (auditEntry, error) {
		role, err := repository.NewRoleRepository(tx).FindByID(ctx, caller.WorkspaceID, req.RoleID)
		if err != nil {
			return auditEntry{}, rpcerr.Internal("connect the role", err)
		}
		if role == nil {
			return auditEntry{}, ErrRoleNotFound
		}
		if err = repository.NewKeyRepository(tx).AddRole(ctx, caller.WorkspaceID, key.ID, role.ID, time.Now()); err != nil {
			return auditEntry{}, rpcerr.Internal("connect the role", err)
		}
		return auditEntry{
			Event:       "authorization.connect_role_and_key",
			Description: "Connected " + role.ID + " and " + key.ID,
			Targets:     []entity.AuditLogTarget{target("role", role.ID, role.Name), target("key", key.ID, key.Name.String)},
		}, nil
	})
}

func (s *keyService) DisconnectRole(ctx context.Context, caller *auth.Caller, req *types.KeyRoleRequest) error {
	return s.link(ctx, caller, req.KeyID, "disconnect the role", func(tx *sql.Tx, key *entity.Key) (auditEntry, error) {
		if err := repository.NewKeyRepository(tx).RemoveRole(ctx, key.ID, req.RoleID); err != nil {
			return auditEntry{}, rpcerr.Internal("disconnect the role", err)
		}
		return auditEntry{
			Event:       "authorization.disconnect_role_and_key",
			Description: "Disconnected " + req.RoleID + " and " + key.ID,
			Targets:     []entity.AuditLogTarget{target("role", req.RoleID, ""), target("key", key.ID, key.Name.String)},
		}, nil
	})
}

func (s *keyService) ConnectPermission(ctx context.Context, caller *auth.Caller, req *types.KeyPermissionRequest) error {
	return s.link(ctx, caller, req.KeyID, "connect the permission", func(tx *sql.Tx, key *entity.Key) (auditEntry, error) {
		permission, err := repository.NewPermissionRepository(tx).FindByID(ctx, caller.WorkspaceID, req.PermissionID)
		if err != nil {
			return auditEntry{}, rpcerr.Internal("connect the permission", err)
		}
		if permission == nil {
			return auditEntry{}, ErrPermissionNotFound
		}
		if err = repository.NewKeyRepository(tx).AddPermission(ctx, caller.WorkspaceID, key.ID, permission.ID, time.Now()); err != nil {
			return auditEntry{}, rpcerr.Internal("connect the permission", err)
		}
		return auditEntry{
			Event:       "authorization.connect_permission_and_key",
			Description: "Connected " + permission.ID + " and " + key.ID,
			Targets:     []entity.AuditLogTarget{target("permission", permission.ID, permission.Name), target("key", key.ID, key.Name.String)},
		}, nil
	})
}

func (s *keyService) DisconnectPermission(ctx context.Context, caller *auth.Caller, req *types.KeyPermissionRequest) error {
	return s.link(ctx, caller, req.KeyID, "disconnect the permission", func(tx *sql.Tx, key *entity.Key) (auditEntry, error) {
		if err := repository.NewKeyRepository(tx).RemovePermission(ctx, key.ID, req.PermissionID); err != nil {
			return auditEntry{}, rpcerr.Internal("disconnect the permission", err)
		}
		return auditEntry{
			Event:       "authorization.disconnect_permission_and_key",
			Description: "Disconnected " + req.PermissionID + " and " + key.ID,
			Targets:     []entity.AuditLogTarget{target("permission", req.PermissionID, ""), target("key", key.ID, key.Name.String)},
		}, nil
	})
}

func (s *keyService) update(ctx context.Context, caller *auth.Caller, keyID, action string, mutate func(key *entity.Key) string) error {
	return s.link(ctx, caller, keyID, action, func(tx *sql.Tx, key *entity.Key) (auditEntry, error) {
		description := mutate(key)
		key.UpdatedAt = time.Now()
		if err := repository.NewKeyRepository(tx).Update(ctx, key); err != nil {
			return auditEntry{}, rpcerr.Internal(action, err)
		}
		return auditEntry{
			Event:       "key.update",
			Description: description,
			Targets:     []entity.AuditLogTarget{target("key", key.ID, key.Name.String)},
		}, nil
	})
}

// link loads the key inside a transaction, applies fn and records its audit entry.
func (s *keyService) link(ctx context.Context, caller *auth.Caller, keyID, action string, fn func(tx *sql.Tx, key *entity.Key) (auditEntry, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rpcerr.Internal(action, err)
	}
	defer tx.Rollback()

	key, err := findKey(ctx, tx, caller.WorkspaceID, keyID)
	if err != nil {
		return err
	}

	entry, err := fn(tx, key)
	if err != nil {
		return err
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, entry); err != nil {
		return rpcerr.Internal(action, err)
	}
	if err = tx.Commit(); err != nil {
		return rpcerr.Internal(action, err)
	}
	return nil
}

func findKey(ctx context.Context, db repository.DBTX, workspaceID, keyID string) (*entity.Key, error) {
	key, err := repository.NewKeyRepository(db).FindByID(ctx, workspaceID, keyID)
	if err != nil {
		return nil, rpcerr.Internal("load the key", err)
	}
	if key == nil {
		return nil, ErrKeyNotFound
	}
	return key, nil
}

func findOrCreateIdentity(ctx context.Context, db repository.DBTX, workspaceID, externalID string, now time.Time) (*entity.Identity, error) {
	repo := repository.NewIdentityRepository(db)
	identity, err := repo.FindByExternalID(ctx, workspaceID, externalID)
	if err != nil {
		return nil, err
	}
	if identity != nil {
		return identity, nil
	}

	identity = &entity.Identity{
		ID:          newID(prefixIdentity),
		WorkspaceID: workspaceID,
		ExternalID:  externalID,
		Environment: defaultIdentityEnvironment,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = repo.Create(ctx, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// applyRemaining sets the usage limit; a nil remaining also clears the refill.
func applyRemaining(key *entity.Key, remaining *int64, refill *types.KeyRefill) {
	if remaining == nil {
		key.RemainingRequests = sql.NullInt64{}
		key.RefillAmount = sql.NullInt64{}
		key.RefillDay = sql.NullInt64{}
		return
	}
	key.RemainingRequests = sql.NullInt64{Int64: *remaining, Valid: true}
	key.RefillAmount = sql.NullInt64{}
	key.RefillDay = sql.NullInt64{}
	if refill != nil {
		key.RefillAmount = sql.NullInt64{Int64: refill.Amount, Valid: true}
		if refill.RefillDay != nil {
			key.RefillDay = sql.NullInt64{Int64: *refill.RefillDay, Valid: true}
		}
	}
}

func rawJSON(raw json.RawMessage) sql.NullString {
	if len(raw) == 0 || string(raw) == "null" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
