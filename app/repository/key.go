package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-console/app/entity"
)

const keyColumns = `id, key_auth_id, workspace_id, for_workspace_id, hash, start, name, owner_id,
	identity_id, meta, environment, enabled, expires, remaining_requests, refill_amount,
	refill_day, ratelimit_async, ratelimit_limit, ratelimit_duration, created_at, updated_at, deleted_at`

type KeyRepository struct {
	db DBTX
}

func NewKeyRepository(db DBTX) *KeyRepository {
	return &KeyRepository{db: db}
}

func (r *KeyRepository) Create(ctx context.Context, key *entity.Key) error {
	query := `
		INSERT INTO ` + "`keys`" + ` (id, key_auth_id, workspace_id, for_workspace_id, hash, start, name,
			owner_id, identity_id, meta, environment, enabled, expires, remaining_requests,
			refill_amount, refill_day, ratelimit_async, ratelimit_limit, ratelimit_duration,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		key.ID,
		key.KeyAuthID,
		key.WorkspaceID,
		key.ForWorkspaceID,
		key.Hash,
		key.Start,
		key.Name,
		key.OwnerID,
		key.IdentityID,
		key.Meta,
		key.Environment,
		key.Enabled,
		key.Expires,
		key.RemainingRequests,
		key.RefillAmount,
		key.RefillDay,
		key.RatelimitAsync,
		key.RatelimitLimit,
		key.RatelimitDuration,
		key.CreatedAt,
		key.UpdatedAt,
	)
	return err
}

// FindByID returns a customer key of the workspace. Root keys are not visible here.
func (r *KeyRepository) FindByID(ctx context.Context, workspaceID, id string) (*entity.Key, error) {
	query := `SELECT ` + keyColumns + `
		FROM ` + "`keys`" + ` WHERE id = ? AND workspace_id = ? AND deleted_at IS NULL`
	return r.findOne(ctx, query, id, workspaceID)
}

// FindRootKeyByID returns a root key managing forWorkspaceID.
func (r *KeyRepository) FindRootKeyByID(ctx context.Context, forWorkspaceID, id string) (*entity.Key, error) {
	query := `SELECT ` + keyColumns + `
		FROM ` + "`keys`" + ` WHERE id = ? AND for_workspace_id = ? AND deleted_at IS NULL`
	return r.findOne(ctx, query, id, forWorkspaceID)
}

func (r *KeyRepository) FindByHash(ctx context.Context, hash string) (*entity.Key, error) {
	query := `SELECT ` + keyColumns + `
		FROM ` + "`keys`" + ` WHERE hash = ? AND deleted_at IS NULL`
	return r.findOne(ctx, query, hash)
}

func (r *KeyRepository) ListByKeyAuth(ctx context.Context, workspaceID, keyAuthID string) ([]*entity.Key, error) {
	query := `SELECT ` + keyColumns + `
		FROM ` + "`keys`" + ` WHERE key_auth_id = ? AND workspace_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC`
	return r.list(ctx, query, keyAuthID, workspaceID)
}

func (r *KeyRepository) ListRootKeys(ctx context.Context, forWorkspaceID string) ([]*entity.Key, error) {
	query := `SELECT ` + keyColumns + `
		FROM ` + "`keys`" + ` WHERE for_workspace_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC`
	return r.list(ctx, query, forWorkspaceID)
}

// FindByIDs returns the subset of ids that exist in the workspace.
func (r *KeyRepository) FindByIDs(ctx context.Context, workspaceID string, ids []string) ([]*entity.Key, error) {
	if len(ids) == 0 {
		return []*entity.Key{}, nil
	}
	query := `SELECT ` + keyColumns + `
		FROM ` + "`keys`" + ` WHERE workspace_id = ? AND deleted_at IS NULL AND id IN (` + placeholders(len(ids)) + `)`
	args := append([]interface{}{workspaceID}, stringArgs(ids)...)
	return r.list(ctx, query, args...)
}

// FindRootKeysByIDs is FindByIDs for root keys managing forWorkspaceID.
func (r *KeyRepository) FindRootKeysByIDs(ctx context.Context, forWorkspaceID string, ids []string) ([]*entity.Key, error) {
	if len(ids) == 0 {
		return []*entity.Key{}, nil
	}
	query := `SELECT ` + keyColumns + `
		FROM ` + "`keys`" + ` WHERE for_workspace_id = ? AND deleted_at IS NULL AND id IN (` + placeholders(len(ids)) + `)`
	args := append([]interface{}{forWorkspaceID}, stringArgs(ids)...)
	return r.list(ctx, query, args...)
}

// Update writes every mutable column of the key.
func (r *KeyRepository) Update(ctx context.Context, key *entity.Key) error {
	query := `
		UPDATE ` + "`keys`" + ` SET
			name = ?,
			owner_id = ?,
			identity_id = ?,
			meta = ?,
			environment = ?,
			enabled = ?,
			expires = ?,
			remaining_requests = ?,
			refill_amount = ?,
			refill_day = ?,
			ratelimit_async = ?,
			ratelimit_limit = ?,
			ratelimit_duration = ?,
			updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		key.Name,
		key.OwnerID,
		key.IdentityID,
		key.Meta,
		key.Environment,
		key.Enabled,
		key.Expires,
		key.RemainingRequests,
		key.RefillAmount,
		key.RefillDay,
		key.RatelimitAsync,
		key.RatelimitLimit,
		key.RatelimitDuration,
		key.UpdatedAt,
		key.ID,
	)
	return err
}

func (r *KeyRepository) SoftDelete(ctx context.Context, ids []string, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE ` + "`keys`" + ` SET deleted_at = ? WHERE deleted_at IS NULL AND id IN (` + placeholders(len(ids)) + `)`
	args := append([]interface{}{now}, stringArgs(ids)...)
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *KeyRepository) SoftDeleteByKeyAuth(ctx context.Context, keyAuthID string, now time.Time) error {
	query := `UPDATE ` + "`keys`" + ` SET deleted_at = ? WHERE key_auth_id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, now, keyAuthID)
	return err
}

func (r *KeyRepository) ClearIdentity(ctx context.Context, identityID string, now time.Time) error {
	query := `UPDATE ` + "`keys`" + ` SET identity_id = NULL, owner_id = NULL, updated_at = ? WHERE identity_id = ?`
	_, err := r.db.ExecContext(ctx, query, now, identityID)
	return err
}

func (r *KeyRepository) AddRole(ctx context.Context, workspaceID, keyID, roleID string, now time.Time) error {
	query := `INSERT IGNORE INTO keys_roles (key_id, role_id, workspace_id, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, keyID, roleID, workspaceID, now)
	return err
}

func (r *KeyRepository) RemoveRole(ctx context.Context, keyID, roleID string) error {
	query := `DELETE FROM keys_roles WHERE key_id = ? AND role_id = ?`
	_, err := r.db.ExecContext(ctx, query, keyID, roleID)
	return err
}

func (r *KeyRepository) AddPermission(ctx context.Context, workspaceID, keyID, permissionID string, now time.Time) error {
	query := `INSERT IGNORE INTO keys_permissions (key_id, permission_id, workspace_id, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, keyID, permissionID, workspaceID, now)
	return err
}

func (r *KeyRepository) RemovePermission(ctx context.Context, keyID, permissionID string) error {
	query := `DELETE FROM keys_permissions WHERE key_id = ? AND permission_id = ?`
	_, err := r.db.ExecContext(ctx, query, keyID, permissionID)
	return err
}

// ListPermissionNames returns the names of permissions attached to the key,
// directly or through one of its roles.
func (r *KeyRepository) ListPermissionNames(ctx context.Context, keyID string) ([]string, error) {
	query := `
		SELECT p.name FROM permissions p
		JOIN keys_permissions kp ON kp.permission_id = p.id
		WHERE kp.key_id = ?
		UNION
		SELECT p.name FROM permissions p
		JOIN roles_permissions rp ON rp.permission_id = p.id
		JOIN keys_roles kr ON kr.role_id = rp.role_id
		WHERE kr.key_id = ?
	`
	rows, err := r.db.QueryContext(ctx, query, keyID, keyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *KeyRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.Key, error) {
	key, err := scanKey(r.db.QueryRowContext(ctx, query, args...).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return key, nil
}

func (r *KeyRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Key, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]*entity.Key, 0)
	for rows.Next() {
		key, err := scanKey(rows.Scan)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func scanKey(scan rowScanner) (*entity.Key, error) {
	key := &entity.Key{}
	if err := scan(
		&key.ID,
		&key.KeyAuthID,
		&key.WorkspaceID,
		&key.ForWorkspaceID,
		&key.Hash,
		&key.Start,
		&key.Name,
		&key.OwnerID,
		&key.IdentityID,
		&key.Meta,
		&key.Environment,
		&key.Enabled,
		&key.Expires,
		&key.RemainingRequests,
		&key.RefillAmount,
		&key.RefillDay,
		&key.RatelimitAsync,
		&key.RatelimitLimit,
		&key.RatelimitDuration,
		&key.CreatedAt,
		&key.UpdatedAt,
		&key.DeletedAt,
	); err != nil {
		return nil, err
	}
	return key, nil
}
