package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-console/app/entity"
)

type KeyAuthRepository struct {
	db DBTX
}

func NewKeyAuthRepository(db DBTX) *KeyAuthRepository {
	return &KeyAuthRepository{db: db}
}

func (r *KeyAuthRepository) Create(ctx context.Context, keyAuth *entity.KeyAuth) error {
	query := `INSERT INTO key_auth (id, workspace_id, created_at) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, keyAuth.ID, keyAuth.WorkspaceID, keyAuth.CreatedAt)
	return err
}

func (r *KeyAuthRepository) SoftDelete(ctx context.Context, id string, now time.Time) error {
	query := `UPDATE key_auth SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, now, id)
	return err
}

const apiColumns = `id, workspace_id, key_auth_id, name, ip_whitelist, delete_protection, created_at, updated_at, deleted_at`

type APIRepository struct {
	db DBTX
}

func NewAPIRepository(db DBTX) *APIRepository {
	return &APIRepository{db: db}
}

func (r *APIRepository) Create(ctx context.Context, api *entity.API) error {
	query := `
		INSERT INTO apis (id, workspace_id, key_auth_id, name, ip_whitelist, delete_protection, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		api.ID,
		api.WorkspaceID,
		api.KeyAuthID,
		api.Name,
		joinIPWhitelist(api.IPWhitelist),
		api.DeleteProtection,
		api.CreatedAt,
		api.UpdatedAt,
	)
	return err
}

func (r *APIRepository) FindByID(ctx context.Context, workspaceID, id string) (*entity.API, error) {
	query := `SELECT ` + apiColumns + `
		FROM apis WHERE id = ? AND workspace_id = ? AND deleted_at IS NULL`
	row := r.db.QueryRowContext(ctx, query, id, workspaceID)
	api, err := scanAPI(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return api, nil
}

func (r *APIRepository) FindByKeyAuthID(ctx context.Context, workspaceID, keyAuthID string) (*entity.API, error) {
	query := `SELECT ` + apiColumns + `
		FROM apis WHERE key_auth_id = ? AND workspace_id = ? AND deleted_at IS NULL`
	row := r.db.QueryRowContext(ctx, query, keyAuthID, workspaceID)
	api, err := scanAPI(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return api, nil
}

func (r *APIRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*entity.API, error) {
	query := `SELECT ` + apiColumns + `
		FROM apis WHERE workspace_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apis := make([]*entity.API, 0)
	for rows.Next() {
		api, err := scanAPI(rows.Scan)
		if err != nil {
			return nil, err
		}
		apis = append(apis, api)
	}
	return apis, rows.Err()
}

func (r *APIRepository) Update(ctx context.Context, api *entity.API) error {
	query := `
		UPDATE apis SET
			name = ?,
			ip_whitelist = ?,
			delete_protection = ?,
			updated_at = ?
		WHERE id = ? AND workspace_id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		api.Name,
		joinIPWhitelist(api.IPWhitelist),
		api.DeleteProtection,
		api.UpdatedAt,
		api.ID,
		api.WorkspaceID,
	)
	return err
}

func (r *APIRepository) SoftDelete(ctx context.Context, workspaceID, id string, now time.Time) error {
	query := `UPDATE apis SET deleted_at = ? WHERE id = ? AND workspace_id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, now, id, workspaceID)
	return err
}

func scanAPI(scan rowScanner) (*entity.API, error) {
	api := &entity.API{}
	var ipWhitelist sql.NullString
	if err := scan(
		&api.ID,
		&api.WorkspaceID,
		&api.KeyAuthID,
		&api.Name,
		&ipWhitelist,
		&api.DeleteProtection,
		&api.CreatedAt,
		&api.UpdatedAt,
		&api.DeletedAt,
	); err != nil {
		return nil, err
	}
	api.IPWhitelist = splitIPWhitelist(ipWhitelist)
	return api, nil
}

func joinIPWhitelist(ips []string) sql.NullString {
	if len(ips) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: strings.Join(ips, ","), Valid: true}
}

func splitIPWhitelist(value sql.NullString) []string {
	if !value.Valid || strings.TrimSpace(value.String) == "" {
		return []string{}
	}
	parts := strings.Split(value.String, ",")
	ips := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ips = append(ips, p)
		}
	}
	return ips
}
