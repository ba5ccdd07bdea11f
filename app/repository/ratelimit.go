package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-console/app/entity"
)

const namespaceColumns = `id, workspace_id, name, created_at, updated_at, deleted_at`

type RatelimitNamespaceRepository struct {
	db DBTX
}

func NewRatelimitNamespaceRepository(db DBTX) *RatelimitNamespaceRepository {
	return &RatelimitNamespaceRepository{db: db}
}

func (r *RatelimitNamespaceRepository) Create(ctx context.Context, ns *entity.RatelimitNamespace) error {
	query := `
		INSERT INTO ratelimit_namespaces (id, workspace_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, ns.ID, ns.WorkspaceID, ns.Name, ns.CreatedAt, ns.UpdatedAt)
	return err
}

func (r *RatelimitNamespaceRepository) FindByID(ctx context.Context, workspaceID, id string) (*entity.RatelimitNamespace, error) {
	query := `SELECT ` + namespaceColumns + `
		FROM ratelimit_namespaces WHERE id = ? AND workspace_id = ? AND deleted_at IS NULL`
	return r.findOne(ctx, query, id, workspaceID)
}

func (r *RatelimitNamespaceRepository) FindByName(ctx context.Context, workspaceID, name string) (*entity.RatelimitNamespace, error) {
	query := `SELECT ` + namespaceColumns + `
		FROM ratelimit_namespaces WHERE name = ? AND workspace_id = ? AND deleted_at IS NULL`
	return r.findOne(ctx, query, name, workspaceID)
}

func (r *RatelimitNamespaceRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*entity.RatelimitNamespace, error) {
	query := `SELECT ` + namespaceColumns + `
		FROM ratelimit_namespaces WHERE workspace_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	namespaces := make([]*entity.RatelimitNamespace, 0)
	for rows.Next() {
		ns, err := scanNamespace(rows.Scan)
		if err != nil {
			return nil, err
		}
		namespaces = append(namespaces, ns)
	}
	return namespaces, rows.Err()
}

func (r *RatelimitNamespaceRepository) UpdateName(ctx context.Context, id, name string, now time.Time) error {
	query := `UPDATE ratelimit_namespaces SET name = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, name, now, id)
	return err
}

func (r *RatelimitNamespaceRepository) SoftDelete(ctx context.Context, id string, now time.Time) error {
	query := `UPDATE ratelimit_namespaces SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, now, id)
	return err
}

func (r *RatelimitNamespaceRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.RatelimitNamespace, error) {
	ns, err := scanNamespace(r.db.QueryRowContext(ctx, query, args...).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ns, nil
}

func scanNamespace(scan rowScanner) (*entity.RatelimitNamespace, error) {
	ns := &entity.RatelimitNamespace{}
	if err := scan(&ns.ID, &ns.WorkspaceID, &ns.Name, &ns.CreatedAt, &ns.UpdatedAt, &ns.DeletedAt); err != nil {
		return nil, err
	}
	return ns, nil
}

const overrideColumns = "id, workspace_id, namespace_id, identifier, `limit`, duration, async, created_at, updated_at, deleted_at"

type RatelimitOverrideRepository struct {
	db DBTX
}

func NewRatelimitOverrideRepository(db DBTX) *RatelimitOverrideRepository {
	return &RatelimitOverrideRepository{db: db}
}

func (r *RatelimitOverrideRepository) Create(ctx context.Context, o *entity.RatelimitOverride) error {
	query := "INSERT INTO ratelimit_overrides (id, workspace_id, namespace_id, identifier, `limit`, duration, async, created_at, updated_at) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query,
		o.ID,
		o.WorkspaceID,
		o.NamespaceID,
		o.Identifier,
		o.Limit,
		o.Duration,
		o.Async,
		o.CreatedAt,
		o.UpdatedAt,
	)
	return err
}

func (r *RatelimitOverrideRepository) FindByID(ctx context.Context, workspaceID, id string) (*entity.RatelimitOverride, error) {
	query := `SELECT ` + overrideColumns + `
		FROM ratelimit_overrides WHERE id = ? AND workspace_id = ? AND deleted_at IS NULL`
	return r.findOne(ctx, query, id, workspaceID)
}

func (r *RatelimitOverrideRepository) FindByIdentifier(ctx context.Context, namespaceID, identifier string) (*entity.RatelimitOverride, error) {
	query := `SELECT ` + overrideColumns + `
		FROM ratelimit_overrides WHERE namespace_id = ? AND identifier = ? AND deleted_at IS NULL`
	return r.findOne(ctx, query, namespaceID, identifier)
}

func (r *RatelimitOverrideRepository) ListByNamespace(ctx context.Context, namespaceID string) ([]*entity.RatelimitOverride, error) {
	query := `SELECT ` + overrideColumns + `
		FROM ratelimit_overrides WHERE namespace_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, namespaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overrides := make([]*entity.RatelimitOverride, 0)
	for rows.Next() {
		o, err := scanOverride(rows.Scan)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

func (r *RatelimitOverrideRepository) Update(ctx context.Context, o *entity.RatelimitOverride) error {
	query := "UPDATE ratelimit_overrides SET `limit` = ?, duration = ?, async = ?, updated_at = ? WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, o.Limit, o.Duration, o.Async, o.UpdatedAt, o.ID)
	return err
}

func (r *RatelimitOverrideRepository) SoftDelete(ctx context.Context, id string, now time.Time) error {
	query := `UPDATE ratelimit_overrides SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, now, id)
	return err
}

func (r *RatelimitOverrideRepository) SoftDeleteByNamespace(ctx context.Context, namespaceID string, now time.Time) error {
	query := `UPDATE ratelimit_overrides SET deleted_at = ? WHERE namespace_id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, now, namespaceID)
	return err
}

func (r *RatelimitOverrideRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.RatelimitOverride, error) {
	o, err := scanOverride(r.db.QueryRowContext(ctx, query, args...).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func scanOverride(scan rowScanner) (*entity.RatelimitOverride, error) {
	o := &entity.RatelimitOverride{}
	if err := scan(
		&o.ID,
		&o.WorkspaceID,
		&o.NamespaceID,
		&o.Identifier,
		&o.Limit,
		&o.Duration,
		&o.Async,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.DeletedAt,
	); err != nil {
		return nil, err
	}
	return o, nil
}
