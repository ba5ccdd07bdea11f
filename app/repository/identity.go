package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-console/app/entity"
)

const identityColumns = `id, workspace_id, external_id, environment, meta, created_at, updated_at, deleted_at`

type IdentityRepository struct {
	db DBTX
}

func NewIdentityRepository(db DBTX) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) Create(ctx context.Context, identity *entity.Identity) error {
	query := `
		INSERT INTO identities (id, workspace_id, external_id, environment, meta, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		identity.ID,
		identity.WorkspaceID,
		identity.ExternalID,
		identity.Environment,
		identity.Meta,
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	return err
}

func (r *IdentityRepository) FindByID(ctx context.Context, workspaceID, id string) (*entity.Identity, error) {
	query := `SELECT ` + identityColumns + `
		FROM identities WHERE id = ? AND workspace_id = ? AND deleted_at IS NULL`
	return r.findOne(ctx, query, id, workspaceID)
}

func (r *IdentityRepository) FindByExternalID(ctx context.Context, workspaceID, externalID string) (*entity.Identity, error) {
	query := `SELECT ` + identityColumns + `
		FROM identities WHERE external_id = ? AND workspace_id = ? AND deleted_at IS NULL`
	return r.findOne(ctx, query, externalID, workspaceID)
}

func (r *IdentityRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*entity.Identity, error) {
	query := `SELECT ` + identityColumns + `
		FROM identities WHERE workspace_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	identities := make([]*entity.Identity, 0)
	for rows.Next() {
		identity, err := scanIdentity(rows.Scan)
		if err != nil {
			return nil, err
		}
		identities = append(identities, identity)
	}
	return identities, rows.Err()
}

func (r *IdentityRepository) UpdateMeta(ctx context.Context, id string, meta sql.NullString, now time.Time) error {
	query := `UPDATE identities SET meta = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, meta, now, id)
	return err
}

func (r *IdentityRepository) SoftDelete(ctx context.Context, id string, now time.Time) error {
	query := `UPDATE identities SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, now, id)
	return err
}

func (r *IdentityRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.Identity, error) {
	identity, err := scanIdentity(r.db.QueryRowContext(ctx, query, args...).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return identity, nil
}

func scanIdentity(scan rowScanner) (*entity.Identity, error) {
	identity := &entity.Identity{}
	if err := scan(
		&identity.ID,
		&identity.WorkspaceID,
		&identity.ExternalID,
		&identity.Environment,
		&identity.Meta,
		&identity.CreatedAt,
		&identity.UpdatedAt,
		&identity.DeletedAt,
	); err != nil {
		return nil, err
	}
	return identity, nil
}
