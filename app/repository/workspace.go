package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-console/app/entity"
)

const workspaceColumns = `id, org_id, name, slug, plan, created_at, updated_at, deleted_at`

type WorkspaceRepository struct {
	db DBTX
}

func NewWorkspaceRepository(db DBTX) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

func (r *WorkspaceRepository) Create(ctx context.Context, ws *entity.Workspace) error {
	query := `
		INSERT INTO workspaces (id, org_id, name, slug, plan, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		ws.ID,
		ws.OrgID,
		ws.Name,
		ws.Slug,
		ws.Plan,
		ws.CreatedAt,
		ws.UpdatedAt,
	)
	return err
}

func (r *WorkspaceRepository) FindByOrgID(ctx context.Context, orgID string) (*entity.Workspace, error) {
	query := `SELECT ` + workspaceColumns + `
		FROM workspaces WHERE org_id = ? AND deleted_at IS NULL`
	return r.findOne(ctx, query, orgID)
}

func (r *WorkspaceRepository) FindByID(ctx context.Context, id string) (*entity.Workspace, error) {
	query := `SELECT ` + workspaceColumns + `
		FROM workspaces WHERE id = ? AND deleted_at IS NULL`
	return r.findOne(ctx, query, id)
}

func (r *WorkspaceRepository) UpdateName(ctx context.Context, id, name string, now time.Time) error {
	query := `UPDATE workspaces SET name = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, name, now, id)
	return err
}

func (r *WorkspaceRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.Workspace, error) {
	ws := &entity.Workspace{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&ws.ID,
		&ws.OrgID,
		&ws.Name,
		&ws.Slug,
		&ws.Plan,
		&ws.CreatedAt,
		&ws.UpdatedAt,
		&ws.DeletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ws, nil
}
