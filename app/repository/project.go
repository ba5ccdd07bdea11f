package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-console/app/entity"
)

const projectColumns = `id, workspace_id, name, slug, git_repository_url, default_branch, delete_protection,
	created_at, updated_at, deleted_at`

type ProjectRepository struct {
	db DBTX
}

func NewProjectRepository(db DBTX) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, p *entity.Project) error {
	query := `
		INSERT INTO projects (id, workspace_id, name, slug, git_repository_url, default_branch,
			delete_protection, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.WorkspaceID,
		p.Name,
		p.Slug,
		p.GitRepositoryURL,
		p.DefaultBranch,
		p.DeleteProtection,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *ProjectRepository) FindByID(ctx context.Context, workspaceID, id string) (*entity.Project, error) {
	query := `SELECT ` + projectColumns + `
		FROM projects WHERE id = ? AND workspace_id = ? AND deleted_at IS NULL`
	return r.findOne(ctx, query, id, workspaceID)
}

func (r *ProjectRepository) FindBySlug(ctx context.Context, workspaceID, slug string) (*entity.Project, error) {
	query := `SELECT ` + projectColumns + `
		FROM projects WHERE slug = ? AND workspace_id = ? AND deleted_at IS NULL`
	return r.findOne(ctx, query, slug, workspaceID)
}

func (r *ProjectRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*entity.Project, error) {
	query := `SELECT ` + projectColumns + `
		FROM projects WHERE workspace_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]*entity.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows.Scan)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *ProjectRepository) UpdateDeleteProtection(ctx context.Context, id string, enabled bool, now time.Time) error {
	query := `UPDATE projects SET delete_protection = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, enabled, now, id)
	return err
}

func (r *ProjectRepository) SoftDelete(ctx context.Context, id string, now time.Time) error {
	query := `UPDATE projects SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, now, id)
	return err
}

func (r *ProjectRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx, query, args...).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanProject(scan rowScanner) (*entity.Project, error) {
	p := &entity.Project{}
	if err := scan(
		&p.ID,
		&p.WorkspaceID,
		&p.Name,
		&p.Slug,
		&p.GitRepositoryURL,
		&p.DefaultBranch,
		&p.DeleteProtection,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.DeletedAt,
	); err != nil {
		return nil, err
	}
	return p, nil
}

const deploymentColumns = `id, workspace_id, project_id, environment, branch, git_commit_sha, status, created_at, updated_at`

type DeploymentRepository struct {
	db DBTX
}

func NewDeploymentRepository(db DBTX) *DeploymentRepository {
	return &DeploymentRepository{db: db}
}

func (r *DeploymentRepository) Create(ctx context.Context, d *entity.Deployment) error {
	query := `
		INSERT INTO deployments (id, workspace_id, project_id, environment, branch, git_commit_sha,
			status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.WorkspaceID,
		d.ProjectID,
		d.Environment,
		d.Branch,
		d.GitCommitSHA,
		d.Status,
		d.CreatedAt,
		d.UpdatedAt,
	)
	return err
}

func (r *DeploymentRepository) FindByID(ctx context.Context, workspaceID, id string) (*entity.Deployment, error) {
	query := `SELECT ` + deploymentColumns + `
		FROM deployments WHERE id = ? AND workspace_id = ?`
	d, err := scanDeployment(r.db.QueryRowContext(ctx, query, id, workspaceID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DeploymentRepository) ListByProject(ctx context.Context, workspaceID, projectID string) ([]*entity.Deployment, error) {
	query := `SELECT ` + deploymentColumns + `
		FROM deployments WHERE project_id = ? AND workspace_id = ?
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, projectID, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deployments := make([]*entity.Deployment, 0)
	for rows.Next() {
		d, err := scanDeployment(rows.Scan)
		if err != nil {
			return nil, err
		}
		deployments = append(deployments, d)
	}
	return deployments, rows.Err()
}

func scanDeployment(scan rowScanner) (*entity.Deployment, error) {
	d := &entity.Deployment{}
	if err := scan(
		&d.ID,
		&d.WorkspaceID,
		&d.ProjectID,
		&d.Environment,
		&d.Branch,
		&d.GitCommitSHA,
		&d.Status,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return d, nil
}
