package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-console/app/entity"
)

type PermissionRepository struct {
	db DBTX
}

func NewPermissionRepository(db DBTX) *PermissionRepository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) Create(ctx context.Context, p *entity.Permission) error {
	query := `
		INSERT INTO permissions (id, workspace_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.WorkspaceID, p.Name, p.Description, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PermissionRepository) FindByID(ctx context.Context, workspaceID, id string) (*entity.Permission, error) {
	query := `SELECT id, workspace_id, name, description, created_at, updated_at
		FROM permissions WHERE id = ? AND workspace_id = ?`
	p, err := scanPermission(r.db.QueryRowContext(ctx, query, id, workspaceID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PermissionRepository) FindByName(ctx context.Context, workspaceID, name string) (*entity.Permission, error) {
	query := `SELECT id, workspace_id, name, description, created_at, updated_at
		FROM permissions WHERE name = ? AND workspace_id = ?`
	p, err := scanPermission(r.db.QueryRowContext(ctx, query, name, workspaceID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PermissionRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*entity.Permission, error) {
	query := `SELECT id, workspace_id, name, description, created_at, updated_at
		FROM permissions WHERE workspace_id = ? ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	permissions := make([]*entity.Permission, 0)
	for rows.Next() {
		p, err := scanPermission(rows.Scan)
		if err != nil {
			return nil, err
		}
		permissions = append(permissions, p)
	}
	return permissions, rows.Err()
}

func (r *PermissionRepository) Update(ctx context.Context, p *entity.Permission) error {
	query := `UPDATE permissions SET name = ?, description = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, p.Name, p.Description, p.UpdatedAt, p.ID)
	return err
}

// Delete removes the permission together with every role and key link to it.
func (r *PermissionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM roles_permissions WHERE permission_id = ?`, id); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM keys_permissions WHERE permission_id = ?`, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM permissions WHERE id = ?`, id)
	return err
}

func scanPermission(scan rowScanner) (*entity.Permission, error) {
	p := &entity.Permission{}
	if err := scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

type RoleRepository struct {
	db DBTX
}

func NewRoleRepository(db DBTX) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) Create(ctx context.Context, role *entity.Role) error {
	query := `
		INSERT INTO roles (id, workspace_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, role.ID, role.WorkspaceID, role.Name, role.Description, role.CreatedAt, role.UpdatedAt)
	return err
}

func (r *RoleRepository) FindByID(ctx context.Context, workspaceID, id string) (*entity.Role, error) {
	query := `SELECT id, workspace_id, name, description, created_at, updated_at
		FROM roles WHERE id = ? AND workspace_id = ?`
	role, err := scanRole(r.db.QueryRowContext(ctx, query, id, workspaceID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (r *RoleRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*entity.Role, error) {
	query := `SELECT id, workspace_id, name, description, created_at, updated_at
		FROM roles WHERE workspace_id = ? ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := make([]*entity.Role, 0)
	for rows.Next() {
		role, err := scanRole(rows.Scan)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *RoleRepository) Update(ctx context.Context, role *entity.Role) error {
	query := `UPDATE roles SET name = ?, description = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, role.Name, role.Description, role.UpdatedAt, role.ID)
	return err
}

// Delete removes the role together with its permission and key links.
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM roles_permissions WHERE role_id = ?`, id); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM keys_roles WHERE role_id = ?`, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = ?`, id)
	return err
}

func (r *RoleRepository) AddPermission(ctx context.Context, workspaceID, roleID, permissionID string, now time.Time) error {
	query := `INSERT IGNORE INTO roles_permissions (role_id, permission_id, workspace_id, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, roleID, permissionID, workspaceID, now)
	return err
}

func (r *RoleRepository) RemovePermission(ctx context.Context, roleID, permissionID string) error {
	query := `DELETE FROM roles_permissions WHERE role_id = ? AND permission_id = ?`
	_, err := r.db.ExecContext(ctx, query, roleID, permissionID)
	return err
}

func (r *RoleRepository) ListPermissionIDs(ctx context.Context, roleID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT permission_id FROM roles_permissions WHERE role_id = ?`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanRole(scan rowScanner) (*entity.Role, error) {
	role := &entity.Role{}
	if err := scan(&role.ID, &role.WorkspaceID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return nil, err
	}
	return role, nil
}
