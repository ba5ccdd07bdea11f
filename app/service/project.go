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

	"github.com/sirupsen/logrus"
)

var (
	ErrProjectNotFound        = rpcerr.NotFound("project not found")
	ErrProjectSlugTaken       = rpcerr.Conflict("A project with this slug already exists")
	ErrProjectDeleteProtected = rpcerr.New(rpcerr.CodePreconditionFailed, "The project has delete protection enabled. Disable it before deleting the project")
	ErrDeploymentNotFound     = rpcerr.NotFound("deployment not found")
)

type ProjectService interface {
	Create(ctx context.Context, caller *auth.Caller, req *types.CreateProjectRequest) (*dto.IDResult, error)
	List(ctx context.Context, caller *auth.Caller) ([]dto.Project, error)
	UpdateDeleteProtection(ctx context.Context, caller *auth.Caller, req *types.UpdateProjectDeleteProtectionRequest) error
	Delete(ctx context.Context, caller *auth.Caller, req *types.ProjectRequest) error
	CreateDeployment(ctx context.Context, caller *auth.Caller, req *types.CreateDeploymentRequest) (*dto.IDResult, error)
	ListDeployments(ctx context.Context, caller *auth.Caller, req *types.ProjectRequest) ([]dto.Deployment, error)
	GetDeployment(ctx context.Context, caller *auth.Caller, req *types.DeploymentRequest) (*dto.Deployment, error)
}

type projectService struct {
	db *sql.DB
}

func NewProjectService(db *sql.DB) ProjectService {
	return &projectService{db: db}
}

func (s *projectService) Create(ctx context.Context, caller *auth.Caller, req *types.CreateProjectRequest) (*dto.IDResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, rpcerr.Internal("create the project", err)
	}
	defer tx.Rollback()

	repo := repository.NewProjectRepository(tx)
	existing, err := repo.FindBySlug(ctx, caller.WorkspaceID, req.Slug)
	if err != nil {
		return nil, rpcerr.Internal("create the project", err)
	}
	if existing != nil {
		return nil, ErrProjectSlugTaken
	}

	now := time.Now()
	project := &entity.Project{
		ID:               newID(prefixProject),
		WorkspaceID:      caller.WorkspaceID,
		Name:             req.Name,
		Slug:             req.Slug,
		GitRepositoryURL: optionalStringPtr(req.GitRepositoryURL),
		DefaultBranch:    req.DefaultBranch,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if project.DefaultBranch == "" {
		project.DefaultBranch = types.DefaultBranch
	}
	if err = repo.Create(ctx, project); err != nil {
		if repository.IsDuplicateEntry(err) {
			return nil, ErrProjectSlugTaken
		}
		return nil, rpcerr.Internal("create the project", err)
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, auditEntry{
		Event:       "project.create",
		Description: "Created " + project.ID,
		Targets:     []entity.AuditLogTarget{target("project", project.ID, project.Name)},
	}); err != nil {
		return nil, rpcerr.Internal("create the project", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, rpcerr.Internal("create the project", err)
	}

	logrus.WithFields(logrus.Fields{
		"workspace_id": caller.WorkspaceID,
		"project_id":   project.ID,
		"slug":         project.Slug,
	}).Info("Project created")
	return &dto.IDResult{ID: project.ID}, nil
}

func (s *projectService) List(ctx context.Context, caller *auth.Caller) ([]dto.Project, error) {
	projects, err := repository.NewProjectRepository(s.db).ListByWorkspace(ctx, caller.WorkspaceID)
	if err != nil {
		return nil, rpcerr.Internal("load the projects", err)
	}
	return dto.NewProjects(projects), nil
}

func (s *projectService) UpdateDeleteProtection(ctx context.Context, caller *auth.Caller, req *types.UpdateProjectDeleteProtectionRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rpcerr.Internal("update the project", err)
	}
	defer tx.Rollback()

	project, err := findProject(ctx, tx, caller.WorkspaceID, req.ProjectID)
	if err != nil {
		return err
	}
	if err = repository.NewProjectRepository(tx).UpdateDeleteProtection(ctx, project.ID, *req.Enabled, time.Now()); err != nil {
		return rpcerr.Internal("update the project", err)
	}

	description := "Disabled delete protection for " + project.ID
	if *req.Enabled {
		description = "Enabled delete protection for " + project.ID
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, auditEntry{
		Event:       "project.update",
		Description: description,
		Targets:     []entity.AuditLogTarget{target("project", project.ID, project.Name)},
	}); err != nil {
		return rpcerr.Internal("update the project", err)
	}
	if err = tx.Commit(); err != nil {
		return rpcerr.Internal("update the project", err)
	}
	return nil
}

func (s *projectService) Delete(ctx context.Context, caller *auth.Caller, req *types.ProjectRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rpcerr.Internal("delete the project", err)
	}
	defer tx.Rollback()

	project, err := findProject(ctx, tx, caller.WorkspaceID, req.ProjectID)
	if err != nil {
		return err
	}
	if project.DeleteProtection {
		return ErrProjectDeleteProtected
	}
	if err = repository.NewProjectRepository(tx).SoftDelete(ctx, project.ID, time.Now()); err != nil {
		return rpcerr.Internal("delete the project", err)
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, auditEntry{
		Event:       "project.delete",
		Description: "Deleted " + project.ID,
		Targets:     []entity.AuditLogTarget{target("project", project.ID, project.Name)},
	}); err != nil {
		return rpcerr.Internal("delete the project", err)
	}
	if err = tx.Commit(); err != nil {
		return rpcerr.Internal("delete the project", err)
	}
	return nil
}

// CreateDeployment records a pending deployment; the branch defaults to the
// project's default branch.
func (s *projectService) CreateDeployment(ctx context.Context, caller *auth.Caller, req *types.CreateDeploymentRequest) (*dto.IDResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, rpcerr.Internal("create the deployment", err)
	}
	defer tx.Rollback()

	project, err := findProject(ctx, tx, caller.WorkspaceID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	deployment := &entity.Deployment{
		ID:           newID(prefixDeployment),
		WorkspaceID:  caller.WorkspaceID,
		ProjectID:    project.ID,
		Environment:  req.Environment,
		Branch:       req.Branch,
		GitCommitSHA: optionalStringPtr(req.GitCommitSHA),
		Status:       entity.DeploymentStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if deployment.Branch == "" {
		deployment.Branch = project.DefaultBranch
	}
	if err = repository.NewDeploymentRepository(tx).Create(ctx, deployment); err != nil {
		return nil, rpcerr.Internal("create the deployment", err)
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, auditEntry{
		Event:       "deployment.create",
		Description: "Created " + deployment.ID + " of " + project.ID + " from " + deployment.Branch,
		Targets: []entity.AuditLogTarget{
			target("deployment", deployment.ID, ""),
			target("project", project.ID, project.Name),
		},
	}); err != nil {
		return nil, rpcerr.Internal("create the deployment", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, rpcerr.Internal("create the deployment", err)
	}
	return &dto.IDResult{ID: deployment.ID}, nil
}

func (s *projectService) ListDeployments(ctx context.Context, caller *auth.Caller, req *types.ProjectRequest) ([]dto.Deployment, error) {
	project, err := findProject(ctx, s.db, caller.WorkspaceID, req.ProjectID)
	if err != nil {
		return nil, err
	}
	deployments, err := repository.NewDeploymentRepository(s.db).ListByProject(ctx, caller.WorkspaceID, project.ID)
	if err != nil {
		return nil, rpcerr.Internal("load the deployments", err)
	}
	return dto.NewDeployments(deployments), nil
}

func (s *projectService) GetDeployment(ctx context.Context, caller *auth.Caller, req *types.DeploymentRequest) (*dto.Deployment, error) {
	deployment, err := repository.NewDeploymentRepository(s.db).FindByID(ctx, caller.WorkspaceID, req.DeploymentID)
	if err != nil {
		return nil, rpcerr.Internal("load the deployment", err)
	}
	if deployment == nil {
		return nil, ErrDeploymentNotFound
	}
	view := dto.NewDeployment(deployment)
	return &view, nil
}

func findProject(ctx context.Context, db repository.DBTX, workspaceID, projectID string) (*entity.Project, error) {
	project, err := repository.NewProjectRepository(db).FindByID(ctx, workspaceID, projectID)
	if err != nil {
		return nil, rpcerr.Internal("load the project", err)
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	return project, nil
}
