package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-console/app/auth"
	"github.com/vibast-solutions/ms-go-console/app/cache"
	"github.com/vibast-solutions/ms-go-console/app/dto"
	"github.com/vibast-solutions/ms-go-console/app/entity"
	"github.com/vibast-solutions/ms-go-console/app/repository"
	"github.com/vibast-solutions/ms-go-console/app/rpcerr"
	"github.com/vibast-solutions/ms-go-console/app/types"

	"github.com/sirupsen/logrus"
)

const defaultPlan = "free"

var (
	ErrWorkspaceNotFound = rpcerr.NotFound("workspace not found")
	ErrSlugTaken         = rpcerr.Conflict("a workspace with this slug already exists")
	ErrUsersOnly         = rpcerr.New(rpcerr.CodeForbidden, "this action requires a signed-in user")
)

type WorkspaceService interface {
	Create(ctx context.Context, caller *auth.Caller, req *types.CreateWorkspaceRequest) (*entity.Workspace, error)
	FindByOrgID(ctx context.Context, orgID string) (*entity.Workspace, error)
	FindByID(ctx context.Context, id string) (*entity.Workspace, error)
	UpdateName(ctx context.Context, caller *auth.Caller, req *types.UpdateWorkspaceNameRequest) error
	Members(ctx context.Context, caller *auth.Caller) ([]dto.Membership, error)
}

type workspaceService struct {
	db       *sql.DB
	provider auth.Provider
	byOrg    *cache.TTL[string, *entity.Workspace]
	byID     *cache.TTL[string, *entity.Workspace]
}

func NewWorkspaceService(db *sql.DB, provider auth.Provider, cacheTTL time.Duration) WorkspaceService {
	return &workspaceService{
		db:       db,
		provider: provider,
		byOrg:    cache.NewTTL[string, *entity.Workspace](cacheTTL),
		byID:     cache.NewTTL[string, *entity.Workspace](cacheTTL),
	}
}

// Create registers a new org for the caller and its workspace. The workspace,
// the admin membership and the audit entry share one transaction.
func (s *workspaceService) Create(ctx context.Context, caller *auth.Caller, req *types.CreateWorkspaceRequest) (*entity.Workspace, error) {
	if caller.IsRootKey() {
		return nil, ErrUsersOnly
	}

	now := time.Now()
	ws := &entity.Workspace{
		ID:        newID(prefixWorkspace),
		OrgID:     newID(prefixOrg),
		Name:      req.Name,
		Slug:      req.Slug,
		Plan:      defaultPlan,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, rpcerr.Internal("create the workspace", err)
	}
	defer tx.Rollback()

	if err = repository.NewWorkspaceRepository(tx).Create(ctx, ws); err != nil {
		if repository.IsDuplicateEntry(err) {
			return nil, ErrSlugTaken
		}
		return nil, rpcerr.Internal("create the workspace", err)
	}
	if err = s.provider.AddMembership(ctx, tx, caller.ActorID, ws.OrgID, entity.MembershipRoleAdmin); err != nil {
		return nil, err
	}

	if err = insertAuditLogs(ctx, tx, caller, ws.ID, auditEntry{
		Event:       "workspace.create",
		Description: "Created workspace " + ws.Name,
		Targets:     []entity.AuditLogTarget{target("workspace", ws.ID, ws.Name)},
	}); err != nil {
		return nil, rpcerr.Internal("create the workspace", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, rpcerr.Internal("create the workspace", err)
	}

	logrus.WithFields(logrus.Fields{
		"workspace_id": ws.ID,
		"org_id":       ws.OrgID,
		"user_id":      caller.ActorID,
	}).Info("Workspace created")
	return ws, nil
}

func (s *workspaceService) FindByOrgID(ctx context.Context, orgID string) (*entity.Workspace, error) {
	if ws, ok := s.byOrg.Get(orgID); ok {
		return ws, nil
	}

	ws, err := repository.NewWorkspaceRepository(s.db).FindByOrgID(ctx, orgID)
	if err != nil {
		return nil, rpcerr.Internal("load the workspace", err)
	}
	if ws == nil {
		return nil, ErrWorkspaceNotFound
	}
	s.remember(ws)
	return ws, nil
}

func (s *workspaceService) FindByID(ctx context.Context, id string) (*entity.Workspace, error) {
	if ws, ok := s.byID.Get(id); ok {
		return ws, nil
	}

	ws, err := repository.NewWorkspaceRepository(s.db).FindByID(ctx, id)
	if err != nil {
		return nil, rpcerr.Internal("load the workspace", err)
	}
	if ws == nil {
		return nil, ErrWorkspaceNotFound
	}
	s.remember(ws)
	return ws, nil
}

func (s *workspaceService) UpdateName(ctx context.Context, caller *auth.Caller, req *types.UpdateWorkspaceNameRequest) error {
	ws, err := s.FindByID(ctx, caller.WorkspaceID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rpcerr.Internal("update the workspace name", err)
	}
	defer tx.Rollback()

	if err = repository.NewWorkspaceRepository(tx).UpdateName(ctx, ws.ID, req.Name, time.Now()); err != nil {
		return rpcerr.Internal("update the workspace name", err)
	}
	if err = insertAuditLogs(ctx, tx, caller, ws.ID, auditEntry{
		Event:       "workspace.update",
		Description: "Changed name from " + ws.Name + " to " + req.Name,
		Targets:     []entity.AuditLogTarget{target("workspace", ws.ID, req.Name)},
	}); err != nil {
		return rpcerr.Internal("update the workspace name", err)
	}
	if err = tx.Commit(); err != nil {
		return rpcerr.Internal("update the workspace name", err)
	}

	s.forget(ws)
	return nil
}

func (s *workspaceService) Members(ctx context.Context, caller *auth.Caller) ([]dto.Membership, error) {
	ws, err := s.FindByID(ctx, caller.WorkspaceID)
	if err != nil {
		return nil, err
	}

	memberships, err := s.provider.ListOrgMembers(ctx, ws.OrgID)
	if err != nil {
		return nil, err
	}

	members := make([]dto.Membership, 0, len(memberships))
	for _, m := range memberships {
		member := dto.NewMembership(m)
		user, err := s.provider.GetUser(ctx, m.UserID)
		if err != nil {
			if rpcerr.CodeOf(err) == rpcerr.CodeNotFound {
				continue
			}
			return nil, err
		}
		view := dto.NewUser(user)
		member.User = &view
		members = append(members, member)
	}
	return members, nil
}

func (s *workspaceService) remember(ws *entity.Workspace) {
	s.byOrg.Set(ws.OrgID, ws)
	s.byID.Set(ws.ID, ws)
	logrus.WithFields(logrus.Fields{
		"workspace_id":      ws.ID,
		"cached_workspaces": s.byID.Len(),
	}).Debug("Workspace cached")
}

func (s *workspaceService) forget(ws *entity.Workspace) {
	s.byOrg.Delete(ws.OrgID)
	s.byID.Delete(ws.ID)
}
