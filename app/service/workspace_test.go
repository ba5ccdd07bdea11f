package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-console/app/auth"
	"github.com/vibast-solutions/ms-go-console/app/entity"
	"github.com/vibast-solutions/ms-go-console/app/repository"
	"github.com/vibast-solutions/ms-go-console/app/rpcerr"
	"github.com/vibast-solutions/ms-go-console/app/service"
	"github.com/vibast-solutions/ms-go-console/app/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

const (
	insertWorkspaceQuery     = `(?s)INSERT INTO workspaces \(id, org_id, name, slug, plan, created_at, updated_at\)`
	findWorkspaceByOrgQuery  = `(?s)FROM workspaces WHERE org_id = \? AND deleted_at IS NULL`
	findWorkspaceByIDQuery   = `(?s)FROM workspaces WHERE id = \? AND deleted_at IS NULL`
	updateWorkspaceNameQuery = `UPDATE workspaces SET name = \?, updated_at = \? WHERE id = \? AND deleted_at IS NULL`
	insertMembershipQuery    = `(?s)INSERT INTO memberships \(id, user_id, org_id, role, created_at\)`
)

// fakeProvider writes memberships through the given tx, records them and
// serves users from memory.
type fakeProvider struct {
	auth.Provider
	memberships []*entity.Membership
	users       map[string]*entity.User
	addErr      error
}

func (f *fakeProvider) AddMembership(ctx context.Context, tx repository.DBTX, userID, orgID, role string) error {
	if f.addErr != nil {
		return f.addErr
	}
	m := &entity.Membership{ID: "mem", UserID: userID, OrgID: orgID, Role: role, CreatedAt: fixedTime}
	if err := repository.NewMembershipRepository(tx).Create(ctx, m); err != nil {
		return err
	}
	f.memberships = append(f.memberships, m)
	return nil
}

func (f *fakeProvider) ListOrgMembers(_ context.Context, orgID string) ([]*entity.Membership, error) {
	out := make([]*entity.Membership, 0)
	for _, m := range f.memberships {
		if m.OrgID == orgID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeProvider) GetUser(_ context.Context, userID string) (*entity.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return user, nil
}

func TestWorkspaceService_Create(t *testing.T) {
	db, mock := newMockDB(t)
	provider := &fakeProvider{}
	svc := service.NewWorkspaceService(db, provider, time.Minute)

	mock.ExpectBegin()
	mock.ExpectExec(insertWorkspaceQuery).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "Acme", "acme", "free", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertMembershipQuery).
		WithArgs("mem", "user_1", sqlmock.AnyArg(), entity.MembershipRoleAdmin, fixedTime).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertAuditLogQuery).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertAuditTargetQuery).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ws, err := svc.Create(context.Background(), userCaller(), &types.CreateWorkspaceRequest{Name: "Acme", Slug: "acme"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if len(provider.memberships) != 1 {
		t.Fatalf("expected one membership, got %d", len(provider.memberships))
	}
	m := provider.memberships[0]
	if m.UserID != "user_1" || m.OrgID != ws.OrgID || m.Role != entity.MembershipRoleAdmin {
		t.Fatalf("unexpected membership: %+v", m)
	}
	expectNoMoreCalls(t, mock)
}

func TestWorkspaceService_Create_DuplicateSlug(t *testing.T) {
	db, mock := newMockDB(t)
	provider := &fakeProvider{}
	svc := service.NewWorkspaceService(db, provider, time.Minute)

	mock.ExpectBegin()
	mock.ExpectExec(insertWorkspaceQuery).WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), userCaller(), &types.CreateWorkspaceRequest{Name: "Acme", Slug: "acme"})
	if !errors.Is(err, service.ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}
	if len(provider.memberships) != 0 {
		t.Fatalf("expected no membership for a rejected workspace, got %d", len(provider.memberships))
	}
	expectNoMoreCalls(t, mock)
}

func TestWorkspaceService_Create_AuditFailureRollsBackMembership(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewWorkspaceService(db, &fakeProvider{}, time.Minute)

	mock.ExpectBegin()
	mock.ExpectExec(insertWorkspaceQuery).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertMembershipQuery).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertAuditLogQuery).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), userCaller(), &types.CreateWorkspaceRequest{Name: "Acme", Slug: "acme"})
	if rpcerr.CodeOf(err) != rpcerr.CodeInternalServerError {
		t.Fatalf("expected internal error, got %v", err)
	}
	expectNoMoreCalls(t, mock)
}

func TestWorkspaceService_Create_RejectsRootKeys(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewWorkspaceService(db, &fakeProvider{}, time.Minute)

	caller := userCaller()
	caller.ActorType = entity.ActorTypeKey
	_, err := svc.Create(context.Background(), caller, &types.CreateWorkspaceRequest{Name: "Acme", Slug: "acme"})
	if !errors.Is(err, service.ErrUsersOnly) {
		t.Fatalf("expected ErrUsersOnly, got %v", err)
	}
	expectNoMoreCalls(t, mock)
}

func TestWorkspaceService_FindByOrgID_UsesCache(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewWorkspaceService(db, &fakeProvider{}, time.Minute)

	mock.ExpectQuery(findWorkspaceByOrgQuery).
		WithArgs("org_1").
		WillReturnRows(sqlmock.NewRows(workspaceColumns).AddRow("ws_1", "org_1", "Acme", "acme", "free", fixedTime, fixedTime, nil))

	for i := 0; i < 3; i++ {
		ws, err := svc.FindByOrgID(context.Background(), "org_1")
		if err != nil {
			t.Fatalf("find failed: %v", err)
		}
		if ws.ID != "ws_1" {
			t.Fatalf("unexpected workspace %s", ws.ID)
		}
	}
	// Lookups by id are served from the same cache fill.
	if _, err := svc.FindByID(context.Background(), "ws_1"); err != nil {
		t.Fatalf("find by id failed: %v", err)
	}
	expectNoMoreCalls(t, mock)
}

func TestWorkspaceService_FindByOrgID_Missing(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewWorkspaceService(db, &fakeProvider{}, time.Minute)

	mock.ExpectQuery(findWorkspaceByOrgQuery).
		WithArgs("org_gone").
		WillReturnRows(sqlmock.NewRows(workspaceColumns))

	if _, err := svc.FindByOrgID(context.Background(), "org_gone"); !errors.Is(err, service.ErrWorkspaceNotFound) {
		t.Fatalf("expected ErrWorkspaceNotFound, got %v", err)
	}
	expectNoMoreCalls(t, mock)
}

func TestWorkspaceService_UpdateName_InvalidatesCache(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewWorkspaceService(db, &fakeProvider{}, time.Minute)

	mock.ExpectQuery(findWorkspaceByIDQuery).
		WithArgs("ws_1").
		WillReturnRows(sqlmock.NewRows(workspaceColumns).AddRow("ws_1", "org_1", "Acme", "acme", "free", fixedTime, fixedTime, nil))
	mock.ExpectBegin()
	mock.ExpectExec(updateWorkspaceNameQuery).
		WithArgs("Acme Inc", sqlmock.AnyArg(), "ws_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectAudit(mock, "workspace.update", true)
	mock.ExpectCommit()
	mock.ExpectQuery(findWorkspaceByIDQuery).
		WithArgs("ws_1").
		WillReturnRows(sqlmock.NewRows(workspaceColumns).AddRow("ws_1", "org_1", "Acme Inc", "acme", "free", fixedTime, fixedTime, nil))

	if err := svc.UpdateName(context.Background(), userCaller(), &types.UpdateWorkspaceNameRequest{Name: "Acme Inc"}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	ws, err := svc.FindByID(context.Background(), "ws_1")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if ws.Name != "Acme Inc" {
		t.Fatalf("expected refreshed name, got %s", ws.Name)
	}
	expectNoMoreCalls(t, mock)
}

func TestWorkspaceService_Members_SkipsUnknownUsers(t *testing.T) {
	db, mock := newMockDB(t)
	provider := &fakeProvider{
		memberships: []*entity.Membership{
			{ID: "mem_1", UserID: "user_1", OrgID: "org_1", Role: entity.MembershipRoleAdmin},
			{ID: "mem_2", UserID: "user_gone", OrgID: "org_1", Role: entity.MembershipRoleMember},
		},
		users: map[string]*entity.User{
			"user_1": {ID: "user_1", Email: "jane@example.com"},
		},
	}
	svc := service.NewWorkspaceService(db, provider, time.Minute)

	mock.ExpectQuery(findWorkspaceByIDQuery).
		WithArgs("ws_1").
		WillReturnRows(sqlmock.NewRows(workspaceColumns).AddRow("ws_1", "org_1", "Acme", "acme", "free", fixedTime, fixedTime, nil))

	members, err := svc.Members(context.Background(), userCaller())
	if err != nil {
		t.Fatalf("members failed: %v", err)
	}
	if len(members) != 1 || members[0].User == nil || members[0].User.Email != "jane@example.com" {
		t.Fatalf("unexpected members: %+v", members)
	}
	expectNoMoreCalls(t, mock)
}

func TestWorkspaceService_FindByID_LogsCacheSize(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewWorkspaceService(db, &fakeProvider{}, time.Minute)

	hook := logtest.NewGlobal()
	level := logrus.GetLevel()
	logrus.SetLevel(logrus.DebugLevel)
	t.Cleanup(func() {
		logrus.SetLevel(level)
		hook.Reset()
	})

	mock.ExpectQuery(findWorkspaceByIDQuery).
		WithArgs("ws_1").
		WillReturnRows(sqlmock.NewRows(workspaceColumns).AddRow("ws_1", "org_1", "Acme", "acme", "free", fixedTime, fixedTime, nil))

	if _, err := svc.FindByID(context.Background(), "ws_1"); err != nil {
		t.Fatalf("find failed: %v", err)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Message != "Workspace cached" || entry.Data["cached_workspaces"] != 1 {
		t.Fatalf("unexpected log entry: %+v", entry)
	}
	expectNoMoreCalls(t, mock)
}
