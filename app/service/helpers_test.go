package service_test

import (
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-console/app/auth"
	"github.com/vibast-solutions/ms-go-console/app/entity"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	insertAuditLogQuery    = `(?s)INSERT INTO audit_log \(id, workspace_id, bucket, event`
	insertAuditTargetQuery = `(?s)INSERT INTO audit_log_target \(audit_log_id, workspace_id, type, id, name, created_at\) VALUES`
)

var (
	keyColumns = []string{
		"id", "key_auth_id", "workspace_id", "for_workspace_id", "hash", "start", "name", "owner_id",
		"identity_id", "meta", "environment", "enabled", "expires", "remaining_requests", "refill_amount",
		"refill_day", "ratelimit_async", "ratelimit_limit", "ratelimit_duration", "created_at", "updated_at", "deleted_at",
	}
	apiColumns = []string{
		"id", "workspace_id", "key_auth_id", "name", "ip_whitelist", "delete_protection", "created_at", "updated_at", "deleted_at",
	}
	workspaceColumns = []string{"id", "org_id", "name", "slug", "plan", "created_at", "updated_at", "deleted_at"}
	identityColumns  = []string{"id", "workspace_id", "external_id", "environment", "meta", "created_at", "updated_at", "deleted_at"}
	namespaceColumns = []string{"id", "workspace_id", "name", "created_at", "updated_at", "deleted_at"}
	overrideColumns  = []string{
		"id", "workspace_id", "namespace_id", "identifier", "limit", "duration", "async", "created_at", "updated_at", "deleted_at",
	}
	projectColumns = []string{
		"id", "workspace_id", "name", "slug", "git_repository_url", "default_branch", "delete_protection",
		"created_at", "updated_at", "deleted_at",
	}
	permissionColumns = []string{"id", "workspace_id", "name", "description", "created_at", "updated_at"}
	roleColumns       = []string{"id", "workspace_id", "name", "description", "created_at", "updated_at"}
)

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func userCaller() *auth.Caller {
	return &auth.Caller{
		ActorType:   entity.ActorTypeUser,
		ActorID:     "user_1",
		ActorName:   "Jane",
		Email:       "jane@example.com",
		OrgID:       "org_1",
		Role:        entity.MembershipRoleAdmin,
		WorkspaceID: "ws_1",
		RemoteIP:    "10.0.0.1",
		UserAgent:   "test-agent",
	}
}

// expectAudit expects one audit row and, when withTargets is set, its target insert.
func expectAudit(mock sqlmock.Sqlmock, event string, withTargets bool) {
	mock.ExpectExec(insertAuditLogQuery).
		WithArgs(sqlmock.AnyArg(), "ws_1", entity.AuditBucketDashboard, event, sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if withTargets {
		mock.ExpectExec(insertAuditTargetQuery).WillReturnResult(sqlmock.NewResult(0, 1))
	}
}

func expectNoMoreCalls(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// nullArg matches a NULL driver value.
type nullArg struct{}

func (nullArg) Match(v driver.Value) bool {
	return v == nil
}

func keyRow(id, workspaceID string, forWorkspaceID interface{}, enabled bool) []driver.Value {
	return []driver.Value{
		id, "ks_1", workspaceID, forWorkspaceID, "hash", "test_abcd", "my key", nil,
		nil, nil, nil, enabled, nil, nil, nil,
		nil, nil, nil, nil, fixedTime, fixedTime, nil,
	}
}
