package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-console/app/entity"
	"github.com/vibast-solutions/ms-go-console/app/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	insertAuditLogQuery    = `(?s)INSERT INTO audit_log \(id, workspace_id, bucket, event, time, display, remote_ip, user_agent,\s+actor_type, actor_id, actor_name, created_at\)`
	insertAuditTargetQuery = `(?s)INSERT INTO audit_log_target \(audit_log_id, workspace_id, type, id, name, created_at\) VALUES \(\?, \?, \?, \?, \?, \?\), \(\?, \?, \?, \?, \?, \?\)`
	listAuditLogQuery      = `(?s)SELECT id, workspace_id, bucket, event, time.+FROM audit_log WHERE workspace_id = \? AND bucket = \? AND event IN \(\?\) AND actor_id IN \(\?, \?\) AND \(time < \? OR \(time = \? AND id < \?\)\) ORDER BY time DESC, id DESC LIMIT \?`
	listAuditTargetsQuery  = `(?s)SELECT audit_log_id, type, id, name FROM audit_log_target\s+WHERE audit_log_id IN \(\?, \?\)`
)

var auditColumns = []string{
	"id", "workspace_id", "bucket", "event", "time", "display", "remote_ip", "user_agent",
	"actor_type", "actor_id", "actor_name", "created_at",
}

func TestAuditLogRepository_InsertWithTargets(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewAuditLogRepository(db)
	now := time.Now()
	log := &entity.AuditLog{
		ID:          "evt_1",
		WorkspaceID: "ws_1",
		Bucket:      entity.AuditBucketDashboard,
		Event:       "api.create",
		Time:        now.UnixMilli(),
		Display:     "Created api_1",
		RemoteIP:    sql.NullString{String: "127.0.0.1", Valid: true},
		ActorType:   entity.ActorTypeUser,
		ActorID:     "user_1",
		CreatedAt:   now,
		Targets: []entity.AuditLogTarget{
			{Type: "api", ID: "api_1", Name: sql.NullString{String: "payments", Valid: true}},
			{Type: "keyAuth", ID: "ks_1"},
		},
	}

	mock.ExpectExec(insertAuditLogQuery).
		WithArgs(
			log.ID, log.WorkspaceID, log.Bucket, log.Event, log.Time, log.Display, log.RemoteIP,
			log.UserAgent, log.ActorType, log.ActorID, log.ActorName, log.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertAuditTargetQuery).
		WithArgs(
			"evt_1", "ws_1", "api", "api_1", sql.NullString{String: "payments", Valid: true}, now,
			"evt_1", "ws_1", "keyAuth", "ks_1", sql.NullString{}, now,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := repo.Insert(context.Background(), log); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuditLogRepository_ListAttachesTargets(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewAuditLogRepository(db)
	now := time.Now()

	mock.ExpectQuery(listAuditLogQuery).
		WithArgs("ws_1", entity.AuditBucketDashboard, "key.delete", "user_1", "key_9", int64(5000), int64(5000), "evt_9", 2).
		WillReturnRows(sqlmock.NewRows(auditColumns).
			AddRow("evt_2", "ws_1", "dashboard", "key.delete", int64(4000), "Deleted key_2", nil, nil, "user", "user_1", nil, now).
			AddRow("evt_1", "ws_1", "dashboard", "key.delete", int64(3000), "Deleted key_1", nil, nil, "user", "user_1", nil, now))
	mock.ExpectQuery(listAuditTargetsQuery).
		WithArgs("evt_2", "evt_1").
		WillReturnRows(sqlmock.NewRows([]string{"audit_log_id", "type", "id", "name"}).
			AddRow("evt_2", "key", "key_2", nil).
			AddRow("evt_1", "key", "key_1", nil))

	logs, err := repo.List(context.Background(), repository.AuditFilter{
		WorkspaceID: "ws_1",
		Bucket:      entity.AuditBucketDashboard,
		Events:      []string{"key.delete"},
		Users:       []string{"user_1", "key_9"},
		BeforeTime:  5000,
		BeforeID:    "evt_9",
		Limit:       2,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
	if len(logs[0].Targets) != 1 || logs[0].Targets[0].ID != "key_2" {
		t.Fatalf("unexpected targets: %+v", logs[0].Targets)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuditLogRepository_ListEmptySkipsTargets(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewAuditLogRepository(db)
	mock.ExpectQuery(`(?s)FROM audit_log WHERE workspace_id = \? AND bucket = \? ORDER BY time DESC, id DESC LIMIT \?`).
		WithArgs("ws_1", "dashboard", 50).
		WillReturnRows(sqlmock.NewRows(auditColumns))

	logs, err := repo.List(context.Background(), repository.AuditFilter{WorkspaceID: "ws_1", Bucket: "dashboard", Limit: 50})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("expected no logs, got %d", len(logs))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
