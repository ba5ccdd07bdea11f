package entity

import (
	"database/sql"
	"time"
)

const (
	AuditBucketDashboard = "dashboard"

	ActorTypeUser   = "user"
	ActorTypeKey    = "key"
	ActorTypeSystem = "system"
)

type AuditLog struct {
	ID          string
	WorkspaceID string
	Bucket      string
	Event       string
	Time        int64
	Display     string
	RemoteIP    sql.NullString
	UserAgent   sql.NullString
	ActorType   string
	ActorID     string
	ActorName   sql.NullString
	CreatedAt   time.Time
	Targets     []AuditLogTarget
}

type AuditLogTarget struct {
	AuditLogID string
	Type       string
	ID         string
	Name       sql.NullString
}
