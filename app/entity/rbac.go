package entity

import (
	"database/sql"
	"time"
)

type Role struct {
	ID          string
	WorkspaceID string
	Name        string
	Description sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Permission struct {
	ID          string
	WorkspaceID string
	Name        string
	Description sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
