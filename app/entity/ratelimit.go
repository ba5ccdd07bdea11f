package entity

import (
	"database/sql"
	"time"
)

type RatelimitNamespace struct {
	ID          string
	WorkspaceID string
	Name        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   sql.NullTime
}

type RatelimitOverride struct {
	ID          string
	WorkspaceID string
	NamespaceID string
	Identifier  string
	Limit       int64
	Duration    int64
	Async       sql.NullBool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   sql.NullTime
}
