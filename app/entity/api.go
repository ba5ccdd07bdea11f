package entity

import (
	"database/sql"
	"time"
)

type KeyAuth struct {
	ID          string
	WorkspaceID string
	CreatedAt   time.Time
	DeletedAt   sql.NullTime
}

type API struct {
	ID               string
	WorkspaceID      string
	KeyAuthID        string
	Name             string
	IPWhitelist      []string
	DeleteProtection bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        sql.NullTime
}
