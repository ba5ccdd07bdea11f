package entity

import (
	"database/sql"
	"time"
)

type Identity struct {
	ID          string
	WorkspaceID string
	ExternalID  string
	Environment string
	Meta        sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   sql.NullTime
}
