package entity

import (
	"database/sql"
	"time"
)

type Workspace struct {
	ID        string
	OrgID     string
	Name      string
	Slug      string
	Plan      string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt sql.NullTime
}
