package entity

import (
	"database/sql"
	"time"
)

type Key struct {
	ID                string
	KeyAuthID         string
	WorkspaceID       string
	ForWorkspaceID    sql.NullString
	Hash              string
	Start             string
	Name              sql.NullString
	OwnerID           sql.NullString
	IdentityID        sql.NullString
	Meta              sql.NullString
	Environment       sql.NullString
	Enabled           bool
	Expires           sql.NullTime
	RemainingRequests sql.NullInt64
	RefillAmount      sql.NullInt64
	RefillDay         sql.NullInt64
	RatelimitAsync    sql.NullBool
	RatelimitLimit    sql.NullInt64
	RatelimitDuration sql.NullInt64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         sql.NullTime
}

// IsRootKey reports whether the key manages a workspace rather than a customer API.
func (k *Key) IsRootKey() bool {
	return k.ForWorkspaceID.Valid
}

func (k *Key) IsExpired(now time.Time) bool {
	return k.Expires.Valid && !k.Expires.Time.After(now)
}
