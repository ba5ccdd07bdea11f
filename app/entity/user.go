package entity

import (
	"database/sql"
	"time"
)

type User struct {
	ID             string
	Email          string
	CanonicalEmail string
	PasswordHash   string
	FirstName      sql.NullString
	LastName       sql.NullString
	LastLogin      sql.NullTime
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const (
	MembershipRoleAdmin  = "admin"
	MembershipRoleMember = "basic_member"
)

type Membership struct {
	ID        string
	UserID    string
	OrgID     string
	Role      string
	CreatedAt time.Time
}

type RefreshToken struct {
	ID        uint64
	UserID    string
	OrgID     string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
