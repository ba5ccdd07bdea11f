package dto

import (
	"database/sql"
	"encoding/json"
	"time"
)

type IDResult struct {
	ID string `json:"id"`
}

type CreateKeyResult struct {
	KeyID string `json:"keyId"`
	Key   string `json:"key"`
}

type MessageResult struct {
	Message string `json:"message"`
}

type SessionResult struct {
	UserID string `json:"userId"`
	OrgID  string `json:"orgId,omitempty"`
}

// MeResult describes the signed-in user and the workspace the session points at.
type MeResult struct {
	User        User         `json:"user"`
	Memberships []Membership `json:"memberships"`
	Workspace   *Workspace   `json:"workspace"`
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}

func nullBool(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	b := v.Bool
	return &b
}

func nullTimeMillis(v sql.NullTime) *int64 {
	if !v.Valid {
		return nil
	}
	ms := v.Time.UnixMilli()
	return &ms
}

func nullJSON(v sql.NullString) json.RawMessage {
	if !v.Valid || v.String == "" {
		return nil
	}
	return json.RawMessage(v.String)
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}
