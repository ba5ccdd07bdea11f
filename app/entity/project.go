package entity

import (
	"database/sql"
	"time"
)

type Project struct {
	ID               string
	WorkspaceID      string
	Name             string
	Slug             string
	GitRepositoryURL sql.NullString
	DefaultBranch    string
	DeleteProtection bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        sql.NullTime
}

const (
	DeploymentStatusPending  = "pending"
	DeploymentStatusBuilding = "building"
	DeploymentStatusReady    = "ready"
	DeploymentStatusFailed   = "failed"
)

type Deployment struct {
	ID           string
	WorkspaceID  string
	ProjectID    string
	Environment  string
	Branch       string
	GitCommitSHA sql.NullString
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
