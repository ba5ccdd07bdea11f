package dto

import (
	"encoding/json"

	"github.com/vibast-solutions/ms-go-console/app/entity"
)

type User struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	LastLogin *int64  `json:"lastLogin"`
}

func NewUser(u *entity.User) User {
	return User{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: nullString(u.FirstName),
		LastName:  nullString(u.LastName),
		LastLogin: nullTimeMillis(u.LastLogin),
	}
}

type Membership struct {
	UserID    string `json:"userId"`
	OrgID     string `json:"orgId"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"createdAt"`
	User      *User  `json:"user,omitempty"`
}

func NewMembership(m *entity.Membership) Membership {
	return Membership{UserID: m.UserID, OrgID: m.OrgID, Role: m.Role, CreatedAt: millis(m.CreatedAt)}
}

type Workspace struct {
	ID        string `json:"id"`
	OrgID     string `json:"orgId"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Plan      string `json:"plan"`
	CreatedAt int64  `json:"createdAt"`
}

func NewWorkspace(ws *entity.Workspace) Workspace {
	return Workspace{
		ID:        ws.ID,
		OrgID:     ws.OrgID,
		Name:      ws.Name,
		Slug:      ws.Slug,
		Plan:      ws.Plan,
		CreatedAt: millis(ws.CreatedAt),
	}
}

type API struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	KeyAuthID        string   `json:"keyAuthId"`
	IPWhitelist      []string `json:"ipWhitelist"`
	DeleteProtection bool     `json:"deleteProtection"`
	CreatedAt        int64    `json:"createdAt"`
}

func NewAPI(api *entity.API) API {
	return API{
		ID:               api.ID,
		Name:             api.Name,
		KeyAuthID:        api.KeyAuthID,
		IPWhitelist:      api.IPWhitelist,
		DeleteProtection: api.DeleteProtection,
		CreatedAt:        millis(api.CreatedAt),
	}
}

func NewAPIs(apis []*entity.API) []API {
	out := make([]API, 0, len(apis))
	for _, api := range apis {
		out = append(out, NewAPI(api))
	}
	return out
}

type KeyRefill struct {
	Amount    int64  `json:"amount"`
	RefillDay *int64 `json:"refillDay"`
}

type KeyRatelimit struct {
	Limit    int64 `json:"limit"`
	Duration int64 `json:"duration"`
	Async    bool  `json:"async"`
}

type Key struct {
	ID          string          `json:"id"`
	KeyAuthID   string          `json:"keyAuthId"`
	Start       string          `json:"start"`
	Name        *string         `json:"name"`
	OwnerID     *string         `json:"ownerId"`
	IdentityID  *string         `json:"identityId"`
	Meta        json.RawMessage `json:"meta"`
	Environment *string         `json:"environment"`
	Enabled     bool            `json:"enabled"`
	Expires     *int64          `json:"expires"`
	Remaining   *int64          `json:"remaining"`
	Refill      *KeyRefill      `json:"refill"`
	Ratelimit   *KeyRatelimit   `json:"ratelimit"`
	CreatedAt   int64           `json:"createdAt"`
	UpdatedAt   int64           `json:"updatedAt"`
}

func NewKey(k *entity.Key) Key {
	view := Key{
		ID:          k.ID,
		KeyAuthID:   k.KeyAuthID,
		Start:       k.Start,
		Name:        nullString(k.Name),
		OwnerID:     nullString(k.OwnerID),
		IdentityID:  nullString(k.IdentityID),
		Meta:        nullJSON(k.Meta),
		Environment: nullString(k.Environment),
		Enabled:     k.Enabled,
		Expires:     nullTimeMillis(k.Expires),
		Remaining:   nullInt64(k.RemainingRequests),
		CreatedAt:   millis(k.CreatedAt),
		UpdatedAt:   millis(k.UpdatedAt),
	}
	if k.RefillAmount.Valid {
		view.Refill = &KeyRefill{Amount: k.RefillAmount.Int64, RefillDay: nullInt64(k.RefillDay)}
	}
	if k.RatelimitLimit.Valid && k.RatelimitDuration.Valid {
		view.Ratelimit = &KeyRatelimit{
			Limit:    k.RatelimitLimit.Int64,
			Duration: k.RatelimitDuration.Int64,
			Async:    k.RatelimitAsync.Valid && k.RatelimitAsync.Bool,
		}
	}
	return view
}

func NewKeys(keys []*entity.Key) []Key {
	out := make([]Key, 0, len(keys))
	for _, k := range keys {
		out = append(out, NewKey(k))
	}
	return out
}

type RootKey struct {
	ID          string   `json:"id"`
	Start       string   `json:"start"`
	Name        *string  `json:"name"`
	Permissions []string `json:"permissions"`
	CreatedAt   int64    `json:"createdAt"`
}

func NewRootKey(k *entity.Key, permissions []string) RootKey {
	if permissions == nil {
		permissions = []string{}
	}
	return RootKey{
		ID:          k.ID,
		Start:       k.Start,
		Name:        nullString(k.Name),
		Permissions: permissions,
		CreatedAt:   millis(k.CreatedAt),
	}
}

type Namespace struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

func NewNamespace(ns *entity.RatelimitNamespace) Namespace {
	return Namespace{ID: ns.ID, Name: ns.Name, CreatedAt: millis(ns.CreatedAt)}
}

func NewNamespaces(namespaces []*entity.RatelimitNamespace) []Namespace {
	out := make([]Namespace, 0, len(namespaces))
	for _, ns := range namespaces {
		out = append(out, NewNamespace(ns))
	}
	return out
}

type Override struct {
	ID          string `json:"id"`
	NamespaceID string `json:"namespaceId"`
	Identifier  string `json:"identifier"`
	Limit       int64  `json:"limit"`
	Duration    int64  `json:"duration"`
	Async       *bool  `json:"async"`
	CreatedAt   int64  `json:"createdAt"`
}

func NewOverrides(overrides []*entity.RatelimitOverride) []Override {
	out := make([]Override, 0, len(overrides))
	for _, o := range overrides {
		out = append(out, Override{
			ID:          o.ID,
			NamespaceID: o.NamespaceID,
			Identifier:  o.Identifier,
			Limit:       o.Limit,
			Duration:    o.Duration,
			Async:       nullBool(o.Async),
			CreatedAt:   millis(o.CreatedAt),
		})
	}
	return out
}

type Permission struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	CreatedAt   int64   `json:"createdAt"`
}

func NewPermissions(permissions []*entity.Permission) []Permission {
	out := make([]Permission, 0, len(permissions))
	for _, p := range permissions {
		out = append(out, Permission{ID: p.ID, Name: p.Name, Description: nullString(p.Description), CreatedAt: millis(p.CreatedAt)})
	}
	return out
}

type Role struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   *string  `json:"description"`
	PermissionIDs []string `json:"permissionIds"`
	CreatedAt     int64    `json:"createdAt"`
}

func NewRole(role *entity.Role, permissionIDs []string) Role {
	return Role{
		ID:            role.ID,
		Name:          role.Name,
		Description:   nullString(role.Description),
		PermissionIDs: permissionIDs,
		CreatedAt:     millis(role.CreatedAt),
	}
}

type Identity struct {
	ID          string          `json:"id"`
	ExternalID  string          `json:"externalId"`
	Environment string          `json:"environment"`
	Meta        json.RawMessage `json:"meta"`
	CreatedAt   int64           `json:"createdAt"`
}

func NewIdentity(identity *entity.Identity) Identity {
	return Identity{
		ID:          identity.ID,
		ExternalID:  identity.ExternalID,
		Environment: identity.Environment,
		Meta:        nullJSON(identity.Meta),
		CreatedAt:   millis(identity.CreatedAt),
	}
}

func NewIdentities(identities []*entity.Identity) []Identity {
	out := make([]Identity, 0, len(identities))
	for _, identity := range identities {
		out = append(out, NewIdentity(identity))
	}
	return out
}

type Project struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Slug             string  `json:"slug"`
	GitRepositoryURL *string `json:"gitRepositoryUrl"`
	DefaultBranch    string  `json:"defaultBranch"`
	DeleteProtection bool    `json:"deleteProtection"`
	CreatedAt        int64   `json:"createdAt"`
}

func NewProjects(projects []*entity.Project) []Project {
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		out = append(out, Project{
			ID:               p.ID,
			Name:             p.Name,
			Slug:             p.Slug,
			GitRepositoryURL: nullString(p.GitRepositoryURL),
			DefaultBranch:    p.DefaultBranch,
			DeleteProtection: p.DeleteProtection,
			CreatedAt:        millis(p.CreatedAt),
		})
	}
	return out
}

type Deployment struct {
	ID           string  `json:"id"`
	ProjectID    string  `json:"projectId"`
	Environment  string  `json:"environment"`
	Branch       string  `json:"branch"`
	GitCommitSHA *string `json:"gitCommitSha"`
	Status       string  `json:"status"`
	CreatedAt    int64   `json:"createdAt"`
}

func NewDeployment(d *entity.Deployment) Deployment {
	return Deployment{
		ID:           d.ID,
		ProjectID:    d.ProjectID,
		Environment:  d.Environment,
		Branch:       d.Branch,
		GitCommitSHA: nullString(d.GitCommitSHA),
		Status:       d.Status,
		CreatedAt:    millis(d.CreatedAt),
	}
}

func NewDeployments(deployments []*entity.Deployment) []Deployment {
	out := make([]Deployment, 0, len(deployments))
	for _, d := range deployments {
		out = append(out, NewDeployment(d))
	}
	return out
}

type AuditTarget struct {
	Type string  `json:"type"`
	ID   string  `json:"id"`
	Name *string `json:"name"`
}

type AuditActor struct {
	Type string  `json:"type"`
	ID   string  `json:"id"`
	Name *string `json:"name"`
}

type AuditLog struct {
	ID          string        `json:"id"`
	Event       string        `json:"event"`
	Time        int64         `json:"time"`
	Description string        `json:"description"`
	Actor       AuditActor    `json:"actor"`
	RemoteIP    *string       `json:"remoteIp"`
	UserAgent   *string       `json:"userAgent"`
	Targets     []AuditTarget `json:"targets"`
}

type AuditCursor struct {
	Time int64  `json:"time"`
	ID   string `json:"id"`
}

type AuditLogPage struct {
	Logs       []AuditLog   `json:"logs"`
	NextCursor *AuditCursor `json:"nextCursor"`
}

func NewAuditLogs(logs []*entity.AuditLog) []AuditLog {
	out := make([]AuditLog, 0, len(logs))
	for _, log := range logs {
		targets := make([]AuditTarget, 0, len(log.Targets))
		for _, t := range log.Targets {
			targets = append(targets, AuditTarget{Type: t.Type, ID: t.ID, Name: nullString(t.Name)})
		}
		out = append(out, AuditLog{
			ID:          log.ID,
			Event:       log.Event,
			Time:        log.Time,
			Description: log.Display,
			Actor:       AuditActor{Type: log.ActorType, ID: log.ActorID, Name: nullString(log.ActorName)},
			RemoteIP:    nullString(log.RemoteIP),
			UserAgent:   nullString(log.UserAgent),
			Targets:     targets,
		})
	}
	return out
}
