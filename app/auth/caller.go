package auth

import (
	"strings"

	"github.com/vibast-solutions/ms-go-console/app/entity"
)

// Caller is the authenticated actor of a request: a dashboard user or a root key.
type Caller struct {
	ActorType   string
	ActorID     string
	ActorName   string
	Email       string
	OrgID       string
	Role        string
	WorkspaceID string
	Permissions []string
	RemoteIP    string
	UserAgent   string
}

func (c *Caller) IsRootKey() bool {
	return c.ActorType == entity.ActorTypeKey
}

// HasPermission reports whether the caller may perform required. Dashboard
// users are workspace admins; root keys need a matching permission where a
// "*" segment matches any single segment.
func (c *Caller) HasPermission(required string) bool {
	if !c.IsRootKey() {
		return true
	}
	for _, granted := range c.Permissions {
		if MatchPermission(granted, required) {
			return true
		}
	}
	return false
}

func MatchPermission(granted, required string) bool {
	if granted == required {
		return true
	}
	g := strings.Split(granted, ".")
	r := strings.Split(required, ".")
	if len(g) != len(r) {
		return false
	}
	for i := range g {
		if g[i] != "*" && g[i] != r[i] {
			return false
		}
	}
	return true
}
