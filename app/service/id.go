package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

const (
	prefixWorkspace  = "ws"
	prefixOrg        = "org"
	prefixAPI        = "api"
	prefixKeyAuth    = "ks"
	prefixKey        = "key"
	prefixNamespace  = "rlns"
	prefixOverride   = "rlor"
	prefixPermission = "perm"
	prefixRole       = "role"
	prefixIdentity   = "id"
	prefixProject    = "proj"
	prefixDeployment = "d"
	prefixAuditLog   = "evt"
)

func newID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// generateKey returns a fresh "<prefix>_<base58>" secret, its SHA-256 hash and
// the visible start shown in listings.
func generateKey(prefix string, byteLength int) (string, string, string, error) {
	secret := make([]byte, byteLength)
	if _, err := rand.Read(secret); err != nil {
		return "", "", "", err
	}

	rawKey := base58.Encode(secret)
	if prefix != "" {
		rawKey = prefix + "_" + rawKey
	}
	return rawKey, HashKey(rawKey), keyStart(prefix, rawKey), nil
}

// HashKey is the lookup hash stored for every key.
func HashKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

func keyStart(prefix, rawKey string) string {
	visible := len(prefix) + 4
	if prefix != "" {
		visible++
	}
	if visible > len(rawKey) {
		visible = len(rawKey)
	}
	return rawKey[:visible]
}
