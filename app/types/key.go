package types

import (
	"encoding/json"
	"errors"
	"time"
)

const DefaultKeyBytes = 16

type KeyRefill struct {
	Amount    int64  `json:"amount" validate:"min=1"`
	RefillDay *int64 `json:"refillDay" validate:"omitempty,min=1,max=31"`
}

type KeyRatelimit struct {
	Limit    int64 `json:"limit" validate:"min=1"`
	Duration int64 `json:"duration" validate:"min=1000"`
	Async    bool  `json:"async"`
}

type CreateKeyRequest struct {
	KeyAuthID   string          `json:"keyAuthId" validate:"required"`
	Prefix      string          `json:"prefix" validate:"omitempty,max=8,alphanum"`
	Bytes       int             `json:"bytes" validate:"omitempty,min=8,max=255"`
	Name        *string         `json:"name" validate:"omitempty,max=256"`
	OwnerID     *string         `json:"ownerId" validate:"omitempty,max=256"`
	ExternalID  *string         `json:"externalId" validate:"omitempty,min=1,max=255"`
	Meta        json.RawMessage `json:"meta"`
	Expires     *int64          `json:"expires"`
	Remaining   *int64          `json:"remaining" validate:"omitempty,min=1"`
	Refill      *KeyRefill      `json:"refill"`
	Ratelimit   *KeyRatelimit   `json:"ratelimit"`
	Enabled     *bool           `json:"enabled"`
	Environment *string         `json:"environment" validate:"omitempty,max=256"`
}

func (r *CreateKeyRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if r.Refill != nil && r.Remaining == nil {
		return errors.New("remaining must be set if you are using refill")
	}
	if err := validateExpires(r.Expires); err != nil {
		return err
	}
	return validateMeta(r.Meta)
}

// KeyBytes returns the requested entropy, defaulting to DefaultKeyBytes.
func (r *CreateKeyRequest) KeyBytes() int {
	if r.Bytes == 0 {
		return DefaultKeyBytes
	}
	return r.Bytes
}

func (r *CreateKeyRequest) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

type ListKeysRequest struct {
	KeyAuthID string `json:"keyAuthId" validate:"required"`
}

func (r *ListKeysRequest) Validate() error {
	return validateStruct(r)
}

type KeyRequest struct {
	KeyID string `json:"keyId" validate:"required"`
}

func (r *KeyRequest) Validate() error {
	return validateStruct(r)
}

type UpdateKeyNameRequest struct {
	KeyID string  `json:"keyId" validate:"required"`
	Name  *string `json:"name" validate:"omitempty,max=256"`
}

func (r *UpdateKeyNameRequest) Validate() error {
	return validateStruct(r)
}

type UpdateKeyEnabledRequest struct {
	KeyID   string `json:"keyId" validate:"required"`
	Enabled *bool  `json:"enabled" validate:"required"`
}

func (r *UpdateKeyEnabledRequest) Validate() error {
	return validateStruct(r)
}

// UpdateKeyExpirationRequest clears the expiration when Expires is null.
type UpdateKeyExpirationRequest struct {
	KeyID   string `json:"keyId" validate:"required"`
	Expires *int64 `json:"expires"`
}

func (r *UpdateKeyExpirationRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	return validateExpires(r.Expires)
}

type UpdateKeyMetadataRequest struct {
	KeyID string          `json:"keyId" validate:"required"`
	Meta  json.RawMessage `json:"meta"`
}

func (r *UpdateKeyMetadataRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	return validateMeta(r.Meta)
}

type UpdateKeyOwnerRequest struct {
	KeyID   string  `json:"keyId" validate:"required"`
	OwnerID *string `json:"ownerId" validate:"omitempty,max=256"`
}

func (r *UpdateKeyOwnerRequest) Validate() error {
	return validateStruct(r)
}

type UpdateKeyRemainingRequest struct {
	KeyID     string     `json:"keyId" validate:"required"`
	Remaining *int64     `json:"remaining" validate:"omitempty,min=0"`
	Refill    *KeyRefill `json:"refill"`
}

func (r *UpdateKeyRemainingRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if r.Refill != nil && r.Remaining == nil {
		return errors.New("remaining must be set if you are using refill")
	}
	return nil
}

type UpdateKeyRatelimitRequest struct {
	KeyID    string `json:"keyId" validate:"required"`
	Enabled  bool   `json:"enabled"`
	Limit    *int64 `json:"limit" validate:"omitempty,min=1"`
	Duration *int64 `json:"duration" validate:"omitempty,min=1000"`
	Async    *bool  `json:"async"`
}

func (r *UpdateKeyRatelimitRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if r.Enabled && (r.Limit == nil || r.Duration == nil) {
		return errors.New("limit and duration are required when ratelimiting is enabled")
	}
	return nil
}

type DeleteKeysRequest struct {
	KeyIDs []string `json:"keyIds" validate:"required,min=1,max=100,dive,required"`
}

func (r *DeleteKeysRequest) Validate() error {
	return validateStruct(r)
}

type KeyRoleRequest struct {
	KeyID  string `json:"keyId" validate:"required"`
	RoleID string `json:"roleId" validate:"required"`
}

func (r *KeyRoleRequest) Validate() error {
	return validateStruct(r)
}

type KeyPermissionRequest struct {
	KeyID        string `json:"keyId" validate:"required"`
	PermissionID string `json:"permissionId" validate:"required"`
}

func (r *KeyPermissionRequest) Validate() error {
	return validateStruct(r)
}

func validateExpires(expires *int64) error {
	if expires == nil {
		return nil
	}
	if time.UnixMilli(*expires).Before(time.Now()) {
		return errors.New("expires must be in the future")
	}
	return nil
}
