package types

import "encoding/json"

type CreateIdentityRequest struct {
	ExternalID string          `json:"externalId" validate:"required,min=3,max=255"`
	Meta       json.RawMessage `json:"meta"`
}

func (r *CreateIdentityRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	return validateMeta(r.Meta)
}

type IdentityRequest struct {
	IdentityID string `json:"identityId" validate:"required"`
}

func (r *IdentityRequest) Validate() error {
	return validateStruct(r)
}

type UpdateIdentityMetadataRequest struct {
	IdentityID string          `json:"identityId" validate:"required"`
	Meta       json.RawMessage `json:"meta"`
}

func (r *UpdateIdentityMetadataRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	return validateMeta(r.Meta)
}
