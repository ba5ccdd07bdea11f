package types

type CreateRootKeyRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=256"`
	Permissions []string `json:"permissions" validate:"required,min=1,max=1000,dive,required,max=512,permission_name"`
}

func (r *CreateRootKeyRequest) Validate() error {
	return validateStruct(r)
}

type UpdateRootKeyNameRequest struct {
	KeyID string  `json:"keyId" validate:"required"`
	Name  *string `json:"name" validate:"omitempty,max=256"`
}

func (r *UpdateRootKeyNameRequest) Validate() error {
	return validateStruct(r)
}

type DeleteRootKeysRequest struct {
	KeyIDs []string `json:"keyIds" validate:"required,min=1,max=100,dive,required"`
}

func (r *DeleteRootKeysRequest) Validate() error {
	return validateStruct(r)
}
