package types

type CreatePermissionRequest struct {
	Name        string  `json:"name" validate:"required,min=3,max=512,permission_name"`
	Description *string `json:"description" validate:"omitempty,max=512"`
}

func (r *CreatePermissionRequest) Validate() error {
	return validateStruct(r)
}

type UpdatePermissionRequest struct {
	PermissionID string  `json:"permissionId" validate:"required"`
	Name         string  `json:"name" validate:"required,min=3,max=512,permission_name"`
	Description  *string `json:"description" validate:"omitempty,max=512"`
}

func (r *UpdatePermissionRequest) Validate() error {
	return validateStruct(r)
}

type PermissionRequest struct {
	PermissionID string `json:"permissionId" validate:"required"`
}

func (r *PermissionRequest) Validate() error {
	return validateStruct(r)
}

type CreateRoleRequest struct {
	Name          string   `json:"name" validate:"required,min=3,max=512,permission_name"`
	Description   *string  `json:"description" validate:"omitempty,max=512"`
	PermissionIDs []string `json:"permissionIds" validate:"max=1000,dive,required"`
}

func (r *CreateRoleRequest) Validate() error {
	return validateStruct(r)
}

type UpdateRoleRequest struct {
	RoleID      string  `json:"roleId" validate:"required"`
	Name        string  `json:"name" validate:"required,min=3,max=512,permission_name"`
	Description *string `json:"description" validate:"omitempty,max=512"`
}

func (r *UpdateRoleRequest) Validate() error {
	return validateStruct(r)
}

type RoleRequest struct {
	RoleID string `json:"roleId" validate:"required"`
}

func (r *RoleRequest) Validate() error {
	return validateStruct(r)
}

type RolePermissionRequest struct {
	RoleID       string `json:"roleId" validate:"required"`
	PermissionID string `json:"permissionId" validate:"required"`
}

func (r *RolePermissionRequest) Validate() error {
	return validateStruct(r)
}
