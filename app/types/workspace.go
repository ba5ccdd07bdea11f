package types

type CreateWorkspaceRequest struct {
	Name string `json:"name" validate:"required,min=3,max=50"`
	Slug string `json:"slug" validate:"required,min=3,max=64,slug"`
}

func (r *CreateWorkspaceRequest) Validate() error {
	return validateStruct(r)
}

type UpdateWorkspaceNameRequest struct {
	Name string `json:"name" validate:"required,min=3,max=50"`
}

func (r *UpdateWorkspaceNameRequest) Validate() error {
	return validateStruct(r)
}
