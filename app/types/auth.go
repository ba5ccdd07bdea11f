package types

type SignUpRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,max=128"`
	FirstName string `json:"firstName" validate:"max=255"`
	LastName  string `json:"lastName" validate:"max=255"`
}

func (r *SignUpRequest) Validate() error {
	return validateStruct(r)
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	OrgID    string `json:"orgId" validate:"max=64"`
}

func (r *SignInRequest) Validate() error {
	return validateStruct(r)
}

type SwitchWorkspaceRequest struct {
	OrgID string `json:"orgId" validate:"required,max=64"`
}

func (r *SwitchWorkspaceRequest) Validate() error {
	return validateStruct(r)
}
