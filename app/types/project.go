package types

const DefaultBranch = "main"

type CreateProjectRequest struct {
	Name             string  `json:"name" validate:"required,min=1,max=50"`
	Slug             string  `json:"slug" validate:"required,min=1,max=64,slug"`
	GitRepositoryURL *string `json:"gitRepositoryUrl" validate:"omitempty,url,max=500"`
	DefaultBranch    string  `json:"defaultBranch" validate:"omitempty,max=255"`
}

func (r *CreateProjectRequest) Validate() error {
	if r.DefaultBranch == "" {
		r.DefaultBranch = DefaultBranch
	}
	return validateStruct(r)
}

type ProjectRequest struct {
	ProjectID string `json:"projectId" validate:"required"`
}

func (r *ProjectRequest) Validate() error {
	return validateStruct(r)
}

type UpdateProjectDeleteProtectionRequest struct {
	ProjectID string `json:"projectId" validate:"required"`
	Enabled   *bool  `json:"enabled" validate:"required"`
}

func (r *UpdateProjectDeleteProtectionRequest) Validate() error {
	return validateStruct(r)
}

type CreateDeploymentRequest struct {
	ProjectID    string  `json:"projectId" validate:"required"`
	Environment  string  `json:"environment" validate:"required,oneof=production preview"`
	Branch       string  `json:"branch" validate:"omitempty,max=255"`
	GitCommitSHA *string `json:"gitCommitSha" validate:"omitempty,hexadecimal,max=40"`
}

func (r *CreateDeploymentRequest) Validate() error {
	return validateStruct(r)
}

type DeploymentRequest struct {
	DeploymentID string `json:"deploymentId" validate:"required"`
}

func (r *DeploymentRequest) Validate() error {
	return validateStruct(r)
}
