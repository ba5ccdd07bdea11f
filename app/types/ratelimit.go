package types

type CreateNamespaceRequest struct {
	Name string `json:"name" validate:"required,min=1,max=50,ratelimit_identifier"`
}

func (r *CreateNamespaceRequest) Validate() error {
	return validateStruct(r)
}

type NamespaceRequest struct {
	NamespaceID string `json:"namespaceId" validate:"required"`
}

func (r *NamespaceRequest) Validate() error {
	return validateStruct(r)
}

type UpdateNamespaceNameRequest struct {
	NamespaceID string `json:"namespaceId" validate:"required"`
	Name        string `json:"name" validate:"required,min=1,max=50,ratelimit_identifier"`
}

func (r *UpdateNamespaceNameRequest) Validate() error {
	return validateStruct(r)
}

type CreateOverrideRequest struct {
	NamespaceID string `json:"namespaceId" validate:"required"`
	Identifier  string `json:"identifier" validate:"required,min=2,max=250,ratelimit_identifier"`
	Limit       *int64 `json:"limit" validate:"required,min=0,max=10000000"`
	Duration    int64  `json:"duration" validate:"required,min=1000,max=86400000"`
	Async       *bool  `json:"async"`
}

func (r *CreateOverrideRequest) Validate() error {
	return validateStruct(r)
}

type UpdateOverrideRequest struct {
	OverrideID string `json:"overrideId" validate:"required"`
	Limit      *int64 `json:"limit" validate:"required,min=0,max=10000000"`
	Duration   int64  `json:"duration" validate:"required,min=1000,max=86400000"`
	Async      *bool  `json:"async"`
}

func (r *UpdateOverrideRequest) Validate() error {
	return validateStruct(r)
}

type OverrideRequest struct {
	OverrideID string `json:"overrideId" validate:"required"`
}

func (r *OverrideRequest) Validate() error {
	return validateStruct(r)
}
