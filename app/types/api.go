package types

import "strings"

type CreateAPIRequest struct {
	Name string `json:"name" validate:"required,min=3,max=50"`
}

func (r *CreateAPIRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return validateStruct(r)
}

type APIRequest struct {
	APIID string `json:"apiId" validate:"required"`
}

func (r *APIRequest) Validate() error {
	return validateStruct(r)
}

type UpdateAPINameRequest struct {
	APIID string `json:"apiId" validate:"required"`
	Name  string `json:"name" validate:"required,min=3,max=50"`
}

func (r *UpdateAPINameRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return validateStruct(r)
}

type UpdateAPIDeleteProtectionRequest struct {
	APIID   string `json:"apiId" validate:"required"`
	Enabled *bool  `json:"enabled" validate:"required"`
}

func (r *UpdateAPIDeleteProtectionRequest) Validate() error {
	return validateStruct(r)
}

type UpdateAPIIPWhitelistRequest struct {
	APIID       string   `json:"apiId" validate:"required"`
	IPWhitelist []string `json:"ipWhitelist" validate:"max=100,dive,ip|cidr"`
}

func (r *UpdateAPIIPWhitelistRequest) Validate() error {
	for i, ip := range r.IPWhitelist {
		r.IPWhitelist[i] = strings.TrimSpace(ip)
	}
	return validateStruct(r)
}
