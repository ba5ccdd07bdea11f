package types

type CreateTicketRequest struct {
	Severity  string `json:"severity" validate:"required,oneof=p1 p2 p3 p4"`
	IssueType string `json:"issueType" validate:"required,oneof=bug feature security payment question"`
	Message   string `json:"message" validate:"required,min=1,max=10000"`
}

func (r *CreateTicketRequest) Validate() error {
	return validateStruct(r)
}
