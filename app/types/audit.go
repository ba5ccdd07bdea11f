package types

const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 100
)

// AuditCursor points at the last entry of a page. Entries of one mutation share
// a time, so the id breaks ties.
type AuditCursor struct {
	Time int64  `json:"time" validate:"min=1"`
	ID   string `json:"id" validate:"required,max=64"`
}

type ListAuditLogsRequest struct {
	Bucket string       `json:"bucket" validate:"omitempty,max=64"`
	Events []string     `json:"events" validate:"max=50,dive,required,max=128"`
	Users  []string     `json:"users" validate:"max=50,dive,required,max=64"`
	Cursor *AuditCursor `json:"cursor"`
	Limit  int          `json:"limit" validate:"omitempty,min=1,max=100"`
}

func (r *ListAuditLogsRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if r.Limit == 0 {
		r.Limit = DefaultAuditLimit
	}
	return nil
}
