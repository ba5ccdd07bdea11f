package service

import (
	"context"

	"github.com/vibast-solutions/ms-go-console/app/auth"
	"github.com/vibast-solutions/ms-go-console/app/rpcerr"
	"github.com/vibast-solutions/ms-go-console/app/support"
	"github.com/vibast-solutions/ms-go-console/app/types"

	"github.com/sirupsen/logrus"
)

var ErrSupportDisabled = rpcerr.New(rpcerr.CodePreconditionFailed, "Support tickets are not available on this installation")

type TicketSender interface {
	Enabled() bool
	CreateTicket(ctx context.Context, ticket *support.Ticket) error
}

type SupportService interface {
	CreateTicket(ctx context.Context, caller *auth.Caller, req *types.CreateTicketRequest) error
}

type supportService struct {
	sender TicketSender
}

func NewSupportService(sender TicketSender) SupportService {
	return &supportService{sender: sender}
}

func (s *supportService) CreateTicket(ctx context.Context, caller *auth.Caller, req *types.CreateTicketRequest) error {
	if !s.sender.Enabled() {
		return ErrSupportDisabled
	}

	err := s.sender.CreateTicket(ctx, &support.Ticket{
		Severity:    req.Severity,
		IssueType:   req.IssueType,
		Message:     req.Message,
		Email:       caller.Email,
		WorkspaceID: caller.WorkspaceID,
		OrgID:       caller.OrgID,
	})
	if err != nil {
		return rpcerr.Internal("create the support ticket", err)
	}

	logrus.WithFields(logrus.Fields{
		"workspace_id": caller.WorkspaceID,
		"severity":     req.Severity,
		"issue_type":   req.IssueType,
	}).Info("Support ticket created")
	return nil
}
