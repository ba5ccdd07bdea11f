package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vibast-solutions/ms-go-console/app/rpcerr"
	"github.com/vibast-solutions/ms-go-console/app/service"
	"github.com/vibast-solutions/ms-go-console/app/support"
	"github.com/vibast-solutions/ms-go-console/app/types"
)

type fakeSender struct {
	enabled bool
	err     error
	tickets []*support.Ticket
}

func (f *fakeSender) Enabled() bool { return f.enabled }

func (f *fakeSender) CreateTicket(_ context.Context, ticket *support.Ticket) error {
	f.tickets = append(f.tickets, ticket)
	return f.err
}

func ticketRequest() *types.CreateTicketRequest {
	return &types.CreateTicketRequest{Severity: "p2", IssueType: "bug", Message: "keys page is blank"}
}

func TestSupportService_Disabled(t *testing.T) {
	sender := &fakeSender{}
	svc := service.NewSupportService(sender)

	err := svc.CreateTicket(context.Background(), userCaller(), ticketRequest())
	if !errors.Is(err, service.ErrSupportDisabled) {
		t.Fatalf("expected ErrSupportDisabled, got %v", err)
	}
	if len(sender.tickets) != 0 {
		t.Fatalf("expected no ticket to be sent")
	}
}

func TestSupportService_SendsCallerContext(t *testing.T) {
	sender := &fakeSender{enabled: true}
	svc := service.NewSupportService(sender)

	if err := svc.CreateTicket(context.Background(), userCaller(), ticketRequest()); err != nil {
		t.Fatalf("create ticket failed: %v", err)
	}
	if len(sender.tickets) != 1 {
		t.Fatalf("expected one ticket, got %d", len(sender.tickets))
	}
	got := sender.tickets[0]
	if got.Email != "jane@example.com" || got.WorkspaceID != "ws_1" || got.OrgID != "org_1" || got.Severity != "p2" {
		t.Fatalf("unexpected ticket: %+v", got)
	}
}

func TestSupportService_SenderErrorIsInternal(t *testing.T) {
	sender := &fakeSender{enabled: true, err: errors.New("upstream 502")}
	svc := service.NewSupportService(sender)

	err := svc.CreateTicket(context.Background(), userCaller(), ticketRequest())
	if rpcerr.CodeOf(err) != rpcerr.CodeInternalServerError {
		t.Fatalf("expected internal error, got %v", err)
	}
}
