package controller

import (
	"github.com/vibast-solutions/ms-go-console/app/service"

	"github.com/labstack/echo/v4"
)

type AuditController struct {
	audit service.AuditService
}

func NewAuditController(audit service.AuditService) *AuditController {
	return &AuditController{audit: audit}
}

func (c *AuditController) List(ctx echo.Context) error {
	return query(ctx, c.audit.List)
}
