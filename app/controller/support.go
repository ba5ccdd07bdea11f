package controller

import (
	"github.com/vibast-solutions/ms-go-console/app/service"

	"github.com/labstack/echo/v4"
)

type SupportController struct {
	support service.SupportService
}

func NewSupportController(support service.SupportService) *SupportController {
	return &SupportController{support: support}
}

func (c *SupportController) CreateTicket(ctx echo.Context) error {
	return command(ctx, c.support.CreateTicket)
}
