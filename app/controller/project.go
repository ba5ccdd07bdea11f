package controller

import (
	"github.com/vibast-solutions/ms-go-console/app/service"

	"github.com/labstack/echo/v4"
)

// ProjectController serves projects and their deployments.
type ProjectController struct {
	projects service.ProjectService
}

func NewProjectController(projects service.ProjectService) *ProjectController {
	return &ProjectController{projects: projects}
}

func (c *ProjectController) Create(ctx echo.Context) error {
	return query(ctx, c.projects.Create)
}

func (c *ProjectController) List(ctx echo.Context) error {
	return list(ctx, c.projects.List)
}

func (c *ProjectController) UpdateDeleteProtection(ctx echo.Context) error {
	return command(ctx, c.projects.UpdateDeleteProtection)
}

func (c *ProjectController) Delete(ctx echo.Context) error {
	return command(ctx, c.projects.Delete)
}

func (c *ProjectController) CreateDeployment(ctx echo.Context) error {
	return query(ctx, c.projects.CreateDeployment)
}

func (c *ProjectController) ListDeployments(ctx echo.Context) error {
	return query(ctx, c.projects.ListDeployments)
}

func (c *ProjectController) GetDeployment(ctx echo.Context) error {
	return query(ctx, c.projects.GetDeployment)
}
