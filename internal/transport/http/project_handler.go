package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/njprem/authcore-api/internal/service"
	"github.com/njprem/authcore-api/internal/util"
)

type ProjectHandler struct {
	projects *service.ProjectService
}

// RegisterProjects mounts the per-user project documents behind RequireAuth.
func RegisterProjects(e *echo.Echo, auth *service.AuthService, projects *service.ProjectService) {
	handler := &ProjectHandler{projects: projects}

	group := e.Group("/api/v1/projects", RequireAuth(auth))
	group.GET("", handler.list)
	group.GET("/:id", handler.get)
	group.PUT("/:id", handler.save)
	group.DELETE("/:id", handler.delete)
}

// list godoc
// @Summary List the caller's projects
// @Tags Projects
// @Security BearerAuth
// @Produce json
// @Success 200 {object} ProjectListResponse
// @Router /api/v1/projects [get]
func (h *ProjectHandler) list(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	projects, err := h.projects.List(c.Request().Context(), claims.UserID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, ProjectListResponse{Projects: projects})
}

func (h *ProjectHandler) get(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("id must be a valid UUID"))
	}
	project, err := h.projects.Get(c.Request().Context(), claims.UserID, id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, ProjectResponse{Project: *project})
}

// save godoc
// @Summary Create or replace a project
// @Tags Projects
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Project id"
// @Param request body ProjectRequest true "Project document"
// @Success 200 {object} ProjectResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/projects/{id} [put]
func (h *ProjectHandler) save(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("id must be a valid UUID"))
	}
	var req ProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}
	project, err := h.projects.Save(c.Request().Context(), claims.UserID, id, req.Name, req.Data)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, ProjectResponse{Project: *project})
}

func (h *ProjectHandler) delete(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("id must be a valid UUID"))
	}
	if err := h.projects.Delete(c.Request().Context(), claims.UserID, id); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
