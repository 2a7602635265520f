package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskflow/tracker/internal/core/domain"
	"github.com/taskflow/tracker/internal/core/ports"
)

// TaskHandler handles HTTP requests for task operations. Every handler
// runs behind the Auth middleware and passes the caller's principal down.
type TaskHandler struct {
	service ports.TaskService
}

func NewTaskHandler(service ports.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// List handles GET /tasks.
//
// @Summary      List the caller's tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page index (0-based)"
// @Param        size    query     int     false  "Page size (max 100)"
// @Param        status  query     string  false  "Filter by status"
// @Success      200     {array}   taskResponse
// @Failure      400     {object}  errorResponse
// @Failure      401     {object}  errorResponse
// @Router       /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	page, size := pageParams(c)
	return h.list(c, ports.ListTasksInput{
		Page:   page,
		Size:   size,
		Status: domain.TaskStatus(strings.ToUpper(c.QueryParam("status"))),
	})
}

// Search handles GET /tasks/search.
//
// @Summary      Search the caller's tasks by title or description
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        q     query     string  true   "Keyword"
// @Param        page  query     int     false  "Page index (0-based)"
// @Param        size  query     int     false  "Page size (max 100)"
// @Success      200   {array}   taskResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /tasks/search [get]
func (h *TaskHandler) Search(c echo.Context) error {
	keyword := strings.TrimSpace(c.QueryParam("q"))
	if keyword == "" {
		return fmt.Errorf("%w: q is required", domain.ErrValidation)
	}
	page, size := pageParams(c)
	return h.list(c, ports.ListTasksInput{Page: page, Size: size, Keyword: keyword})
}

// Overdue handles GET /tasks/overdue.
//
// @Summary      List the caller's overdue, not completed tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int  false  "Page index (0-based)"
// @Param        size  query     int  false  "Page size (max 100)"
// @Success      200   {array}   taskResponse
// @Failure      401   {object}  errorResponse
// @Router       /tasks/overdue [get]
func (h *TaskHandler) Overdue(c echo.Context) error {
	page, size := pageParams(c)
	return h.list(c, ports.ListTasksInput{Page: page, Size: size, Overdue: true})
}

func (h *TaskHandler) list(c echo.Context, input ports.ListTasksInput) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	views, err := h.service.List(c.Request().Context(), principal, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskListResponse(views))
}

// Count handles GET /tasks/count.
//
// @Summary      Count the caller's tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  countResponse
// @Failure      401  {object}  errorResponse
// @Router       /tasks/count [get]
func (h *TaskHandler) Count(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	n, err := h.service.Count(c.Request().Context(), principal)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countResponse{Count: n})
}

// Get handles GET /tasks/:id.
//
// @Summary      Get one of the caller's tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  taskResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	view, err := h.service.Get(c.Request().Context(), principal, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponse(view))
}

// Create handles POST /tasks.
//
// @Summary      Create a task owned by the caller
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createTaskRequest  true   "Task details"
// @Success      201              {object}  taskResponse
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Router       /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	idempotencyKey := c.Request().Header.Get("Idempotency-Key")
	view, err := h.service.Create(c.Request().Context(), principal, toCreateInput(req, idempotencyKey))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toTaskResponse(view))
}

// Update handles PUT /tasks/:id.
//
// @Summary      Partially update one of the caller's tasks
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Task ID"
// @Param        body  body      updateTaskRequest  true  "Fields to replace"
// @Success      200   {object}  taskResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req updateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	view, err := h.service.Update(c.Request().Context(), principal, c.Param("id"), toUpdateInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponse(view))
}

// UpdateStatus handles PATCH /tasks/:id/status.
//
// @Summary      Change the status of one of the caller's tasks
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Task ID"
// @Param        body  body      updateStatusRequest  true  "New status"
// @Success      200   {object}  taskResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /tasks/{id}/status [patch]
func (h *TaskHandler) UpdateStatus(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	view, err := h.service.UpdateStatus(c.Request().Context(), principal, c.Param("id"), domain.TaskStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponse(view))
}

// Delete handles DELETE /tasks/:id.
//
// @Summary      Delete one of the caller's tasks
// @Tags         tasks
// @Security     BearerAuth
// @Param        id   path  string  true  "Task ID"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), principal, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
