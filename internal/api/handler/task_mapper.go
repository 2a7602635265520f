package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskflow/tracker/internal/core/domain"
	"github.com/taskflow/tracker/internal/core/ports"
)

// --- Request → Service input ---

func toCreateInput(req createTaskRequest, idempotencyKey string) ports.CreateTaskInput {
	in := ports.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         domain.TaskStatus(req.Status),
		IdempotencyKey: idempotencyKey,
	}
	if req.DueDate != nil {
		in.DueDate = *req.DueDate
	}
	return in
}

func toUpdateInput(req updateTaskRequest) ports.UpdateTaskInput {
	in := ports.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		in.Status = &status
	}
	return in
}

// pageParams reads page and size from the query string. Unparseable values
// fall back to the service defaults instead of failing the request.
func pageParams(c echo.Context) (page, size int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	size, _ = strconv.Atoi(c.QueryParam("size"))
	return page, size
}

// --- Service result → HTTP response ---

func toTaskResponse(v *ports.TaskView) taskResponse {
	return taskResponse{
		ID:            v.ID,
		Title:         v.Title,
		Description:   v.Description,
		Status:        string(v.Status),
		DueDate:       v.DueDate.UTC(),
		CreatedAt:     v.CreatedAt.UTC(),
		OwnerUsername: v.OwnerUsername,
		OwnerID:       v.OwnerID,
	}
}

func toTaskListResponse(views []ports.TaskView) []taskResponse {
	out := make([]taskResponse, len(views))
	for i := range views {
		out[i] = toTaskResponse(&views[i])
	}
	return out
}
