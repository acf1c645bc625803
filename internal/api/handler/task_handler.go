package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/taskhub-api/internal/api/metrics"
	"github.com/taskhub/taskhub-api/internal/core/ports"
)

// TaskHandler handles HTTP requests for task operations.
type TaskHandler struct {
	service ports.TaskService
}

func NewTaskHandler(service ports.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// Create handles POST /tasks.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createTaskRequest  true   "Task"
// @Success      201              {object}  taskResponse
// @Success      200              {object}  taskResponse  "Replayed idempotent request"
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      409              {object}  errorResponse  "Same Idempotency-Key still in progress"
// @Failure      422              {object}  errorResponse
// @Router       /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	var req createTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := toCreateTaskInput(req, c.Request().Header.Get("Idempotency-Key"))
	if err != nil {
		return err
	}

	res, err := h.service.Create(c.Request().Context(), p, in)
	if err != nil {
		return err
	}
	if res.AlreadyExisted {
		return c.JSON(http.StatusOK, toTaskResponse(res.Task))
	}

	metrics.TasksCreatedTotal.WithLabelValues(string(res.Task.Status)).Inc()
	c.Response().Header().Set(echo.HeaderLocation, "/tasks/"+res.Task.ID)
	return c.JSON(http.StatusCreated, toTaskResponse(res.Task))
}

// List handles GET /tasks.
//
// @Summary      List tasks
// @Description  Administrators see every task; other users only their own.
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        status           query     string  false  "TO_DO, IN_PROGRESS or COMPLETED"
// @Param        expiration_date  query     string  false  "Only tasks expiring on or before this date (YYYY-MM-DD)"
// @Param        page             query     int     false  "Page number (default 1)"
// @Param        limit            query     int     false  "Page size (default 20, max 100)"
// @Success      200              {object}  listTasksResponse
// @Failure      401              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	var q listTasksQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}
	in, err := toListTasksInput(q)
	if err != nil {
		return err
	}

	res, err := h.service.List(c.Request().Context(), p, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListTasksResponse(res))
}

// Get handles GET /tasks/:id.
//
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  taskResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	task, err := h.service.Get(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponse(task))
}

// Update handles PUT /tasks/:id.
//
// @Summary      Update a task
// @Description  Partial update; every changed field is recorded in the change log.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Task id"
// @Param        body  body      updateTaskRequest  true  "Fields to change"
// @Success      200   {object}  taskResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	var req updateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	update, err := toTaskUpdate(req)
	if err != nil {
		return err
	}

	task, err := h.service.Update(c.Request().Context(), p, c.Param("id"), update)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponse(task))
}

// Delete handles DELETE /tasks/:id.
//
// @Summary      Delete a task
// @Tags         tasks
// @Security     BearerAuth
// @Param        id   path  string  true  "Task id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), p, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleFavorite handles PATCH /tasks/:id/favorite.
//
// @Summary      Toggle the favorite flag of a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  taskResponse
// @Failure      404  {object}  errorResponse
// @Router       /tasks/{id}/favorite [patch]
func (h *TaskHandler) ToggleFavorite(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	task, err := h.service.ToggleFavorite(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponse(task))
}

// Changes handles GET /tasks/:id/changes.
//
// @Summary      Change log of a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {array}   changeResponse
// @Failure      404  {object}  errorResponse
// @Router       /tasks/{id}/changes [get]
func (h *TaskHandler) Changes(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	changes, err := h.service.Changes(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toChangesResponse(changes))
}
