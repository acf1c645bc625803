package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/taskhub-api/internal/core/domain"
	"github.com/taskhub/taskhub-api/internal/core/ports"
)

// --- Request → Service input ---

func parseDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("%s must be a date (YYYY-MM-DD)", field))
	}
	return &d, nil
}

func toCreateTaskInput(req createTaskRequest, idempotencyKey string) (ports.CreateTaskInput, error) {
	exp, err := parseDate("expiration_date", req.ExpirationDate)
	if err != nil {
		return ports.CreateTaskInput{}, err
	}
	return ports.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		ExpirationDate: exp,
		Status:         domain.TaskStatus(req.Status),
		IsFavorite:     req.IsFavorite,
		IdempotencyKey: idempotencyKey,
	}, nil
}

func toTaskUpdate(req updateTaskRequest) (domain.TaskUpdate, error) {
	update := domain.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		IsFavorite:  req.IsFavorite,
	}
	if req.Status != nil {
		s := domain.TaskStatus(*req.Status)
		update.Status = &s
	}
	if req.ExpirationDate != nil {
		exp, err := parseDate("expiration_date", *req.ExpirationDate)
		if err != nil {
			return domain.TaskUpdate{}, err
		}
		update.ExpirationDate = exp
	}
	return update, nil
}

func toListTasksInput(q listTasksQuery) (ports.ListTasksInput, error) {
	exp, err := parseDate("expiration_date", q.ExpirationDate)
	if err != nil {
		return ports.ListTasksInput{}, err
	}
	return ports.ListTasksInput{
		Status:        domain.TaskStatus(q.Status),
		ExpiresBefore: exp,
		Page:          q.Page,
		Limit:         q.Limit,
	}, nil
}

func toUpdateUserInput(req updateUserRequest) ports.UpdateUserInput {
	in := ports.UpdateUserInput{Email: req.Email, Password: req.Password}
	if req.RoleID != nil {
		id := domain.RoleID(*req.RoleID)
		in.RoleID = &id
	}
	return in
}

// --- Service result → HTTP response ---

func toRoleResponse(r domain.Role) roleResponse {
	return roleResponse{ID: string(r.ID), Name: r.Name}
}

func toRolesResponse(roles []domain.Role) []roleResponse {
	out := make([]roleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, toRoleResponse(r))
	}
	return out
}

func toUserResponse(p *domain.Principal) userResponse {
	return userResponse{
		ID:        p.ID,
		Email:     p.Email,
		Role:      toRoleResponse(p.Role),
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
}

func toUsersResponse(ps []*domain.Principal) []userResponse {
	out := make([]userResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toUserResponse(p))
	}
	return out
}

func toTaskResponse(t *domain.Task) taskResponse {
	resp := taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		CreatedAt:   t.CreatedAt.UTC(),
		Status:      string(t.Status),
		OwnerID:     t.OwnerID,
		IsFavorite:  t.IsFavorite,
		Links: taskLinks{
			Self:    "/tasks/" + t.ID,
			Changes: "/tasks/" + t.ID + "/changes",
		},
	}
	if t.ExpirationDate != nil {
		d := t.ExpirationDate.UTC().Format(time.DateOnly)
		resp.ExpirationDate = &d
	}
	return resp
}

func toListTasksResponse(r *ports.ListTasksResult) listTasksResponse {
	data := make([]taskResponse, 0, len(r.Items))
	for _, t := range r.Items {
		data = append(data, toTaskResponse(t))
	}
	return listTasksResponse{
		Data: data,
		Pagination: paginationResponse{
			Total:      r.Total,
			Page:       r.Page,
			Limit:      r.Limit,
			TotalPages: r.TotalPages,
		},
	}
}

func toChangesResponse(changes []domain.Change) []changeResponse {
	out := make([]changeResponse, 0, len(changes))
	for _, c := range changes {
		out = append(out, changeResponse{
			ID:        c.ID,
			TaskID:    c.TaskID,
			Timestamp: c.Timestamp.UTC(),
			Field:     c.Field,
			OldValue:  c.OldValue,
			NewValue:  c.NewValue,
		})
	}
	return out
}
