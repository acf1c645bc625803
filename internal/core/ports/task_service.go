package ports

import (
	"context"
	"time"

	"github.com/taskhub/taskhub-api/internal/core/domain"
)

// CreateTaskInput carries all data needed to create a task.
type CreateTaskInput struct {
	Title          string
	Description    string
	ExpirationDate *time.Time
	Status         domain.TaskStatus
	IsFavorite     bool
	IdempotencyKey string
}

// CreateTaskResult is returned after creating a task.
type CreateTaskResult struct {
	Task *domain.Task
	// AlreadyExisted is true when the Idempotency-Key matched an earlier task.
	AlreadyExisted bool
}

// ListTasksInput carries the list endpoint parameters.
type ListTasksInput struct {
	Status        domain.TaskStatus
	ExpiresBefore *time.Time
	Page          int
	Limit         int
}

// ListTasksResult is a page of tasks.
type ListTasksResult struct {
	Items      []*domain.Task
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// TaskService defines the task use cases. Every operation is checked against
// the authorization policy for the acting principal.
type TaskService interface {
	Create(ctx context.Context, actor domain.Principal, input CreateTaskInput) (*CreateTaskResult, error)
	Get(ctx context.Context, actor domain.Principal, id string) (*domain.Task, error)
	Update(ctx context.Context, actor domain.Principal, id string, update domain.TaskUpdate) (*domain.Task, error)
	Delete(ctx context.Context, actor domain.Principal, id string) error
	List(ctx context.Context, actor domain.Principal, input ListTasksInput) (*ListTasksResult, error)
	ToggleFavorite(ctx context.Context, actor domain.Principal, id string) (*domain.Task, error)
	Changes(ctx context.Context, actor domain.Principal, id string) ([]domain.Change, error)
}
