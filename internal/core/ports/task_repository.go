package ports

import (
	"context"
	"time"

	"github.com/taskhub/taskhub-api/internal/core/domain"
)

// ListTasksFilter carries the query parameters for listing tasks.
// OwnerID is always set by the service layer for non-admin principals.
type ListTasksFilter struct {
	OwnerID       string            // empty = all owners (admin)
	Status        domain.TaskStatus // optional
	ExpiresBefore *time.Time        // optional: expiration_date <= ExpiresBefore
	Page          int               // 1-based
	Limit         int
}

// TaskRepository defines persistence operations for tasks and their change log.
type TaskRepository interface {
	Create(ctx context.Context, t *domain.Task) (*domain.Task, error)
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	// Update replaces the mutable fields of the stored task with those of t.
	Update(ctx context.Context, t *domain.Task) error
	// Delete removes the task and its change log.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListTasksFilter) ([]*domain.Task, int64, error)
	AppendChanges(ctx context.Context, changes []domain.Change) error
	// ListChanges returns the change log of a task, newest first.
	ListChanges(ctx context.Context, taskID string) ([]domain.Change, error)
}

// IdempotencyStore remembers which resource a client-supplied key produced.
// A key is claimed before the resource is created, so concurrent requests
// carrying the same key cannot both create it.
type IdempotencyStore interface {
	// Claim reserves key. When the key is already taken, claimed is false and
	// id is the stored resource id, or empty while the first request is
	// still running.
	Claim(ctx context.Context, scope, key string) (id string, claimed bool, err error)
	// Complete records the resource id for a claimed key.
	Complete(ctx context.Context, scope, key, id string) error
	// Release drops an unfinished claim so the key can be retried.
	Release(ctx context.Context, scope, key string) error
}
