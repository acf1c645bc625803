package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskhub/taskhub-api/internal/core/domain"
	"github.com/taskhub/taskhub-api/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	maxPage          = 100000

	idempotencyScopeTasks = "tasks"
)

type taskService struct {
	repo        ports.TaskRepository
	idempotency ports.IdempotencyStore
	log         zerolog.Logger
	now         func() time.Time
}

// NewTaskService returns a TaskService. idempotency may be nil, in which case
// Idempotency-Key headers are ignored.
func NewTaskService(repo ports.TaskRepository, idempotency ports.IdempotencyStore, log zerolog.Logger) ports.TaskService {
	return &taskService{
		repo:        repo,
		idempotency: idempotency,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a task owned by actor. A repeated idempotency key from the
// same actor returns the task created the first time; a repeat that arrives
// while the first request is still running gets ErrIdempotencyInProgress.
func (s *taskService) Create(ctx context.Context, actor domain.Principal, input ports.CreateTaskInput) (*ports.CreateTaskResult, error) {
	status := input.Status
	if status == "" {
		status = domain.StatusToDo
	}

	task := &domain.Task{
		Title:          input.Title,
		Description:    input.Description,
		CreatedAt:      s.now(),
		ExpirationDate: input.ExpirationDate,
		Status:         status,
		OwnerID:        actor.ID,
		IsFavorite:     input.IsFavorite,
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	key := input.IdempotencyKey
	claimed, existing, err := s.claim(ctx, actor, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &ports.CreateTaskResult{Task: existing, AlreadyExisted: true}, nil
	}

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		if claimed {
			if relErr := s.idempotency.Release(ctx, scopeFor(actor), key); relErr != nil {
				s.log.Warn().Err(relErr).Str("idempotency_key", key).Msg("idempotency release failed")
			}
		}
		return nil, fmt.Errorf("create task: %w", err)
	}

	if claimed {
		if err := s.idempotency.Complete(ctx, scopeFor(actor), key, created.ID); err != nil {
			s.log.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency complete failed")
		}
	}

	s.log.Info().Str("task_id", created.ID).Str("owner_id", created.OwnerID).Msg("task created")
	return &ports.CreateTaskResult{Task: created}, nil
}

// claim reserves key for this request. It returns the earlier task when the
// key was already used, and claimed=false when no key applies or the store
// is unreachable.
func (s *taskService) claim(ctx context.Context, actor domain.Principal, key string) (claimed bool, existing *domain.Task, err error) {
	if key == "" || s.idempotency == nil {
		return false, nil, nil
	}
	id, ok, err := s.idempotency.Claim(ctx, scopeFor(actor), key)
	switch {
	case err != nil:
		s.log.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency claim failed, creating anyway")
		return false, nil, nil
	case ok:
		return true, nil, nil
	case id == "":
		return false, nil, domain.ErrIdempotencyInProgress
	}

	task, err := s.repo.FindByID(ctx, id)
	if err == nil && domain.CanAccess(actor, task.OwnerID) {
		s.log.Info().Str("idempotency_key", key).Str("task_id", id).Msg("idempotent replay")
		return false, task, nil
	}
	// The earlier task is gone; this request takes the key over.
	return true, nil, nil
}

func scopeFor(actor domain.Principal) string {
	return idempotencyScopeTasks + ":" + actor.ID
}

// Get returns the task if actor may see it. Tasks the actor may not access
// are reported as not found.
func (s *taskService) Get(ctx context.Context, actor domain.Principal, id string) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	if !domain.CanAccess(actor, task.OwnerID) {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func (s *taskService) Update(ctx context.Context, actor domain.Principal, id string, update domain.TaskUpdate) (*domain.Task, error) {
	task, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if update.Status != nil && !update.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, *update.Status)
	}

	changes := update.Apply(task, s.now())
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return task, nil
	}

	if err := s.repo.Update(ctx, task); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	s.recordChanges(ctx, changes)
	return task, nil
}

func (s *taskService) recordChanges(ctx context.Context, changes []domain.Change) {
	for i := range changes {
		changes[i].ID = uuid.NewString()
	}
	if err := s.repo.AppendChanges(ctx, changes); err != nil {
		s.log.Warn().Err(err).Str("task_id", changes[0].TaskID).Msg("change log append failed")
	}
}

func (s *taskService) Delete(ctx context.Context, actor domain.Principal, id string) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return domain.ErrTaskNotFound
		}
		return fmt.Errorf("delete task: %w", err)
	}
	s.log.Info().Str("task_id", id).Str("actor_id", actor.ID).Msg("task deleted")
	return nil
}

// List returns a page of tasks. Non-admin actors only ever see their own.
func (s *taskService) List(ctx context.Context, actor domain.Principal, input ports.ListTasksInput) (*ports.ListTasksResult, error) {
	if input.Status != "" && !input.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, input.Status)
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		return nil, fmt.Errorf("%w: page must be at most %d", domain.ErrValidation, maxPage)
	}
	limit := input.Limit
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	filter := ports.ListTasksFilter{
		Status:        input.Status,
		ExpiresBefore: input.ExpiresBefore,
		Page:          page,
		Limit:         limit,
	}
	if !actor.IsAdmin() {
		filter.OwnerID = actor.ID
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return &ports.ListTasksResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// ToggleFavorite flips is_favorite and records the change.
func (s *taskService) ToggleFavorite(ctx context.Context, actor domain.Principal, id string) (*domain.Task, error) {
	task, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	flipped := !task.IsFavorite
	return s.Update(ctx, actor, task.ID, domain.TaskUpdate{IsFavorite: &flipped})
}

func (s *taskService) Changes(ctx context.Context, actor domain.Principal, id string) ([]domain.Change, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	changes, err := s.repo.ListChanges(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	return changes, nil
}
