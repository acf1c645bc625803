package domain

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus represents the progress state of a task.
type TaskStatus string

const (
	StatusToDo       TaskStatus = "TO_DO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusCompleted  TaskStatus = "COMPLETED"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Task is a unit of work owned by exactly one principal.
type Task struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	Status         TaskStatus `json:"status"`
	OwnerID        string     `json:"owner_id"`
	IsFavorite     bool       `json:"is_favorite"`
}

// Validate checks the invariants of a task before it is stored.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, t.Status)
	}
	if t.OwnerID == "" {
		return fmt.Errorf("%w: task owner is required", ErrValidation)
	}
	if t.ExpirationDate != nil && truncateDay(*t.ExpirationDate).Before(truncateDay(t.CreatedAt)) {
		return fmt.Errorf("%w: expiration_date cannot be before the creation date", ErrValidation)
	}
	return nil
}

// TaskUpdate carries the optional fields of a task update.
type TaskUpdate struct {
	Title          *string
	Description    *string
	ExpirationDate *time.Time
	Status         *TaskStatus
	IsFavorite     *bool
}

// Apply mutates t with the set fields of u and returns one Change per field
// whose value actually differs.
func (u TaskUpdate) Apply(t *Task, at time.Time) []Change {
	var changes []Change
	record := func(field, oldValue, newValue string) {
		if oldValue == newValue {
			return
		}
		changes = append(changes, Change{
			TaskID:    t.ID,
			Timestamp: at,
			Field:     field,
			OldValue:  oldValue,
			NewValue:  newValue,
		})
	}

	if u.Title != nil {
		record("title", t.Title, *u.Title)
		t.Title = *u.Title
	}
	if u.Description != nil {
		record("description", t.Description, *u.Description)
		t.Description = *u.Description
	}
	if u.ExpirationDate != nil {
		record("expiration_date", formatDate(t.ExpirationDate), formatDate(u.ExpirationDate))
		d := *u.ExpirationDate
		t.ExpirationDate = &d
	}
	if u.Status != nil {
		record("status", string(t.Status), string(*u.Status))
		t.Status = *u.Status
	}
	if u.IsFavorite != nil {
		record("is_favorite", fmt.Sprint(t.IsFavorite), fmt.Sprint(*u.IsFavorite))
		t.IsFavorite = *u.IsFavorite
	}
	return changes
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}
