package domain

import "time"

// Change is one audit entry describing a field modified on a task.
type Change struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Timestamp time.Time `json:"timestamp"`
	Field     string    `json:"field_changed"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
}
