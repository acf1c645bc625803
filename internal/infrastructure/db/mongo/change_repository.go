package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskhub/taskhub-api/internal/core/domain"
)

type changeDocument struct {
	ID        string    `bson:"_id"`
	TaskID    string    `bson:"task_id"`
	Timestamp time.Time `bson:"timestamp"`
	Field     string    `bson:"field_changed"`
	OldValue  string    `bson:"old_value"`
	NewValue  string    `bson:"new_value"`
}

func toChange(d changeDocument) domain.Change {
	return domain.Change{
		ID:        d.ID,
		TaskID:    d.TaskID,
		Timestamp: d.Timestamp.UTC(),
		Field:     d.Field,
		OldValue:  d.OldValue,
		NewValue:  d.NewValue,
	}
}

// AppendChanges persists change log entries to the task_changes audit collection.
func (r *TaskRepository) AppendChanges(ctx context.Context, changes []domain.Change) error {
	if len(changes) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	docs := make([]interface{}, 0, len(changes))
	for _, c := range changes {
		docs = append(docs, changeDocument{
			ID:        c.ID,
			TaskID:    c.TaskID,
			Timestamp: c.Timestamp.UTC(),
			Field:     c.Field,
			OldValue:  c.OldValue,
			NewValue:  c.NewValue,
		})
	}
	if _, err := r.changes.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert changes: %w", err)
	}
	return nil
}

// ListChanges returns the change log of a task, newest first.
func (r *TaskRepository) ListChanges(ctx context.Context, taskID string) ([]domain.Change, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cur, err := r.changes.Find(ctx, bson.M{"task_id": taskID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	var docs []changeDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode changes: %w", err)
	}

	out := make([]domain.Change, 0, len(docs))
	for _, d := range docs {
		out = append(out, toChange(d))
	}
	return out, nil
}
