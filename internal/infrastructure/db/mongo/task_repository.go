package mongo

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskhub/taskhub-api/internal/core/domain"
	"github.com/taskhub/taskhub-api/internal/core/ports"
)

// TaskRepository implements ports.TaskRepository using MongoDB. The change
// log lives in its own collection keyed by task id.
type TaskRepository struct {
	col     *mongo.Collection
	changes *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{
		col:     db.Collection(collectionTasks),
		changes: db.Collection(collectionChanges),
	}
}

type taskDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Title          string             `bson:"title"`
	Description    string             `bson:"description"`
	CreatedAt      time.Time          `bson:"created_at"`
	ExpirationDate *time.Time         `bson:"expiration_date,omitempty"`
	Status         string             `bson:"status"`
	OwnerID        string             `bson:"owner_id"`
	IsFavorite     bool               `bson:"is_favorite"`
}

func toTask(d taskDocument) *domain.Task {
	t := &domain.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		CreatedAt:   d.CreatedAt.UTC(),
		Status:      domain.TaskStatus(d.Status),
		OwnerID:     d.OwnerID,
		IsFavorite:  d.IsFavorite,
	}
	if d.ExpirationDate != nil {
		exp := d.ExpirationDate.UTC()
		t.ExpirationDate = &exp
	}
	return t
}

func fromTask(t *domain.Task) taskDocument {
	return taskDocument{
		Title:          t.Title,
		Description:    t.Description,
		CreatedAt:      t.CreatedAt,
		ExpirationDate: t.ExpirationDate,
		Status:         string(t.Status),
		OwnerID:        t.OwnerID,
		IsFavorite:     t.IsFavorite,
	}
}

// Create inserts a new task document and returns it with its assigned id.
func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := fromTask(t)
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return toTask(doc), nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d taskDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return toTask(d), nil
}

func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	oid, ok := objectID(t.ID)
	if !ok {
		return domain.ErrTaskNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{
		"title":       t.Title,
		"description": t.Description,
		"status":      string(t.Status),
		"is_favorite": t.IsFavorite,
	}
	update := bson.M{"$set": set}
	if t.ExpirationDate != nil {
		set["expiration_date"] = *t.ExpirationDate
	} else {
		update["$unset"] = bson.M{"expiration_date": ""}
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// Delete removes the task and then its change log.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrTaskNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTaskNotFound
	}
	if _, err := r.changes.DeleteMany(ctx, bson.M{"task_id": id}); err != nil {
		return fmt.Errorf("delete task changes: %w", err)
	}
	return nil
}

// taskFilter translates the list parameters into a query document.
func taskFilter(f ports.ListTasksFilter) bson.M {
	filter := bson.M{}
	if f.OwnerID != "" {
		filter["owner_id"] = f.OwnerID
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if f.ExpiresBefore != nil {
		filter["expiration_date"] = bson.M{"$lte": f.ExpiresBefore.UTC()}
	}
	return filter
}

// pageSkip is the number of documents before page. It saturates instead of
// wrapping negative for pages past the end of any collection.
func pageSkip(page, limit int) int64 {
	if page < 1 || limit < 1 {
		return 0
	}
	before := int64(page) - 1
	if before > math.MaxInt64/int64(limit) {
		return math.MaxInt64
	}
	return before * int64(limit)
}

// List returns one page of tasks, newest first, plus the total match count.
func (r *TaskRepository) List(ctx context.Context, f ports.ListTasksFilter) ([]*domain.Task, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := taskFilter(f)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(pageSkip(f.Page, f.Limit)).
		SetLimit(int64(f.Limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	var docs []taskDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode tasks: %w", err)
	}

	items := make([]*domain.Task, 0, len(docs))
	for _, d := range docs {
		items = append(items, toTask(d))
	}
	return items, total, nil
}
