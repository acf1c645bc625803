package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskhub/taskhub-api/internal/core/domain"
)

// PrincipalRepository implements ports.PrincipalRepository using MongoDB.
// Users reference their role by id; the role name is joined on read.
type PrincipalRepository struct {
	col   *mongo.Collection
	roles *RoleRepository
	now   func() time.Time
}

func NewPrincipalRepository(db *mongo.Database, roles *RoleRepository) *PrincipalRepository {
	return &PrincipalRepository{
		col:   db.Collection(collectionUsers),
		roles: roles,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	RoleID       string             `bson:"role_id"`
	IsActive     bool               `bson:"is_active"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

// toPrincipal maps a stored user to the domain value. The password hash is
// deliberately dropped.
func toPrincipal(d userDocument, roleName string) *domain.Principal {
	return &domain.Principal{
		ID:        d.ID.Hex(),
		Email:     d.Email,
		Role:      domain.Role{ID: domain.RoleID(d.RoleID), Name: roleName},
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func (r *PrincipalRepository) findOne(ctx context.Context, filter bson.M) (*userDocument, error) {
	var d userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&d); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &d, nil
}

func (r *PrincipalRepository) hydrate(ctx context.Context, docs ...userDocument) ([]*domain.Principal, error) {
	seen := make(map[string]struct{})
	ids := make([]string, 0, 2)
	for _, d := range docs {
		if _, ok := seen[d.RoleID]; !ok {
			seen[d.RoleID] = struct{}{}
			ids = append(ids, d.RoleID)
		}
	}
	names, err := r.roles.names(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Principal, 0, len(docs))
	for _, d := range docs {
		out = append(out, toPrincipal(d, names[d.RoleID]))
	}
	return out, nil
}

func (r *PrincipalRepository) one(ctx context.Context, filter bson.M) (*domain.Principal, error) {
	d, err := r.findOne(ctx, filter)
	if err != nil {
		return nil, err
	}
	ps, err := r.hydrate(ctx, *d)
	if err != nil {
		return nil, err
	}
	return ps[0], nil
}

func (r *PrincipalRepository) FindByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.one(ctx, bson.M{"email": email})
}

func (r *PrincipalRepository) FindByID(ctx context.Context, id string) (*domain.Principal, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.one(ctx, bson.M{"_id": oid})
}

func (r *PrincipalRepository) Credential(ctx context.Context, id string) (*domain.Credential, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	d, err := r.findOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}
	return &domain.Credential{PrincipalID: d.ID.Hex(), Email: d.Email, PasswordHash: d.PasswordHash}, nil
}

func (r *PrincipalRepository) Create(ctx context.Context, email, passwordHash string, roleID domain.RoleID) (*domain.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := r.now()
	doc := userDocument{
		Email:        email,
		PasswordHash: passwordHash,
		RoleID:       string(roleID),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}

	ps, err := r.hydrate(ctx, doc)
	if err != nil {
		return nil, err
	}
	return ps[0], nil
}

func (r *PrincipalRepository) Update(ctx context.Context, id string, update domain.PrincipalUpdate) (*domain.Principal, error) {
	set := bson.M{"updated_at": r.now()}
	if update.Email != nil {
		set["email"] = *update.Email
	}
	if update.PasswordHash != nil {
		set["password_hash"] = *update.PasswordHash
	}
	if update.RoleID != nil {
		set["role_id"] = string(*update.RoleID)
	}
	return r.findAndSet(ctx, id, set)
}

func (r *PrincipalRepository) SetActive(ctx context.Context, id string, active bool) (*domain.Principal, error) {
	return r.findAndSet(ctx, id, bson.M{"is_active": active, "updated_at": r.now()})
}

func (r *PrincipalRepository) findAndSet(ctx context.Context, id string, set bson.M) (*domain.Principal, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d userDocument
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrPrincipalNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	ps, err := r.hydrate(ctx, d)
	if err != nil {
		return nil, err
	}
	return ps[0], nil
}

func (r *PrincipalRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrPrincipalNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPrincipalNotFound
	}
	return nil
}

func (r *PrincipalRepository) List(ctx context.Context) ([]*domain.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return r.hydrate(ctx, docs...)
}

func (r *PrincipalRepository) CountByRole(ctx context.Context, roleID domain.RoleID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"role_id": string(roleID)})
	if err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return n, nil
}
