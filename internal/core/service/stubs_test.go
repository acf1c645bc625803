package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/taskhub/taskhub-api/internal/core/domain"
	"github.com/taskhub/taskhub-api/internal/core/ports"
)

type storedPrincipal struct {
	principal domain.Principal
	hash      string
}

type stubPrincipalRepo struct {
	mu     sync.Mutex
	roles  *stubRoleRepo
	byID   map[string]*storedPrincipal
	nextID int
	err    error
}

func newStubPrincipalRepo(roles *stubRoleRepo) *stubPrincipalRepo {
	return &stubPrincipalRepo{roles: roles, byID: make(map[string]*storedPrincipal)}
}

func clonePrincipal(p domain.Principal) *domain.Principal {
	clone := p
	return &clone
}

func (r *stubPrincipalRepo) FindByEmail(_ context.Context, email string) (*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, sp := range r.byID {
		if sp.principal.Email == email {
			return clonePrincipal(sp.principal), nil
		}
	}
	return nil, domain.ErrPrincipalNotFound
}

func (r *stubPrincipalRepo) FindByID(_ context.Context, id string) (*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sp, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	return clonePrincipal(sp.principal), nil
}

func (r *stubPrincipalRepo) Credential(_ context.Context, id string) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sp, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	return &domain.Credential{PrincipalID: id, Email: sp.principal.Email, PasswordHash: sp.hash}, nil
}

func (r *stubPrincipalRepo) Create(ctx context.Context, email, hash string, roleID domain.RoleID) (*domain.Principal, error) {
	role, err := r.roles.FindByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sp := range r.byID {
		if sp.principal.Email == email {
			return nil, domain.ErrEmailTaken
		}
	}
	r.nextID++
	now := time.Now().UTC()
	p := domain.Principal{
		ID:        fmt.Sprintf("u%d", r.nextID),
		Email:     email,
		Role:      *role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.byID[p.ID] = &storedPrincipal{principal: p, hash: hash}
	return clonePrincipal(p), nil
}

func (r *stubPrincipalRepo) Update(ctx context.Context, id string, u domain.PrincipalUpdate) (*domain.Principal, error) {
	var role *domain.Role
	if u.RoleID != nil {
		var err error
		if role, err = r.roles.FindByID(ctx, *u.RoleID); err != nil {
			return nil, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sp, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	if u.Email != nil {
		for oid, other := range r.byID {
			if oid != id && other.principal.Email == *u.Email {
				return nil, domain.ErrEmailTaken
			}
		}
		sp.principal.Email = *u.Email
	}
	if u.PasswordHash != nil {
		sp.hash = *u.PasswordHash
	}
	if role != nil {
		sp.principal.Role = *role
	}
	return clonePrincipal(sp.principal), nil
}

func (r *stubPrincipalRepo) SetActive(_ context.Context, id string, active bool) (*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sp, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	sp.principal.IsActive = active
	return clonePrincipal(sp.principal), nil
}

func (r *stubPrincipalRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrPrincipalNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubPrincipalRepo) List(context.Context) ([]*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Principal, 0, len(r.byID))
	for _, sp := range r.byID {
		out = append(out, clonePrincipal(sp.principal))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubPrincipalRepo) CountByRole(_ context.Context, roleID domain.RoleID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, sp := range r.byID {
		if sp.principal.Role.ID == roleID {
			n++
		}
	}
	return n, nil
}

func (r *stubPrincipalRepo) hashOf(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id].hash
}

type stubRoleRepo struct {
	mu    sync.Mutex
	roles map[domain.RoleID]domain.Role
}

func newStubRoleRepo() *stubRoleRepo {
	r := &stubRoleRepo{roles: make(map[domain.RoleID]domain.Role)}
	_ = r.EnsureSeeded(context.Background(), domain.SeedRoles())
	return r
}

func (r *stubRoleRepo) FindByID(_ context.Context, id domain.RoleID) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	return &role, nil
}

func (r *stubRoleRepo) List(context.Context) ([]domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubRoleRepo) Create(_ context.Context, role domain.Role) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.roles {
		if existing.Name == role.Name {
			return nil, domain.ErrRoleExists
		}
	}
	r.roles[role.ID] = role
	return &role, nil
}

func (r *stubRoleRepo) Delete(_ context.Context, id domain.RoleID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[id]; !ok {
		return domain.ErrRoleNotFound
	}
	delete(r.roles, id)
	return nil
}

func (r *stubRoleRepo) EnsureSeeded(_ context.Context, roles []domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, role := range roles {
		if _, ok := r.roles[role.ID]; !ok {
			r.roles[role.ID] = role
		}
	}
	return nil
}

// countingHasher is a cheap reversible hasher that counts calls.
type countingHasher struct {
	mu       sync.Mutex
	hashes   int
	verifies int
}

func (h *countingHasher) Hash(_ context.Context, plaintext string) (string, error) {
	h.mu.Lock()
	h.hashes++
	h.mu.Unlock()
	return "hashed:" + plaintext, nil
}

func (h *countingHasher) Verify(_ context.Context, plaintext, hash string) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return hash == "hashed:"+plaintext
}

func (h *countingHasher) counts() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hashes, h.verifies
}

type stubTaskRepo struct {
	mu         sync.Mutex
	tasks      map[string]*domain.Task
	changes    []domain.Change
	nextID     int
	lastFilter ports.ListTasksFilter
	appendErr  error
	createErr  error
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{tasks: make(map[string]*domain.Task)}
}

func cloneTask(t *domain.Task) *domain.Task {
	clone := *t
	if t.ExpirationDate != nil {
		d := *t.ExpirationDate
		clone.ExpirationDate = &d
	}
	return &clone
}

func (r *stubTaskRepo) Create(_ context.Context, t *domain.Task) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	stored := cloneTask(t)
	stored.ID = fmt.Sprintf("t%d", r.nextID)
	r.tasks[stored.ID] = stored
	return cloneTask(stored), nil
}

func (r *stubTaskRepo) FindByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

func (r *stubTaskRepo) Update(_ context.Context, t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	r.tasks[t.ID] = cloneTask(t)
	return nil
}

func (r *stubTaskRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	kept := r.changes[:0]
	for _, c := range r.changes {
		if c.TaskID != id {
			kept = append(kept, c)
		}
	}
	r.changes = kept
	return nil
}

func (r *stubTaskRepo) List(_ context.Context, f ports.ListTasksFilter) ([]*domain.Task, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = f
	var matched []*domain.Task
	for _, t := range r.tasks {
		if f.OwnerID != "" && t.OwnerID != f.OwnerID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.ExpiresBefore != nil && (t.ExpirationDate == nil || t.ExpirationDate.After(*f.ExpiresBefore)) {
			continue
		}
		matched = append(matched, cloneTask(t))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))
	start := (f.Page - 1) * f.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *stubTaskRepo) AppendChanges(_ context.Context, changes []domain.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.changes = append(r.changes, changes...)
	return nil
}

func (r *stubTaskRepo) ListChanges(_ context.Context, taskID string) ([]domain.Change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Change
	for i := len(r.changes) - 1; i >= 0; i-- {
		if r.changes[i].TaskID == taskID {
			out = append(out, r.changes[i])
		}
	}
	return out, nil
}

// stubIdempotency stores "" for a pending claim.
type stubIdempotency struct {
	mu      sync.Mutex
	entries map[string]string
	err     error
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{entries: make(map[string]string)}
}

func (s *stubIdempotency) Claim(_ context.Context, scope, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", false, s.err
	}
	if id, ok := s.entries[scope+"|"+key]; ok {
		return id, false, nil
	}
	s.entries[scope+"|"+key] = ""
	return "", true, nil
}

func (s *stubIdempotency) Complete(_ context.Context, scope, key, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries[scope+"|"+key] = id
	return nil
}

func (s *stubIdempotency) Release(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.entries[scope+"|"+key] == "" {
		delete(s.entries, scope+"|"+key)
	}
	return nil
}

func (s *stubIdempotency) pending(scope, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.entries[scope+"|"+key]
	return ok && id == ""
}

var errStoreDown = errors.New("store unavailable")
