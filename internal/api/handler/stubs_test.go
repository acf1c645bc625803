package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/taskhub-api/internal/api/middleware"
	"github.com/taskhub/taskhub-api/internal/core/domain"
	"github.com/taskhub/taskhub-api/internal/core/ports"
)

var errNotStubbed = errors.New("not stubbed")

var (
	userPrincipal  = domain.Principal{ID: "u1", Email: "alice@example.com", Role: domain.Role{ID: domain.RoleUser, Name: "User"}, IsActive: true}
	adminPrincipal = domain.Principal{ID: "root", Email: "root@example.com", Role: domain.Role{ID: domain.RoleAdministrator, Name: "Administrator"}, IsActive: true}
)

type stubAuthService struct {
	registerFn func(ctx context.Context, email, password string, roleID domain.RoleID) (*domain.Principal, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.LoginResult, error)
}

func (s *stubAuthService) Register(ctx context.Context, email, password string, roleID domain.RoleID) (*domain.Principal, error) {
	if s.registerFn == nil {
		return nil, errNotStubbed
	}
	return s.registerFn(ctx, email, password, roleID)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	if s.loginFn == nil {
		return nil, errNotStubbed
	}
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) AuthenticateRequest(context.Context, string) (*domain.Principal, error) {
	return nil, domain.ErrTokenInvalid
}

func (s *stubAuthService) Authorize(p domain.Principal, ownerID string) bool {
	return domain.CanAccess(p, ownerID)
}

type stubTaskService struct {
	createFn func(ctx context.Context, actor domain.Principal, in ports.CreateTaskInput) (*ports.CreateTaskResult, error)
	getFn    func(ctx context.Context, actor domain.Principal, id string) (*domain.Task, error)
	updateFn func(ctx context.Context, actor domain.Principal, id string, u domain.TaskUpdate) (*domain.Task, error)
	deleteFn func(ctx context.Context, actor domain.Principal, id string) error
	listFn   func(ctx context.Context, actor domain.Principal, in ports.ListTasksInput) (*ports.ListTasksResult, error)
	toggleFn func(ctx context.Context, actor domain.Principal, id string) (*domain.Task, error)
	changeFn func(ctx context.Context, actor domain.Principal, id string) ([]domain.Change, error)
}

func (s *stubTaskService) Create(ctx context.Context, a domain.Principal, in ports.CreateTaskInput) (*ports.CreateTaskResult, error) {
	if s.createFn == nil {
		return nil, errNotStubbed
	}
	return s.createFn(ctx, a, in)
}

func (s *stubTaskService) Get(ctx context.Context, a domain.Principal, id string) (*domain.Task, error) {
	if s.getFn == nil {
		return nil, errNotStubbed
	}
	return s.getFn(ctx, a, id)
}

func (s *stubTaskService) Update(ctx context.Context, a domain.Principal, id string, u domain.TaskUpdate) (*domain.Task, error) {
	if s.updateFn == nil {
		return nil, errNotStubbed
	}
	return s.updateFn(ctx, a, id, u)
}

func (s *stubTaskService) Delete(ctx context.Context, a domain.Principal, id string) error {
	if s.deleteFn == nil {
		return errNotStubbed
	}
	return s.deleteFn(ctx, a, id)
}

func (s *stubTaskService) List(ctx context.Context, a domain.Principal, in ports.ListTasksInput) (*ports.ListTasksResult, error) {
	if s.listFn == nil {
		return nil, errNotStubbed
	}
	return s.listFn(ctx, a, in)
}

func (s *stubTaskService) ToggleFavorite(ctx context.Context, a domain.Principal, id string) (*domain.Task, error) {
	if s.toggleFn == nil {
		return nil, errNotStubbed
	}
	return s.toggleFn(ctx, a, id)
}

func (s *stubTaskService) Changes(ctx context.Context, a domain.Principal, id string) ([]domain.Change, error) {
	if s.changeFn == nil {
		return nil, errNotStubbed
	}
	return s.changeFn(ctx, a, id)
}

type stubUserService struct {
	createFn func(ctx context.Context, actor domain.Principal, email, password string, roleID domain.RoleID) (*domain.Principal, error)
	updateFn func(ctx context.Context, actor domain.Principal, id string, in ports.UpdateUserInput) (*domain.Principal, error)
	toggleFn func(ctx context.Context, actor domain.Principal, id string) (*domain.Principal, error)
}

func (s *stubUserService) List(context.Context, domain.Principal) ([]*domain.Principal, error) {
	p := userPrincipal
	return []*domain.Principal{&p}, nil
}

func (s *stubUserService) Get(_ context.Context, _ domain.Principal, id string) (*domain.Principal, error) {
	if id != userPrincipal.ID {
		return nil, domain.ErrPrincipalNotFound
	}
	p := userPrincipal
	return &p, nil
}

func (s *stubUserService) Create(ctx context.Context, a domain.Principal, email, password string, roleID domain.RoleID) (*domain.Principal, error) {
	if s.createFn == nil {
		return nil, errNotStubbed
	}
	return s.createFn(ctx, a, email, password, roleID)
}

func (s *stubUserService) Update(ctx context.Context, a domain.Principal, id string, in ports.UpdateUserInput) (*domain.Principal, error) {
	if s.updateFn == nil {
		return nil, errNotStubbed
	}
	return s.updateFn(ctx, a, id, in)
}

func (s *stubUserService) Delete(_ context.Context, _ domain.Principal, id string) error {
	if id != userPrincipal.ID {
		return domain.ErrPrincipalNotFound
	}
	return nil
}

func (s *stubUserService) ToggleActive(ctx context.Context, a domain.Principal, id string) (*domain.Principal, error) {
	if s.toggleFn == nil {
		return nil, errNotStubbed
	}
	return s.toggleFn(ctx, a, id)
}

type stubRoleService struct {
	roles map[domain.RoleID]domain.Role
}

func newStubRoleService() *stubRoleService {
	s := &stubRoleService{roles: map[domain.RoleID]domain.Role{}}
	for _, r := range domain.SeedRoles() {
		s.roles[r.ID] = r
	}
	return s
}

func (s *stubRoleService) List(context.Context, domain.Principal) ([]domain.Role, error) {
	return domain.SeedRoles(), nil
}

func (s *stubRoleService) Get(_ context.Context, _ domain.Principal, id domain.RoleID) (*domain.Role, error) {
	r, ok := s.roles[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	return &r, nil
}

func (s *stubRoleService) Create(_ context.Context, _ domain.Principal, name string) (*domain.Role, error) {
	r := domain.Role{ID: domain.RoleID("r-" + strings.ToLower(name)), Name: name}
	s.roles[r.ID] = r
	return &r, nil
}

func (s *stubRoleService) Delete(_ context.Context, _ domain.Principal, id domain.RoleID) error {
	if id.IsProtected() {
		return domain.ErrRoleProtected
	}
	if _, ok := s.roles[id]; !ok {
		return domain.ErrRoleNotFound
	}
	delete(s.roles, id)
	return nil
}

// newContext builds an echo context for a handler call. A nil principal
// leaves the request unauthenticated.
func newContext(method, target string, body io.Reader, contentType string, p *domain.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p != nil {
		middleware.SetPrincipal(c, *p)
	}
	return c, rec
}

func jsonContext(method, target, body string, p *domain.Principal) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	return newContext(method, target, r, echo.MIMEApplicationJSON, p)
}

func httpCode(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}
