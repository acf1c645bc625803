package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=1,maxbytes=72"`
	// RoleID defaults to the "user" role when omitted.
	RoleID string `json:"role_id" validate:"omitempty,max=64"`
}

// loginRequest accepts JSON or an OAuth2 password form, where the email is
// sent as "username".
type loginRequest struct {
	Email    string `json:"email"    form:"email"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password" validate:"required,maxbytes=72"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type roleResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type userResponse struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	Role      roleResponse `json:"role"`
	IsActive  bool         `json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// --- Tasks ---

type createTaskRequest struct {
	Title          string `json:"title"           validate:"required,max=200"`
	Description    string `json:"description"     validate:"max=2000"`
	ExpirationDate string `json:"expiration_date" validate:"omitempty,datetime=2006-01-02"`
	Status         string `json:"status"          validate:"omitempty,oneof=TO_DO IN_PROGRESS COMPLETED"`
	IsFavorite     bool   `json:"is_favorite"`
}

type updateTaskRequest struct {
	Title          *string `json:"title"           validate:"omitempty,min=1,max=200"`
	Description    *string `json:"description"     validate:"omitempty,max=2000"`
	ExpirationDate *string `json:"expiration_date" validate:"omitempty,datetime=2006-01-02"`
	Status         *string `json:"status"          validate:"omitempty,oneof=TO_DO IN_PROGRESS COMPLETED"`
	IsFavorite     *bool   `json:"is_favorite"`
}

type listTasksQuery struct {
	Status         string `query:"status"          validate:"omitempty,oneof=TO_DO IN_PROGRESS COMPLETED"`
	ExpirationDate string `query:"expiration_date" validate:"omitempty,datetime=2006-01-02"`
	Page           int    `query:"page"            validate:"omitempty,min=1,max=100000"`
	Limit          int    `query:"limit"           validate:"omitempty,min=1,max=100"`
}

type taskLinks struct {
	Self    string `json:"self"`
	Changes string `json:"changes"`
}

type taskResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
	ExpirationDate *string   `json:"expiration_date"`
	Status         string    `json:"status"`
	OwnerID        string    `json:"owner_id"`
	IsFavorite     bool      `json:"is_favorite"`
	Links          taskLinks `json:"_links"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type listTasksResponse struct {
	Data       []taskResponse     `json:"data"`
	Pagination paginationResponse `json:"pagination"`
}

type changeResponse struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Timestamp time.Time `json:"timestamp"`
	Field     string    `json:"field_changed"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
}

// --- Admin ---

type createUserRequest struct {
	Email    string `json:"email"    validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,maxbytes=72"`
	RoleID   string `json:"role_id"  validate:"required,max=64"`
}

// updateUserRequest is a partial update; omitted fields are left unchanged.
type updateUserRequest struct {
	Email    *string `json:"email"    validate:"omitempty,email,max=254"`
	Password *string `json:"password" validate:"omitempty,min=1,maxbytes=72"`
	RoleID   *string `json:"role_id"  validate:"omitempty,max=64"`
}

type createRoleRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}
