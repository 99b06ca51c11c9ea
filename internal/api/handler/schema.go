package handler

import (
	"time"

	"github.com/choafros/jdm-vault/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// credentialsRequest is accepted as JSON or as a urlencoded form.
type credentialsRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=64"`
	Password string `json:"password" form:"password" validate:"required,maxbytes=72"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// userView is the only shape in which users leave the API. It never carries
// the password hash.
type userView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserView(u *domain.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toUserViews(users []*domain.User) []userView {
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, toUserView(u))
	}
	return out
}
