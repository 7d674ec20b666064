package payloads

import (
	"time"

	"github.com/zemen-restaurant/zemen-backend/models"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	return validateStruct(r)
}

type LoginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ProfileResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

func NewProfileResponse(u models.User) ProfileResponse {
	return ProfileResponse{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}
