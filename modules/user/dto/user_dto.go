package dto

import (
	"time"

	"tango-agenda/modules/user/entity"
)

// ===================== Request DTOs =====================

// UpdateProfileRequest patches the caller's (or, for admins, any user's)
// profile fields.
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateRolesRequest replaces a user's role set. Admin only.
type UpdateRolesRequest struct {
	Roles []string `json:"roles" validate:"required"`
}

// ===================== Response DTOs =====================

// UserResponse for user details.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUserResponse maps entity to DTO.
func ToUserResponse(u *entity.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Roles:     []string(u.Roles),
		CreatedAt: u.CreatedAt,
	}
}
