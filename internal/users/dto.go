package users

import (
	"time"

	"github.com/angelmondragon/storefront-gateway/pkg/db/models"
	"github.com/angelmondragon/storefront-gateway/pkg/enums"
)

// UserDTO is the transport shape of a provisioned user.
type UserDTO struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	IsSubscribed bool      `json:"is_subscribed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	ID           string
	Email        string
	Name         string
	Role         enums.UserRole
	IsSubscribed bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         string(u.Role),
		IsSubscribed: u.IsSubscribed,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if role == "" {
		role = enums.UserRoleUser
	}

	return &models.User{
		ID:           c.ID,
		Email:        c.Email,
		Name:         c.Name,
		Role:         role,
		IsSubscribed: c.IsSubscribed,
	}
}
