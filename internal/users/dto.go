package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/neumaticos/tirestore/pkg/db/models"
	"github.com/neumaticos/tirestore/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID      `json:"id"`
	Email       string         `json:"email"`
	Name        string         `json:"name"`
	Phone       string         `json:"phone"`
	Address     string         `json:"address"`
	City        string         `json:"city"`
	Region      string         `json:"region"`
	Role        enums.UserRole `json:"role"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Role         enums.UserRole
}

// ProfileUpdate carries the contact fields a shopper may edit. Nil fields are
// left untouched.
type ProfileUpdate struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	City    *string `json:"city,omitempty"`
	Region  *string `json:"region,omitempty"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Phone:       u.Phone,
		Address:     u.Address,
		City:        u.City,
		Region:      u.Region,
		Role:        u.Role,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if !role.IsValid() {
		role = enums.UserRoleUser
	}
	return &models.User{
		Email:        strings.ToLower(strings.TrimSpace(c.Email)),
		PasswordHash: c.PasswordHash,
		Name:         strings.TrimSpace(c.Name),
		Phone:        strings.TrimSpace(c.Phone),
		Role:         role,
	}
}

// columns returns the column map for the fields present in the update.
func (p ProfileUpdate) columns() map[string]any {
	cols := map[string]any{}
	set := func(name string, v *string) {
		if v != nil {
			cols[name] = strings.TrimSpace(*v)
		}
	}
	set("name", p.Name)
	set("phone", p.Phone)
	set("address", p.Address)
	set("city", p.City)
	set("region", p.Region)
	return cols
}
