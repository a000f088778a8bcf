package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/till_shop/internal/models"
)

type RegisterRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	OwnerEmail string `json:"owner_email"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile is the public view of a user; OwnerEmail is the email of the
// owner whose store the user works in (their own for owners).
type Profile struct {
	ID         uuid.UUID `json:"id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Role       string    `json:"role"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	OwnerEmail string    `json:"owner_email"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewProfile(u *models.User) Profile {
	return Profile{
		ID:        u.ID,
		OwnerID:   u.OwnerID,
		Role:      u.Role,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
