package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a row of the Supabase profiles table.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72,containsany=ABCDEFGHIJKLMNOPQRSTUVWXYZ,containsany=abcdefghijklmnopqrstuvwxyz,containsany=0123456789"`
	Name     string `json:"name" validate:"required,max=120"`
	Role     string `json:"-"`
}

type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserPatch is the set of profile fields a caller may change.
type UserPatch struct {
	Name *string `json:"name" validate:"omitnil,min=1,max=120"`
}
