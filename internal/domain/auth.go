// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicate is returned by repositories when a unique key already exists.
var ErrDuplicate = errors.New("duplicate key")

// Role distinguishes patients from doctors.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

// User represents an authenticated user in the system.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	FullName       string    `json:"full_name"`
	Role           Role      `json:"role"`
	Age            *int      `json:"age"`
	Specialization *string   `json:"specialization"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserRepository defines the port for user persistence operations.
// Lookups return nil, nil when no user matches.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, u User) (*User, error)
	ListByRole(ctx context.Context, role Role, limit int) ([]User, error)
}
