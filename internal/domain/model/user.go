package model

import (
	"time"
)

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// IsValidRole reports whether r is one of the three known roles.
func IsValidRole(r string) bool {
	return r == RoleUser || r == RoleAdmin || r == RoleSuperadmin
}

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Not exposed
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
