package model

import "time"

// Role values accepted for a managed user.
const (
	RoleAdmin   = "admin"
	RoleUsuario = "usuario"
)

// DefaultRole is assigned when a form omits the role field entirely.
const DefaultRole = RoleUsuario

// ValidRole reports whether role is one of the accepted role values. The
// comparison is exact: no trimming and no case folding.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUsuario
}

// User is a managed user record. ID and CreatedAt are assigned by the store
// on insert and never change afterwards.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"nombre"`
	Email     string    `json:"email" db:"email"`
	Role      string    `json:"role" db:"rol"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
