package service

import (
	"errors"
	"strings"

	"github.com/faucetdb/useradmin/internal/model"
)

var (
	ErrNameEmailRequired = errors.New("name and email are required")
	ErrInvalidRole       = errors.New("role must be admin or usuario")
)

// ValidateUser trims name and email and checks, in order, that both are
// non-empty and that role is exactly one of the known roles. role is not
// trimmed.
func ValidateUser(name, email, role string) (*model.User, error) {
	u := &model.User{
		Name:  strings.TrimSpace(name),
		Email: strings.TrimSpace(email),
		Role:  role,
	}
	if u.Name == "" || u.Email == "" {
		return nil, ErrNameEmailRequired
	}
	if !model.ValidRole(u.Role) {
		return nil, ErrInvalidRole
	}
	return u, nil
}
