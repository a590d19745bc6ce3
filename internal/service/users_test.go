package service

import (
	"errors"
	"testing"
)

func TestValidateUser(t *testing.T) {
	tests := []struct {
		name    string
		nombre  string
		email   string
		rol     string
		wantErr error
	}{
		{"valid usuario", "Ana", "ana@example.com", "usuario", nil},
		{"valid admin", "Luis", "luis@example.com", "admin", nil},
		{"empty name", "", "ana@example.com", "usuario", ErrNameEmailRequired},
		{"blank name", "   ", "ana@example.com", "usuario", ErrNameEmailRequired},
		{"empty email", "Ana", "", "usuario", ErrNameEmailRequired},
		{"empty both and bad role", "", "", "root", ErrNameEmailRequired},
		{"unknown role", "Ana", "ana@example.com", "root", ErrInvalidRole},
		{"empty role", "Ana", "ana@example.com", "", ErrInvalidRole},
		{"role case", "Ana", "ana@example.com", "Admin", ErrInvalidRole},
		{"role padded", "Ana", "ana@example.com", " admin", ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := ValidateUser(tt.nombre, tt.email, tt.rol)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got err %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && u == nil {
				t.Fatal("expected user")
			}
		})
	}
}

func TestValidateUserTrims(t *testing.T) {
	u, err := ValidateUser("  Ana  ", "\tana@example.com\n", "usuario")
	if err != nil {
		t.Fatalf("ValidateUser: %v", err)
	}
	if u.Name != "Ana" || u.Email != "ana@example.com" {
		t.Errorf("not trimmed: %+v", u)
	}
}
