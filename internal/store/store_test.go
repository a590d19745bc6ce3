package store

import (
	"context"
	"errors"
	"testing"

	"github.com/faucetdb/useradmin/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory(context.Background())
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrateIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestAdminCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	has, err := s.HasAnyAdmin(ctx)
	if err != nil {
		t.Fatalf("HasAnyAdmin: %v", err)
	}
	if has {
		t.Error("expected no admins in a fresh store")
	}

	admin := &model.Admin{Username: "admin", PasswordHash: "$2a$10$hash"}
	if err := s.CreateAdmin(ctx, admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if admin.ID == 0 {
		t.Fatal("expected non-zero ID after create")
	}

	got, err := s.GetAdminByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetAdminByUsername: %v", err)
	}
	if got.ID != admin.ID || got.PasswordHash != admin.PasswordHash {
		t.Errorf("got %+v, want %+v", got, admin)
	}

	// Lookup is exact.
	if _, err := s.GetAdminByUsername(ctx, "Admin"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for different case, got %v", err)
	}

	if err := s.CreateAdmin(ctx, &model.Admin{Username: "admin", PasswordHash: "x"}); err == nil {
		t.Error("expected unique constraint violation for duplicate username")
	}

	list, err := s.ListAdmins(ctx)
	if err != nil {
		t.Fatalf("ListAdmins: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("got %d admins, want 1", len(list))
	}

	has, _ = s.HasAnyAdmin(ctx)
	if !has {
		t.Error("expected HasAnyAdmin after create")
	}
}

func TestListUsersEmptyIsNotNil(t *testing.T) {
	s := newTestStore(t)
	users, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if users == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &model.User{Name: "Ana", Email: "ana@example.com", Role: model.RoleUsuario}
	second := &model.User{Name: "Luis", Email: "luis@example.com", Role: model.RoleAdmin}
	for _, u := range []*model.User{first, second} {
		if err := s.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser(%s): %v", u.Name, err)
		}
	}
	if second.ID <= first.ID {
		t.Fatalf("ids not increasing: %d then %d", first.ID, second.ID)
	}
	if first.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	// Most recent id first.
	list, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("unexpected order: %+v", list)
	}

	got, err := s.GetUser(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Name != "Ana" || got.Email != "ana@example.com" || got.Role != model.RoleUsuario {
		t.Errorf("got %+v", got)
	}
	createdAt := got.CreatedAt

	// Update changes only nombre/email/rol.
	upd := &model.User{ID: first.ID, Name: "Ana María", Email: "am@example.com", Role: model.RoleAdmin}
	if err := s.UpdateUser(ctx, upd); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	got, _ = s.GetUser(ctx, first.ID)
	if got.Name != "Ana María" || got.Email != "am@example.com" || got.Role != model.RoleAdmin {
		t.Errorf("update not persisted: %+v", got)
	}
	if !got.CreatedAt.Equal(createdAt) {
		t.Errorf("created_at changed: %v -> %v", createdAt, got.CreatedAt)
	}

	// Delete.
	if err := s.DeleteUser(ctx, first.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := s.GetUser(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	list, _ = s.ListUsers(ctx)
	if len(list) != 1 || list[0].ID != second.ID {
		t.Errorf("delete removed the wrong record: %+v", list)
	}
}

func TestUserNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetUser(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUser: expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateUser(ctx, &model.User{ID: 999, Name: "x", Email: "x", Role: model.RoleUsuario}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateUser: expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteUser(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteUser: expected ErrNotFound, got %v", err)
	}
}

func TestRoleCheckConstraint(t *testing.T) {
	s := newTestStore(t)
	err := s.CreateUser(context.Background(), &model.User{Name: "x", Email: "x@example.com", Role: "root"})
	if err == nil {
		t.Fatal("expected the rol check constraint to reject an unknown role")
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if s.Dialect().Name != "sqlite" {
		t.Errorf("dialect = %q, want sqlite", s.Dialect().Name)
	}
}
