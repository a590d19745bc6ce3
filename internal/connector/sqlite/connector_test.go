package sqlite

import (
	"testing"

	"github.com/faucetdb/useradmin/internal/connector"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  connector.ConnectionConfig
		want string
	}{
		{"memory", connector.ConnectionConfig{Name: MemoryDSN}, MemoryDSN},
		{"file", connector.ConnectionConfig{Name: "/tmp/users.db"}, "/tmp/users.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"},
		{"explicit dsn wins", connector.ConnectionConfig{DSN: "file:x.db?mode=rwc", Name: "ignored"}, "file:x.db?mode=rwc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New().BuildDSN(tt.cfg)
			if err != nil {
				t.Fatalf("BuildDSN: %v", err)
			}
			if got != tt.want {
				t.Errorf("BuildDSN = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildDSNRequiresPath(t *testing.T) {
	if _, err := New().BuildDSN(connector.ConnectionConfig{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestDialectIsSingleConnection(t *testing.T) {
	d := New().Dialect()
	if !d.SingleConnection {
		t.Error("sqlite dialect must pin a single connection")
	}
	if !d.SupportsReturning {
		t.Error("sqlite supports RETURNING")
	}
}
