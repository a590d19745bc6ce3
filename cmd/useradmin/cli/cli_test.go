package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// run executes the command tree against a sqlite config in a temp dir.
func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	viper.Reset()

	root := newRootCmd("1.2.3", "abc123", "2026-01-01")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config=" + cfgPath, "--env-file="}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "useradmin.yaml")
	body := "database:\n  driver: sqlite\n  name: " + filepath.Join(dir, "useradmin.db") + "\n" +
		"auth:\n  secret_key: cli-test-secret\n"
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAdminCreateAndList(t *testing.T) {
	cfg := writeConfig(t)

	if out, err := run(t, cfg, "db", "migrate"); err != nil {
		t.Fatalf("db migrate: %v\n%s", err, out)
	}

	out, err := run(t, cfg, "admin", "create", "--username", "root", "--password", "s3cret")
	if err != nil {
		t.Fatalf("admin create: %v\n%s", err, out)
	}
	if !strings.Contains(out, `Created admin "root"`) {
		t.Errorf("unexpected output: %s", out)
	}

	out, err = run(t, cfg, "admin", "list", "--json")
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	var admins []struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal([]byte(out), &admins); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(admins) != 1 || admins[0].Username != "root" {
		t.Errorf("admins = %+v", admins)
	}
	if strings.Contains(out, "password") {
		t.Error("admin list leaks password hashes")
	}

	if _, err := run(t, cfg, "admin", "create", "--username", "root", "--password", "other"); err == nil {
		t.Error("expected duplicate username to fail")
	}
}

func TestUserListEmpty(t *testing.T) {
	cfg := writeConfig(t)
	if _, err := run(t, cfg, "db", "migrate"); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, cfg, "user", "list", "--json")
	if err != nil {
		t.Fatalf("user list: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("user list = %q, want []", out)
	}
}

func TestDBPing(t *testing.T) {
	cfg := writeConfig(t)
	out, err := run(t, cfg, "db", "ping")
	if err != nil {
		t.Fatalf("db ping: %v", err)
	}
	if !strings.Contains(out, "Connection OK (sqlite") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	cfg := writeConfig(t)
	out, err := run(t, cfg, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "cli-test-secret") {
		t.Error("secret key printed in clear text")
	}
	if !strings.Contains(out, "driver: sqlite") {
		t.Errorf("driver missing from output: %s", out)
	}
}

func TestConfigInit(t *testing.T) {
	cfg := writeConfig(t)
	target := filepath.Join(t.TempDir(), "new.yaml")

	if _, err := run(t, cfg, "config", "init", "--path", target); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("file not written: %v", err)
	}
	if _, err := run(t, cfg, "config", "init", "--path", target); err == nil {
		t.Error("expected error when file exists without --force")
	}
	if _, err := run(t, cfg, "config", "init", "--path", target, "--force"); err != nil {
		t.Errorf("--force: %v", err)
	}
}

func TestAdminHash(t *testing.T) {
	cfg := writeConfig(t)
	out, err := run(t, cfg, "admin", "hash", "--password", "admin123")
	if err != nil {
		t.Fatalf("admin hash: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "$2") {
		t.Errorf("not a bcrypt hash: %q", out)
	}
}

func TestVersionJSON(t *testing.T) {
	cfg := writeConfig(t)
	out, err := run(t, cfg, "version", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var info buildInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Version != "1.2.3" || info.Commit != "abc123" {
		t.Errorf("info = %+v", info)
	}
	if strings.Join(info.Drivers, ",") != "mysql,postgres,sqlite" {
		t.Errorf("drivers = %v", info.Drivers)
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("database:\n  driver: oracle\n"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := run(t, path, "db", "ping")
	if err == nil || !strings.Contains(err.Error(), "unsupported driver") {
		t.Errorf("err = %v, want unsupported driver", err)
	}
}
