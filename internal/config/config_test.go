package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearEnv blanks every variable Load reads so ambient values cannot leak
// into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "DB_URL", "DB_SCHEMA_NAME",
		"MAX_QUERY_TIMEOUT", "MAX_RESULT_ROWS", "READ_ONLY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	conf, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if conf.MaxQueryTimeout != 30 {
		t.Errorf("MaxQueryTimeout = %d, want 30", conf.MaxQueryTimeout)
	}
	if conf.MaxResultRows != 25 {
		t.Errorf("MaxResultRows = %d, want 25", conf.MaxResultRows)
	}
	if conf.ReadOnly == nil || !*conf.ReadOnly {
		t.Error("ReadOnly should default to true")
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "sqlite:///app.db")
	t.Setenv("DB_SCHEMA_NAME", "reporting")
	t.Setenv("MAX_QUERY_TIMEOUT", "5")
	t.Setenv("MAX_RESULT_ROWS", "100")
	t.Setenv("READ_ONLY", "false")

	conf, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if conf.DatabaseURL != "sqlite:///app.db" {
		t.Errorf("DatabaseURL = %q", conf.DatabaseURL)
	}
	if conf.SchemaName != "reporting" {
		t.Errorf("SchemaName = %q", conf.SchemaName)
	}
	if conf.MaxQueryTimeout != 5 || conf.MaxResultRows != 100 {
		t.Errorf("limits = %d/%d, want 5/100", conf.MaxQueryTimeout, conf.MaxResultRows)
	}
	if *conf.ReadOnly {
		t.Error("READ_ONLY=false should disable read-only mode")
	}
}

func TestLoadDBURLFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_URL", "sqlite:///fallback.db")

	conf, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if conf.DatabaseURL != "sqlite:///fallback.db" {
		t.Errorf("DatabaseURL = %q, want the DB_URL fallback", conf.DatabaseURL)
	}
}

func TestLoadTOMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `database_url = "postgres://localhost/app"
schema_name = "public"
max_query_timeout = 10
max_result_rows = 50
read_only = false

[logger]
console_level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	conf, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if conf.DatabaseURL != "postgres://localhost/app" {
		t.Errorf("DatabaseURL = %q", conf.DatabaseURL)
	}
	if conf.MaxQueryTimeout != 10 || conf.MaxResultRows != 50 {
		t.Errorf("limits = %d/%d, want 10/50", conf.MaxQueryTimeout, conf.MaxResultRows)
	}
	if *conf.ReadOnly {
		t.Error("read_only = false not applied")
	}
	if conf.Logging.ConsoleLevel != "debug" {
		t.Errorf("console level = %q", conf.Logging.ConsoleLevel)
	}
}

func TestEnvironmentWinsOverTOML(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_RESULT_ROWS", "7")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("max_result_rows = 50\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	conf, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if conf.MaxResultRows != 7 {
		t.Errorf("MaxResultRows = %d, want the environment value 7", conf.MaxResultRows)
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err != nil {
		t.Fatalf("missing config file should not fail Load: %v", err)
	}
}

func TestLoadRejectsUnknownDialect(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "oracle://localhost/app")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unsupported dialect")
	}
}

func TestLoadRejectsBadLimits(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_QUERY_TIMEOUT", "-1")

	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "max_query_timeout") {
		t.Fatalf("expected max_query_timeout error, got %v", err)
	}
}

func TestPolicyConversion(t *testing.T) {
	readOnly := false
	conf := &Config{MaxQueryTimeout: 12, MaxResultRows: 40, ReadOnly: &readOnly}

	policy := conf.Policy()
	if policy.MaxQueryTimeoutSeconds != 12 || policy.MaxResultRows != 40 || policy.ReadOnly {
		t.Errorf("policy = %+v", policy)
	}
}
