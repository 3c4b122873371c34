package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != "8001" {
		t.Fatalf("expected default port 8001, got %q", cfg.HTTPPort)
	}
	if cfg.TokenTTL() != 24*time.Hour {
		t.Fatalf("expected 24h token ttl, got %v", cfg.TokenTTL())
	}
	if cfg.UsersTableName() != "dailydevq-dev-users" {
		t.Fatalf("unexpected table name %q", cfg.UsersTableName())
	}
	if cfg.DynamoDBExternalIDIndex != "" {
		t.Fatalf("expected external id index disabled by default")
	}
}

func TestLoadConfig_PostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestLoad_SkipsBackendValidation(t *testing.T) {
	// sin DATABASE_URL el default postgres no debe bloquear init-table
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("STORE_BACKEND")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreBackend != BackendPostgres {
		t.Fatalf("expected postgres default, got %q", cfg.StoreBackend)
	}
	if err := cfg.ValidateBackend(BackendDynamoDB); err != nil {
		t.Fatalf("dynamodb settings should validate: %v", err)
	}
	if err := cfg.ValidateBackend(BackendPostgres); err == nil {
		t.Fatalf("expected postgres validation to still require DATABASE_URL")
	}
}

func TestValidateBackend_DynamoRequiresTable(t *testing.T) {
	cfg := Config{DynamoDBUsersTable: " "}
	if err := cfg.ValidateBackend(BackendDynamoDB); err == nil {
		t.Fatalf("expected table error")
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := Config{StoreBackend: "mongo", JWTExpireHours: 24}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}

func TestValidate_RejectsNonPositiveTTL(t *testing.T) {
	cfg := Config{StoreBackend: BackendMemory, JWTExpireHours: 0}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected ttl error")
	}
}

func TestAllowedOrigins(t *testing.T) {
	cfg := Config{CORSOrigins: "http://a.dev, ,http://b.dev "}
	got := cfg.AllowedOrigins()
	if len(got) != 2 || got[0] != "http://a.dev" || got[1] != "http://b.dev" {
		t.Fatalf("unexpected origins: %v", got)
	}
}
