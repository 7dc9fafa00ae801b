package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ZAPKART_AUTH_JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.Environment != "development" {
		t.Fatalf("expected development environment, got %s", cfg.Environment)
	}
	if cfg.Outbox.BatchSize != 100 {
		t.Fatalf("expected default outbox batch size, got %d", cfg.Outbox.BatchSize)
	}
	if cfg.Tracking.MinPublishInterval.Seconds() != 10 {
		t.Fatalf("expected 10s tracking interval, got %v", cfg.Tracking.MinPublishInterval)
	}
	if cfg.IsProduction() {
		t.Fatalf("development config reported production")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("ZAPKART_AUTH_JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing jwt secret")
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db.internal", Port: 5433, User: "svc",
		Password: "pw", Name: "zapkart", SSLMode: "require",
	}
	dsn := d.DSN()
	for _, part := range []string{"host=db.internal", "port=5433", "user=svc", "dbname=zapkart", "sslmode=require"} {
		if !strings.Contains(dsn, part) {
			t.Fatalf("dsn missing %q: %s", part, dsn)
		}
	}
}
