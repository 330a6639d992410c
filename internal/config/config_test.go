package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "mysql" {
		t.Fatalf("expected mysql driver, got %q", cfg.Database.Driver)
	}
	if cfg.Business.WithdrawPrecheck {
		t.Fatal("withdraw precheck must default to off")
	}
	if cfg.Business.LockTTL() != 30*time.Second {
		t.Fatalf("unexpected lock ttl %s", cfg.Business.LockTTL())
	}
}

func TestLoadReadsFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
server:
  port: 9090
database:
  driver: postgres
  port: 5432
kafka:
  enabled: true
  brokers: ["k1:9092", "k2:9092"]
seed:
  admin_id: 1
  accounts:
    - user_id: 10
      balance: 500
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("LEDGER_SERVER_PORT", "7070")
	t.Setenv("LEDGER_BUSINESS_WITHDRAW_PRECHECK", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("expected env override 7070, got %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.Port != 5432 {
		t.Fatalf("unexpected database config %+v", cfg.Database)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Fatalf("expected two brokers, got %v", cfg.Kafka.Brokers)
	}
	if !cfg.Business.WithdrawPrecheck {
		t.Fatal("expected withdraw precheck enabled from env")
	}
	if len(cfg.Seed.Accounts) != 1 || cfg.Seed.Accounts[0].Balance != 500 {
		t.Fatalf("unexpected seed accounts %+v", cfg.Seed.Accounts)
	}
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "oracle"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
