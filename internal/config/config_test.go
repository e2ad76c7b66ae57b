package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := Validate(&cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Scrape.RequestDelay() != 3*time.Second {
		t.Fatalf("expected 3s default delay, got %v", cfg.Scrape.RequestDelay())
	}
	if len(cfg.Scrape.Usernames) == 0 {
		t.Fatal("default target list is empty")
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gramscout.yaml")
	cfg := Default()
	cfg.Database.Password = "secret"
	cfg.Scrape.Incremental = true
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Database.Name != cfg.Database.Name || got.Database.Password != "secret" {
		t.Fatalf("database config lost: %+v", got.Database)
	}
	if !got.Scrape.Incremental {
		t.Fatal("incremental flag lost")
	}
	if len(got.Scrape.Usernames) != len(cfg.Scrape.Usernames) {
		t.Fatalf("usernames lost: %v", got.Scrape.Usernames)
	}
}

func TestLoadResolvesEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gramscout.yaml")
	content := `
database:
  port: 5432
  name: ig_leaderboard
scrape:
  usernames: [nike]
  requestDelaySeconds: 3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "scraper")
	t.Setenv("DB_PASSWORD", "pw")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.User != "scraper" || cfg.Database.Password != "pw" {
		t.Fatalf("env fallback not applied: %+v", cfg.Database)
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := Default()
	cfg.Database.Port = 0
	if err := Validate(&cfg); err == nil {
		t.Fatal("expected validation error for port 0")
	}
}

func TestValidateRejectsEmptyTargets(t *testing.T) {
	cfg := Default()
	cfg.Scrape.Usernames = nil
	if err := Validate(&cfg); err == nil {
		t.Fatal("expected validation error for empty username list")
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "pw", Name: "ig_leaderboard"}
	want := "postgres://postgres:pw@localhost:5432/ig_leaderboard?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
