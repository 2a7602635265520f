package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "0123456789abcdef0123456789abcdef",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" || cfg.StoreDriver != StoreMongo || cfg.Auth.KeyID != "v1" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Auth.BcryptCost != 12 {
		t.Fatalf("expected bcrypt cost 12, got %d", cfg.Auth.BcryptCost)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Fatalf("expected 15s shutdown timeout, got %s", cfg.ShutdownTimeout)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development env by default")
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	if _, err := load(context.Background(), envconfig.MapLookuper(map[string]string{})); err == nil {
		t.Fatalf("expected error when JWT_SECRET is missing")
	}
}

func TestLoad_RetiredKeys(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":       "active-secret",
		"JWT_KEY_ID":       "v2",
		"JWT_RETIRED_KEYS": "v1:old-secret",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	keys := cfg.Auth.SigningKeys()
	if string(keys["v2"]) != "active-secret" || string(keys["v1"]) != "old-secret" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestLoad_RejectsActiveKeyInRetiredSet(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":       "active-secret",
		"JWT_RETIRED_KEYS": "v1:other",
	}))
	if err == nil || !strings.Contains(err.Error(), "active key id") {
		t.Fatalf("expected active key clash error, got %v", err)
	}
}

func TestLoad_UnknownStoreDriver(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":   "secret",
		"STORE_DRIVER": "postgres",
	}))
	if err == nil {
		t.Fatalf("expected error for unknown store driver")
	}
}
