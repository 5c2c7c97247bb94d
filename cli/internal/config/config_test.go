package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zhaobenny/babylog/internal/publisher"
)

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("BABYLOG_CONFIG", filepath.Join(t.TempDir(), "none.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != "" || cfg.CanSync() {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
	if cfg.GetSyncSchedule() != DefaultSyncSchedule {
		t.Fatalf("default schedule = %q", cfg.GetSyncSchedule())
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "babylog.yaml")
	t.Setenv("BABYLOG_CONFIG", path)

	cfg := &Config{
		Server:       "https://baby.example.com",
		APIKey:       "babylog_abc",
		File:         "/data/log.xlsx",
		SyncSchedule: "@every 30m",
		MQTT: publisher.Config{
			Enabled:     true,
			Broker:      "localhost:1883",
			TopicPrefix: "home/baby",
			Retain:      true,
		},
	}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if cfg.ClientID == "" {
		t.Fatalf("Save should assign a client ID")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Fatalf("config mode = %v, want 0600", perm)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *loaded != *cfg {
		t.Fatalf("loaded %+v, want %+v", loaded, cfg)
	}
	if !loaded.CanSync() || loaded.GetSyncSchedule() != "@every 30m" {
		t.Fatalf("loaded config not usable: %+v", loaded)
	}

	id := loaded.ClientID
	if err := Save(loaded); err != nil {
		t.Fatalf("Save again: %v", err)
	}
	if loaded.ClientID != id {
		t.Fatalf("client ID changed on re-save")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("BABYLOG_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}
