package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Table != "OrderLineItems" {
		t.Fatalf("table = %q, want OrderLineItems", cfg.Table)
	}
	if cfg.OldClientThresholdDays != 90 {
		t.Fatalf("threshold = %d, want 90", cfg.OldClientThresholdDays)
	}
	if cfg.DSN != "" || cfg.CSVPath != "" {
		t.Fatalf("expected empty sources, got %+v", cfg)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CLIENTFEATURES_TABLE", "orders_export")
	t.Setenv("CLIENTFEATURES_OLD_CLIENT_THRESHOLD_DAYS", "30")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Table != "orders_export" {
		t.Fatalf("table = %q, want orders_export", cfg.Table)
	}
	if cfg.OldClientThresholdDays != 30 {
		t.Fatalf("threshold = %d, want 30", cfg.OldClientThresholdDays)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("csv: orders.csv\nold_client_threshold_days: 120\nverbose: true\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CSVPath != "orders.csv" {
		t.Fatalf("csv = %q, want orders.csv", cfg.CSVPath)
	}
	if cfg.OldClientThresholdDays != 120 {
		t.Fatalf("threshold = %d, want 120", cfg.OldClientThresholdDays)
	}
	if !cfg.Verbose {
		t.Fatal("verbose should be true")
	}
}

func TestLoad_NegativeThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("old_client_threshold_days: -1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for negative threshold, got nil")
	}
}
