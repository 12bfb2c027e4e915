package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIPort != "8080" {
		t.Fatalf("unexpected api port %q", cfg.APIPort)
	}
	if cfg.PortWorkers != 5 {
		t.Fatalf("unexpected worker count %d", cfg.PortWorkers)
	}
	if !cfg.GradeErrorAssumesRelevant {
		t.Fatalf("grading must assume relevance on error by default")
	}
	if cfg.WeaviateClass != "LegalDocument" {
		t.Fatalf("unexpected class %q", cfg.WeaviateClass)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`api_port: "9999"
ollama_gen_model: llama3
chunk_size: 500
grade_error_assumes_relevant: false
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIPort != "9999" || cfg.OllamaGenModel != "llama3" || cfg.ChunkSize != 500 {
		t.Fatalf("yaml values not applied: %+v", cfg)
	}
	if cfg.GradeErrorAssumesRelevant {
		t.Fatalf("yaml false must override the default")
	}
	// Untouched keys keep their defaults.
	if cfg.NATSSubject != "documents.ingest" {
		t.Fatalf("unexpected subject %q", cfg.NATSSubject)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(`api_port: "9999"`), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "7777")
	t.Setenv("PORT_WORKERS", "12")
	t.Setenv("OLLAMA_GENERATE_RPS", "0.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIPort != "7777" {
		t.Fatalf("env must win over file, got %q", cfg.APIPort)
	}
	if cfg.PortWorkers != 12 || cfg.OllamaGenerateRPS != 0.5 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoadIgnoresMalformedEnvNumbers(t *testing.T) {
	t.Setenv("PORT_WORKERS", "not-a-number")
	t.Setenv("GRADE_ERROR_ASSUMES_RELEVANT", "not-a-bool")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PortWorkers != 5 {
		t.Fatalf("malformed int must fall back to default, got %d", cfg.PortWorkers)
	}
	if !cfg.GradeErrorAssumesRelevant {
		t.Fatalf("malformed bool must fall back to default")
	}
}
