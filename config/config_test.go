package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/c360studio/reqflow/model"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("default addr = %q", cfg.Server.Addr)
	}
	if cfg.Workflow.StageTimeout != 3*time.Minute {
		t.Errorf("default stage timeout = %v", cfg.Workflow.StageTimeout)
	}
	if !cfg.NATS.Embedded {
		t.Error("default should use embedded NATS")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"zero stage timeout", func(c *Config) { c.Workflow.StageTimeout = 0 }},
		{"temperature out of range", func(c *Config) { c.Workflow.Temperature = 1.5 }},
		{"tracker enabled without project", func(c *Config) { c.Integrations.Tracker.Project = "" }},
		{"wiki enabled without space", func(c *Config) { c.Integrations.Wiki.SpaceKey = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reqflow.yaml")

	content := `
server:
  addr: ":9090"
workflow:
  stage_timeout: 90s
integrations:
  tracker:
    enabled: true
    project: PLAT
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Workflow.StageTimeout != 90*time.Second {
		t.Errorf("stage timeout = %v", cfg.Workflow.StageTimeout)
	}
	if cfg.Integrations.Tracker.Project != "PLAT" {
		t.Errorf("tracker project = %q", cfg.Integrations.Tracker.Project)
	}
	// Untouched fields keep defaults
	if cfg.Workflow.Temperature != 0.2 {
		t.Errorf("temperature should keep default, got %v", cfg.Workflow.Temperature)
	}
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	overlay := &Config{}
	overlay.NATS.URL = "nats://remote:4222"
	overlay.Integrations.Wiki.SpaceKey = "PROD"

	base.Merge(overlay)

	if base.NATS.URL != "nats://remote:4222" {
		t.Errorf("NATS URL = %q", base.NATS.URL)
	}
	if base.NATS.Embedded {
		t.Error("setting a NATS URL should disable the embedded server")
	}
	if base.Integrations.Wiki.SpaceKey != "PROD" {
		t.Errorf("wiki space = %q", base.Integrations.Wiki.SpaceKey)
	}
	// Zero values in the overlay must not clobber defaults
	if base.Server.Addr != ":8080" {
		t.Errorf("addr should keep default, got %q", base.Server.Addr)
	}
}

func TestBuildRegistry(t *testing.T) {
	cfg := DefaultConfig()

	// No models section falls back to package defaults
	registry := cfg.BuildRegistry()
	if registry.Resolve(model.CapabilityFast) == "" {
		t.Error("default registry should resolve fast capability")
	}

	cfg.Models = ModelsConfig{
		Capabilities: map[string]*model.CapabilityConfig{
			"fast": {Preferred: []string{"local"}},
		},
		Endpoints: map[string]*model.EndpointConfig{
			"local": {Provider: "ollama", Model: "llama3.2"},
		},
		Default: "local",
	}

	registry = cfg.BuildRegistry()
	if got := registry.Resolve(model.CapabilityFast); got != "local" {
		t.Errorf("Resolve(fast) = %q, want local", got)
	}
	if got := registry.Resolve(model.CapabilityPlanning); got != "local" {
		t.Errorf("unconfigured capability should use default, got %q", got)
	}
}

func TestLoaderApplyEnv(t *testing.T) {
	t.Setenv("REQFLOW_LISTEN_ADDR", ":7070")
	t.Setenv("REQFLOW_NATS_URL", "nats://env:4222")
	t.Setenv("REQFLOW_STAGE_TIMEOUT", "45s")

	cfg := DefaultConfig()
	NewLoader(nil).applyEnv(cfg)

	if cfg.Server.Addr != ":7070" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.NATS.URL != "nats://env:4222" || cfg.NATS.Embedded {
		t.Errorf("NATS env override not applied: %+v", cfg.NATS)
	}
	if cfg.Workflow.StageTimeout != 45*time.Second {
		t.Errorf("stage timeout = %v", cfg.Workflow.StageTimeout)
	}
}
