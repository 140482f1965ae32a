// Package config provides configuration loading and management for Reqflow.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/reqflow/model"
)

// Config represents the complete Reqflow configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	NATS         NATSConfig         `yaml:"nats"`
	Workflow     WorkflowConfig     `yaml:"workflow"`
	Models       ModelsConfig       `yaml:"models"`
	Integrations IntegrationsConfig `yaml:"integrations"`
}

// ServerConfig configures the HTTP API server
type ServerConfig struct {
	// Addr is the listen address (default: :8080)
	Addr string `yaml:"addr"`
	// ReadTimeout bounds request reading
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// WriteTimeout bounds response writing
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL (empty = use embedded server)
	URL string `yaml:"url"`
	// Embedded indicates whether to use embedded NATS
	Embedded bool `yaml:"embedded"`
}

// WorkflowConfig configures pipeline execution
type WorkflowConfig struct {
	// StageTimeout bounds each pipeline stage invocation
	StageTimeout time.Duration `yaml:"stage_timeout"`
	// Temperature is the sampling temperature for agent LLM calls (0.0-1.0)
	Temperature float64 `yaml:"temperature"`
}

// ModelsConfig configures the model registry
type ModelsConfig struct {
	// Capabilities maps capability names to endpoint preferences
	Capabilities map[string]*model.CapabilityConfig `yaml:"capabilities"`
	// Endpoints maps endpoint names to provider configuration
	Endpoints map[string]*model.EndpointConfig `yaml:"endpoints"`
	// Default is the endpoint used when no capability matches
	Default string `yaml:"default"`
}

// IntegrationsConfig configures external artifact services
type IntegrationsConfig struct {
	Docs    DocsConfig    `yaml:"docs"`
	Tracker TrackerConfig `yaml:"tracker"`
	Wiki    WikiConfig    `yaml:"wiki"`
}

// DocsConfig configures the document store integration
type DocsConfig struct {
	// Enabled toggles PRD document creation
	Enabled bool `yaml:"enabled"`
	// BaseURL is the document API endpoint
	BaseURL string `yaml:"base_url"`
	// FolderID is the destination folder for created documents
	FolderID string `yaml:"folder_id"`
}

// TrackerConfig configures the issue tracker integration
type TrackerConfig struct {
	// Enabled toggles ticket creation
	Enabled bool `yaml:"enabled"`
	// BaseURL is the tracker API endpoint
	BaseURL string `yaml:"base_url"`
	// Project is the tracker project key tickets are filed under
	Project string `yaml:"project"`
}

// WikiConfig configures the wiki integration for design documents
type WikiConfig struct {
	// Enabled toggles design page creation
	Enabled bool `yaml:"enabled"`
	// BaseURL is the wiki API endpoint
	BaseURL string `yaml:"base_url"`
	// SpaceKey is the wiki space pages are created in
	SpaceKey string `yaml:"space_key"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		NATS: NATSConfig{
			URL:      "",
			Embedded: true,
		},
		Workflow: WorkflowConfig{
			StageTimeout: 3 * time.Minute,
			Temperature:  0.2,
		},
		Models: ModelsConfig{},
		Integrations: IntegrationsConfig{
			Docs:    DocsConfig{Enabled: true},
			Tracker: TrackerConfig{Enabled: true, Project: "REQ"},
			Wiki:    WikiConfig{Enabled: true, SpaceKey: "ENG"},
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Workflow.StageTimeout <= 0 {
		return fmt.Errorf("workflow.stage_timeout must be positive")
	}
	if c.Workflow.Temperature < 0 || c.Workflow.Temperature > 1 {
		return fmt.Errorf("workflow.temperature must be between 0 and 1")
	}
	if c.Integrations.Tracker.Enabled && c.Integrations.Tracker.Project == "" {
		return fmt.Errorf("integrations.tracker.project is required when the tracker is enabled")
	}
	if c.Integrations.Wiki.Enabled && c.Integrations.Wiki.SpaceKey == "" {
		return fmt.Errorf("integrations.wiki.space_key is required when the wiki is enabled")
	}
	return nil
}

// BuildRegistry constructs a model registry from the models section.
// Returns the package defaults when no models are configured.
func (c *Config) BuildRegistry() *model.Registry {
	if len(c.Models.Capabilities) == 0 && len(c.Models.Endpoints) == 0 {
		return model.NewDefaultRegistry()
	}

	caps := make(map[model.Capability]*model.CapabilityConfig, len(c.Models.Capabilities))
	for k, v := range c.Models.Capabilities {
		caps[model.Capability(k)] = v
	}

	registry := model.NewRegistry(caps, c.Models.Endpoints)
	if c.Models.Default != "" {
		registry.SetDefault(c.Models.Default)
	}
	return registry
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Server
	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if other.Server.ReadTimeout != 0 {
		c.Server.ReadTimeout = other.Server.ReadTimeout
	}
	if other.Server.WriteTimeout != 0 {
		c.Server.WriteTimeout = other.Server.WriteTimeout
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
		c.NATS.Embedded = false
	}

	// Workflow
	if other.Workflow.StageTimeout != 0 {
		c.Workflow.StageTimeout = other.Workflow.StageTimeout
	}
	if other.Workflow.Temperature != 0 {
		c.Workflow.Temperature = other.Workflow.Temperature
	}

	// Models
	if len(other.Models.Capabilities) > 0 {
		c.Models.Capabilities = other.Models.Capabilities
	}
	if len(other.Models.Endpoints) > 0 {
		c.Models.Endpoints = other.Models.Endpoints
	}
	if other.Models.Default != "" {
		c.Models.Default = other.Models.Default
	}

	// Integrations
	if other.Integrations.Docs.BaseURL != "" {
		c.Integrations.Docs.BaseURL = other.Integrations.Docs.BaseURL
	}
	if other.Integrations.Docs.FolderID != "" {
		c.Integrations.Docs.FolderID = other.Integrations.Docs.FolderID
	}
	if other.Integrations.Tracker.BaseURL != "" {
		c.Integrations.Tracker.BaseURL = other.Integrations.Tracker.BaseURL
	}
	if other.Integrations.Tracker.Project != "" {
		c.Integrations.Tracker.Project = other.Integrations.Tracker.Project
	}
	if other.Integrations.Wiki.BaseURL != "" {
		c.Integrations.Wiki.BaseURL = other.Integrations.Wiki.BaseURL
	}
	if other.Integrations.Wiki.SpaceKey != "" {
		c.Integrations.Wiki.SpaceKey = other.Integrations.Wiki.SpaceKey
	}
}
