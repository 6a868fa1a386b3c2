// Package config holds the configuration for the swish session manager.
// Configuration is a YAML file under the workspace with environment
// variable overrides; every timeout is stored as a duration string and
// exposed through a typed accessor.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all swish session manager configuration.
type Config struct {
	// Workspace is the root under which data and logs live.
	Workspace string `yaml:"workspace"`

	// Session configures the persistent interpreter session.
	Session SessionConfig `yaml:"session"`

	// Container configures SWISH container provisioning.
	Container ContainerConfig `yaml:"container"`

	// Files configures the knowledge-base file store.
	Files FilesConfig `yaml:"files"`

	// Logging configures debug file logging.
	Logging LoggingConfig `yaml:"logging"`
}

// SessionConfig configures the persistent Prolog session.
type SessionConfig struct {
	// Direct runs swipl from PATH instead of docker exec.
	Direct bool `yaml:"direct"`

	QueryTimeout   string `yaml:"query_timeout"`
	CanaryTimeout  string `yaml:"canary_timeout"`
	ConsultTimeout string `yaml:"consult_timeout"`
	StopGrace      string `yaml:"stop_grace"`
	SettleDelay    string `yaml:"settle_delay"`
}

// ContainerConfig configures the SWISH container.
type ContainerConfig struct {
	Name        string `yaml:"name"`
	Image       string `yaml:"image"`
	Port        int    `yaml:"port"`
	DataDir     string `yaml:"data_dir"`
	StopTimeout string `yaml:"stop_timeout"`
	ReadyProbe  string `yaml:"ready_probe"` // max wait for port readiness
}

// FilesConfig configures the knowledge-base file store.
type FilesConfig struct {
	// DataDir holds the .pl files; when empty it derives from the
	// container data directory.
	DataDir string `yaml:"data_dir"`
	Watch   bool   `yaml:"watch"`
}

// LoggingConfig configures debug file logging.
type LoggingConfig struct {
	Debug bool   `yaml:"debug"`
	Level string `yaml:"level"` // debug, info, warn, error
	Dir   string `yaml:"dir"`
}

// DefaultConfig returns the default configuration. The container
// defaults mirror the published swipl/swish image contract: SWISH
// listens on 3050 and resolves knowledge bases under /data.
func DefaultConfig() *Config {
	return &Config{
		Workspace: ".",
		Session: SessionConfig{
			QueryTimeout:   "30s",
			CanaryTimeout:  "5s",
			ConsultTimeout: "10s",
			StopGrace:      "2s",
			SettleDelay:    "500ms",
		},
		Container: ContainerConfig{
			Name:        "swish-mcp",
			Image:       "swipl/swish:latest",
			Port:        3050,
			DataDir:     "swish-data/data",
			StopTimeout: "10s",
			ReadyProbe:  "30s",
		},
		Files: FilesConfig{
			Watch: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults
// when the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if name := os.Getenv("SWISH_CONTAINER"); name != "" {
		c.Container.Name = name
	}
	if image := os.Getenv("SWISH_IMAGE"); image != "" {
		c.Container.Image = image
	}
	if port := os.Getenv("SWISH_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			c.Container.Port = p
		}
	}
	if dir := os.Getenv("SWISH_DATA_DIR"); dir != "" {
		c.Container.DataDir = dir
	}
	if t := os.Getenv("SWISH_QUERY_TIMEOUT"); t != "" {
		if _, err := time.ParseDuration(t); err == nil {
			c.Session.QueryTimeout = t
		}
	}
	if os.Getenv("SWISH_DEBUG") == "1" {
		c.Logging.Debug = true
	}
}

// DataDir resolves the knowledge-base directory: explicit files setting
// first, container mount second, both relative to the workspace.
func (c *Config) DataDir() string {
	dir := c.Files.DataDir
	if dir == "" {
		dir = c.Container.DataDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.Workspace, dir)
	}
	return dir
}

// LogDir resolves the debug log directory.
func (c *Config) LogDir() string {
	if c.Logging.Dir != "" {
		return c.Logging.Dir
	}
	return filepath.Join(c.Workspace, "logs")
}

func duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetQueryTimeout returns the per-query timeout as a duration.
func (c *Config) GetQueryTimeout() time.Duration {
	return duration(c.Session.QueryTimeout, 30*time.Second)
}

// GetCanaryTimeout returns the startup self-test timeout.
func (c *Config) GetCanaryTimeout() time.Duration {
	return duration(c.Session.CanaryTimeout, 5*time.Second)
}

// GetConsultTimeout returns the consult replay timeout.
func (c *Config) GetConsultTimeout() time.Duration {
	return duration(c.Session.ConsultTimeout, 10*time.Second)
}

// GetStopGrace returns the shutdown ladder rung wait.
func (c *Config) GetStopGrace() time.Duration {
	return duration(c.Session.StopGrace, 2*time.Second)
}

// GetSettleDelay returns the post-spawn settle delay.
func (c *Config) GetSettleDelay() time.Duration {
	return duration(c.Session.SettleDelay, 500*time.Millisecond)
}

// GetContainerStopTimeout returns the docker stop timeout.
func (c *Config) GetContainerStopTimeout() time.Duration {
	return duration(c.Container.StopTimeout, 10*time.Second)
}

// GetReadyProbeTimeout returns the max wait for container readiness.
func (c *Config) GetReadyProbeTimeout() time.Duration {
	return duration(c.Container.ReadyProbe, 30*time.Second)
}
