// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/openswarm-labs/agentswarm/pkg/retry"
)

// Config represents the complete agentswarm configuration.
type Config struct {
	Project         ProjectConfig         `yaml:"project"`
	Retry           RetryConfig           `yaml:"retry"`
	Tiers           TiersConfig           `yaml:"tiers"`
	SharedMemory    SharedMemoryConfig    `yaml:"sharedMemory"`
	Swarm           SwarmConfig           `yaml:"swarm"`
	SelfImprovement SelfImprovementConfig `yaml:"selfImprovement"`
	Deployment      DeploymentConfig      `yaml:"deployment"`
	Inference       InferenceConfig       `yaml:"inference"`
}

// ProjectConfig holds project-level configuration.
type ProjectConfig struct {
	Name             string `yaml:"name"`
	WorkingDirectory string `yaml:"working_directory"`
}

// RetryConfig tunes the Fibonacci backoff retry engine (spec §4.1).
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// ToOptions builds the retry.Options this configuration describes. Retry's
// MaxRetries counts retries after the first attempt, so MaxAttempts (total
// invocations) is translated by subtracting one.
func (r RetryConfig) ToOptions() retry.Options {
	maxRetries := r.MaxAttempts - 1
	if maxRetries < 0 {
		maxRetries = 0
	}
	return retry.Options{
		BaseInterval: r.BaseDelay,
		MaxDelay:     r.MaxDelay,
		MaxRetries:   maxRetries,
	}
}

// TiersConfig overrides per-tier survival/capability thresholds (spec §4.2).
type TiersConfig struct {
	Overrides map[string]TierOverride `yaml:"overrides"`
}

// TierOverride replaces a single survival tier's default thresholds.
type TierOverride struct {
	MinFitness     float64 `yaml:"min_fitness"`
	MinEarnings    float64 `yaml:"min_earnings"`
	CapabilityGate float64 `yaml:"capability_gate"`
}

// SharedMemoryConfig tunes the in-process substrate (spec §4.3).
type SharedMemoryConfig struct {
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	DefaultTTL      time.Duration `yaml:"default_ttl"`
}

// SwarmConfig tunes the swarm coordinator's defaults (spec §4.6).
type SwarmConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	Timeout    time.Duration `yaml:"timeout"`
}

// SelfImprovementConfig tunes the sandbox/pipeline (spec §4.7).
type SelfImprovementConfig struct {
	ProbeCount int `yaml:"probe_count"`
}

// DeploymentConfig sets zero-downtime rollout defaults (spec §4.9).
type DeploymentConfig struct {
	DefaultStrategy    string        `yaml:"default_strategy"`
	HealthCheckRetries int           `yaml:"health_check_retries"`
	HealthCheckBackoff time.Duration `yaml:"health_check_backoff"`
	TrafficShiftDelay  time.Duration `yaml:"traffic_shift_delay"`
	CanaryMonitor      time.Duration `yaml:"canary_monitor"`
	RollbackOnFailure  bool          `yaml:"rollback_on_failure"`
}

// InferenceConfig configures the model failover contract (spec §6).
type InferenceConfig struct {
	PrimaryModel string   `yaml:"primary_model"`
	Fallbacks    []string `yaml:"fallbacks"`
}

// Load reads the configuration from .agentswarm/config.yaml under the
// current working directory.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	configPath := filepath.Join(cwd, ".agentswarm", "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Project.WorkingDirectory == "" {
		cfg.Project.WorkingDirectory = cwd
	}

	return cfg, nil
}

// Default returns the configuration spec defaults describe for each
// component, so a Config is usable even with a partial or absent file.
func Default() *Config {
	return &Config{
		Retry: RetryConfig{
			MaxAttempts: 5,
			BaseDelay:   time.Second,
			MaxDelay:    time.Minute,
		},
		SharedMemory: SharedMemoryConfig{
			CleanupInterval: time.Minute,
			DefaultTTL:      24 * time.Hour,
		},
		Swarm: SwarmConfig{
			MaxRetries: 3,
			RetryDelay: time.Second,
			Timeout:    5 * time.Minute,
		},
		SelfImprovement: SelfImprovementConfig{
			ProbeCount: 100,
		},
		Deployment: DeploymentConfig{
			DefaultStrategy:    "blue_green",
			HealthCheckRetries: 3,
			HealthCheckBackoff: 2 * time.Second,
			TrafficShiftDelay:  5 * time.Second,
			CanaryMonitor:      30 * time.Second,
			RollbackOnFailure:  true,
		},
	}
}

// Validate checks the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Project.Name == "" {
		return fmt.Errorf("project name is required")
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be positive")
	}
	if c.Swarm.MaxRetries < 0 {
		return fmt.Errorf("swarm.max_retries must not be negative")
	}
	if c.Inference.PrimaryModel == "" {
		return fmt.Errorf("inference.primary_model is required")
	}
	return nil
}
