// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	oldDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { os.Chdir(oldDir) })
	return tmpDir
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	agentswarmDir := filepath.Join(dir, ".agentswarm")
	require.NoError(t, os.Mkdir(agentswarmDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(agentswarmDir, "config.yaml"), []byte(content), 0644))
}

func TestLoad_ValidConfigurationFile(t *testing.T) {
	dir := chdirTemp(t)
	writeConfig(t, dir, `
project:
  name: "agentswarm"
  working_directory: "/tmp/agentswarm"

retry:
  max_attempts: 7
  base_delay: 500ms
  max_delay: 30s

swarm:
  max_retries: 4
  retry_delay: 2s
  timeout: 10m

inference:
  primary_model: "anthropic/claude-sonnet-4-5"
  fallbacks:
    - "anthropic/claude-haiku-4-5"
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "agentswarm", cfg.Project.Name)
	assert.Equal(t, "/tmp/agentswarm", cfg.Project.WorkingDirectory)
	assert.Equal(t, 7, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 4, cfg.Swarm.MaxRetries)
	assert.Equal(t, "anthropic/claude-sonnet-4-5", cfg.Inference.PrimaryModel)
	assert.Equal(t, []string{"anthropic/claude-haiku-4-5"}, cfg.Inference.Fallbacks)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	chdirTemp(t)
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestLoad_InvalidYAMLSyntax(t *testing.T) {
	dir := chdirTemp(t)
	writeConfig(t, dir, `
project:
  name: "test"
  invalid yaml syntax here: [
`)
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoad_EmptyWorkingDirectoryDefaultsToCwd(t *testing.T) {
	dir := chdirTemp(t)
	writeConfig(t, dir, `
project:
  name: "test-project"
`)

	cfg, err := Load()
	require.NoError(t, err)
	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, cwd, cfg.Project.WorkingDirectory)
}

func TestLoad_PartialFileKeepsDefaultsForOmittedSections(t *testing.T) {
	dir := chdirTemp(t)
	writeConfig(t, dir, `
project:
  name: "minimal"
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Swarm, cfg.Swarm)
	assert.Equal(t, Default().Deployment, cfg.Deployment)
	assert.Equal(t, 100, cfg.SelfImprovement.ProbeCount)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.Project.Name = "agentswarm"
		c.Inference.PrimaryModel = "anthropic/claude-sonnet-4-5"
		return c
	}

	t.Run("valid configuration", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing project name", func(t *testing.T) {
		c := valid()
		c.Project.Name = ""
		err := c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "project name is required")
	})

	t.Run("non-positive retry attempts", func(t *testing.T) {
		c := valid()
		c.Retry.MaxAttempts = 0
		err := c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "retry.max_attempts")
	})

	t.Run("negative swarm max retries", func(t *testing.T) {
		c := valid()
		c.Swarm.MaxRetries = -1
		err := c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "swarm.max_retries")
	})

	t.Run("missing primary model", func(t *testing.T) {
		c := valid()
		c.Inference.PrimaryModel = ""
		err := c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "inference.primary_model")
	})
}

func TestRetryConfig_ToOptions(t *testing.T) {
	r := RetryConfig{MaxAttempts: 5, BaseDelay: 2 * time.Second, MaxDelay: time.Minute}
	opts := r.ToOptions()
	assert.Equal(t, 4, opts.MaxRetries)
	assert.Equal(t, 2*time.Second, opts.BaseInterval)
	assert.Equal(t, time.Minute, opts.MaxDelay)
}

func TestRetryConfig_ToOptions_ClampsNonPositiveAttempts(t *testing.T) {
	r := RetryConfig{MaxAttempts: 0}
	opts := r.ToOptions()
	assert.Equal(t, 0, opts.MaxRetries)
}

func TestDefault_MatchesSpecDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 3, cfg.Swarm.MaxRetries)
	assert.Equal(t, time.Second, cfg.Swarm.RetryDelay)
	assert.Equal(t, 100, cfg.SelfImprovement.ProbeCount)
	assert.Equal(t, "blue_green", cfg.Deployment.DefaultStrategy)
	assert.True(t, cfg.Deployment.RollbackOnFailure)
}
