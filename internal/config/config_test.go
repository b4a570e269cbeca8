package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithNoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8085, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8090", cfg.Embedding.BaseURL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Greater(t, cfg.Build.MaxLevels, 0)
}

func TestLoadFromYAMLFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coursetree.yaml")
	contents := "server:\n  port: 9999\nbuild:\n  similarity_threshold: 0.5\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 0.5, cfg.Build.SimilarityThreshold)
}

func TestLoadMissingExplicitFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}

func TestLoadAppliesEnvKeyOverride(t *testing.T) {
	t.Setenv("COURSETREE_SERVER_PORT", "7000")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoadAppliesAPIKeyEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-key")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-test-key", cfg.Backend.OpenAIKey)
}

func TestHierarchyBuildConfigMapping(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	bc := cfg.HierarchyBuildConfig()
	assert.Equal(t, cfg.Build.MaxLevels, bc.MaxLevels)
	assert.Equal(t, cfg.Build.SimilarityThreshold, bc.Cluster.SimilarityThreshold)
	assert.Equal(t, cfg.Build.Linkage, string(bc.Cluster.Linkage))
}

func TestHierarchyTraverseConfigMapping(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	tc := cfg.HierarchyTraverseConfig()
	assert.Equal(t, cfg.Traverse.Strategy, string(tc.Strategy))
	assert.Equal(t, cfg.Traverse.MaxNodes, tc.MaxNodes)
}
