package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "COGS 160, Cognitive/Neuroscience for Architecture", cfg.Grading.Course)
	assert.Equal(t, "X", cfg.Grading.AssignmentNumber)
	assert.Equal(t, 512, cfg.Grading.MaxImageEdge)
	assert.Equal(t, 1000, cfg.Grading.PageTextLimit)
	assert.Equal(t, "rubric.txt", cfg.Grading.RubricFile)
	assert.Equal(t, "evaluation_result.txt", cfg.Grading.ReportFile)
	assert.Equal(t, LLMProviderGemini, cfg.LLM.DefaultProvider)
	assert.False(t, cfg.Audit.Enabled)
}

func TestLoadFromFiles_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gradus.toml")
	content := `
environment = "production"

[grading]
course = "ARCH 101"
max_image_edge = 256

[llm]
default_provider = "claude"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "ARCH 101", cfg.Grading.Course)
	assert.Equal(t, 256, cfg.Grading.MaxImageEdge)
	assert.Equal(t, LLMProviderClaude, cfg.LLM.DefaultProvider)

	// Untouched keys keep their defaults
	assert.Equal(t, "X", cfg.Grading.AssignmentNumber)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
}

func TestLoadFromFiles_LaterFileWins(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "base.toml")
	second := filepath.Join(dir, "override.toml")
	require.NoError(t, os.WriteFile(first, []byte("[grading]\ncourse = \"ARCH 101\"\n"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("[grading]\ncourse = \"ARCH 202\"\n"), 0644))

	cfg, err := LoadFromFiles(first, second)
	require.NoError(t, err)
	assert.Equal(t, "ARCH 202", cfg.Grading.Course)
}

func TestLoadFromFiles_MissingFileFails(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("GRADUS_COURSE", "ENV 300")
	t.Setenv("GRADUS_LOG_LEVEL", "debug")
	t.Setenv("GRADUS_LLM_PROVIDER", "claude")
	t.Setenv("GRADUS_MAX_IMAGE_EDGE", "128")
	t.Setenv("GRADUS_AUDIT_ENABLED", "true")

	cfg, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "ENV 300", cfg.Grading.Course)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, LLMProviderClaude, cfg.LLM.DefaultProvider)
	assert.Equal(t, 128, cfg.Grading.MaxImageEdge)
	assert.True(t, cfg.Audit.Enabled)
}

func TestResolveAPIKey(t *testing.T) {
	t.Run("Environment variable wins", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "env-key")
		key, err := ResolveAPIKey("gemini_api_key", "config-key")
		require.NoError(t, err)
		assert.Equal(t, "env-key", key)
	})

	t.Run("Config fallback when env unset", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		t.Setenv("GRADUS_GEMINI_API_KEY", "")
		t.Setenv("GOOGLE_API_KEY", "")
		key, err := ResolveAPIKey("gemini_api_key", "config-key")
		require.NoError(t, err)
		assert.Equal(t, "config-key", key)
	})

	t.Run("Missing everywhere is an error", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")
		t.Setenv("GRADUS_CLAUDE_API_KEY", "")
		_, err := ResolveAPIKey("anthropic_api_key", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "anthropic_api_key")
	})
}
