package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig `toml:"logging"`
	Grading     GradingConfig `toml:"grading"`
	Gemini      GeminiConfig  `toml:"gemini"`
	Claude      ClaudeConfig  `toml:"claude"`
	LLM         LLMConfig     `toml:"llm"`
	Audit       AuditConfig   `toml:"audit"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// GradingConfig contains the grading pipeline defaults. CLI flags override
// the course and assignment number per run.
type GradingConfig struct {
	Course           string `toml:"course"`            // Default course string for the context prompt
	AssignmentNumber string `toml:"assignment_number"` // Default assignment number (default: "X")
	MaxImageEdge     int    `toml:"max_image_edge"`    // Longer-side cap for submission images (default: 512)
	PageTextLimit    int    `toml:"page_text_limit"`   // Max page text characters interpolated into evaluation prompts (default: 1000)
	RubricFile       string `toml:"rubric_file"`       // Output path for the generated rubric
	ReportFile       string `toml:"report_file"`       // Output path for the full evaluation report
	PDFReport        bool   `toml:"pdf_report"`        // Also render the report as a PDF next to ReportFile
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for chat and vision operations (default: "gemini-2.0-flash")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for chat and vision operations (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "gemini")
}

// AuditConfig controls the model-call audit log
type AuditConfig struct {
	Enabled    bool   `toml:"enabled"`     // Record every model call to the audit store
	Path       string `toml:"path"`        // Badger database directory (default: "./data/audit")
	LogPrompts bool   `toml:"log_prompts"` // Include truncated prompt text in audit entries
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings are exposed in gradus.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout"},
		},
		Grading: GradingConfig{
			Course:           "COGS 160, Cognitive/Neuroscience for Architecture",
			AssignmentNumber: "X",
			MaxImageEdge:     512,
			PageTextLimit:    1000,
			RubricFile:       "rubric.txt",
			ReportFile:       "evaluation_result.txt",
			PDFReport:        false,
		},
		Gemini: GeminiConfig{
			APIKey:      "", // User must provide API key (GEMINI_API_KEY or config)
			Model:       "gemini-2.0-flash",
			Timeout:     "5m",
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Timeout:     "5m",
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Audit: AuditConfig{
			Enabled:    false,
			Path:       "./data/audit",
			LogPrompts: false,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("GRADUS_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Logging configuration
	if level := os.Getenv("GRADUS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("GRADUS_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("GRADUS_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Grading configuration
	if course := os.Getenv("GRADUS_COURSE"); course != "" {
		config.Grading.Course = course
	}
	if number := os.Getenv("GRADUS_ASSIGNMENT_NUMBER"); number != "" {
		config.Grading.AssignmentNumber = number
	}
	if edge := os.Getenv("GRADUS_MAX_IMAGE_EDGE"); edge != "" {
		if e, err := strconv.Atoi(edge); err == nil && e > 0 {
			config.Grading.MaxImageEdge = e
		}
	}
	if rubricFile := os.Getenv("GRADUS_RUBRIC_FILE"); rubricFile != "" {
		config.Grading.RubricFile = rubricFile
	}
	if reportFile := os.Getenv("GRADUS_REPORT_FILE"); reportFile != "" {
		config.Grading.ReportFile = reportFile
	}

	// LLM provider configuration
	if provider := os.Getenv("GRADUS_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if model := os.Getenv("GRADUS_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if model := os.Getenv("GRADUS_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	// Audit configuration
	if enabled := os.Getenv("GRADUS_AUDIT_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Audit.Enabled = b
		}
	}
	if path := os.Getenv("GRADUS_AUDIT_PATH"); path != "" {
		config.Audit.Path = path
	}
}

// ResolveAPIKey resolves an API key by name with environment variable priority.
// Resolution order: environment variables -> config fallback -> error.
func ResolveAPIKey(name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"GEMINI_API_KEY", "GRADUS_GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"anthropic_api_key": {"ANTHROPIC_API_KEY", "GRADUS_CLAUDE_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
