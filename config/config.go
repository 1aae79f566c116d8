package config

import (
	"os"
	"path/filepath"

	"github.com/awein/winnow/errors"
	"gopkg.in/yaml.v3"
)

// Compaction holds the context-window policy. Zero values fall back to
// the engine defaults.
type Compaction struct {
	WindowBudget    int     `yaml:"window_budget"`
	TriggerFraction float64 `yaml:"trigger_fraction"`
	RetainTailCount int     `yaml:"retain_tail_count"`
	// Encoding selects the tiktoken encoding used for estimation.
	Encoding string `yaml:"encoding"`
}

// Config is the merged winnow configuration.
type Config struct {
	// LLMClient selects the provider: "anthropic", "openai", "gemini",
	// "bedrock", or "mock".
	LLMClient string `yaml:"llm"`
	Model     string `yaml:"model"`

	// ContextFiles are doublestar glob patterns, relative to the working
	// directory, whose contents are injected as project context at
	// session start.
	ContextFiles []string `yaml:"context_files"`

	Compaction Compaction `yaml:"compaction"`
}

// LoadConfig loads configuration from the user's home directory and the
// current working directory, with the latter taking precedence.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	// Load user-level config first
	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, ".winnow", "config.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := loadFromFile(userConfigPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config")
			}
		}
	}

	// Load project-level config, overriding user-level
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectConfigPath := filepath.Join(wd, ".winnow", "config.yaml")
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := loadFromFile(projectConfigPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config")
		}
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Note: Unmarshal will overwrite fields present in the YAML. This provides
	// a simple merge where project-level config replaces user-level.
	return yaml.Unmarshal(data, cfg)
}
