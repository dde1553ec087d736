package genkit

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/pkg/errors"
)

// ModelConfig holds configuration for a single chat model
type ModelConfig struct {
	Name    string `toml:"name"`     // Registration name (e.g., "gpt-4o-mini")
	Model   string `toml:"model"`    // Actual model identifier
	BaseURL string `toml:"base_url"` // Override base URL for this model (optional)
}

// Validate validates a model config
func (m *ModelConfig) Validate(index int) error {
	if m.Name == "" {
		return fmt.Errorf("models[%d].name is required", index)
	}
	if m.Model == "" {
		return fmt.Errorf("models[%d].model is required", index)
	}
	return nil
}

// Config holds genkit configuration
type Config struct {
	OpenAI    OpenAIConfig `toml:"openai"`
	PromptDir string       `toml:"prompt_dir"`
}

// Validate checks genkit configuration
func (c *Config) Validate() error {
	// PromptDir is optional - prompts can be defined in Go code

	if len(c.OpenAI.Models) > 0 {
		if err := c.OpenAI.Validate(); err != nil {
			return fmt.Errorf("openai: %w", err)
		}
	}

	return nil
}

var g *genkit.Genkit

// Init initializes the genkit package
func Init(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.WithMessage(err, "invalid config")
	}

	var plugins []api.Plugin

	if len(cfg.OpenAI.Models) > 0 {
		plugins = append(plugins, NewOpenAIPlugin(cfg.OpenAI))
	}

	g = genkit.Init(ctx,
		genkit.WithPlugins(plugins...),
		genkit.WithPromptDir(cfg.PromptDir),
	)

	return nil
}

// InitForTest initializes genkit with a mock plugin for testing.
// Returns the mock plugin for configuring responses.
func InitForTest(ctx context.Context, cfg MockConfig, promptDir string) *MockPlugin {
	mockPlugin := NewMockPlugin(cfg)

	g = genkit.Init(ctx,
		genkit.WithPlugins(mockPlugin),
		genkit.WithPromptDir(promptDir),
	)

	return mockPlugin
}

// Genkit returns the Genkit instance
func Genkit() *genkit.Genkit {
	return g
}
