package genkit

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/plugins/compat_oai"
	"github.com/openai/openai-go/option"
)

// OpenAIConfig holds configuration for an OpenAI-compatible vendor
type OpenAIConfig struct {
	APIKey  string        `toml:"api_key"`
	BaseURL string        `toml:"base_url"`
	Models  []ModelConfig `toml:"models"`
}

// Validate checks OpenAI configuration
func (c *OpenAIConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required")
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("at least one model is required")
	}
	for i := range c.Models {
		if err := c.Models[i].Validate(i); err != nil {
			return err
		}
	}
	return nil
}

// OpenAIPlugin implements a Genkit plugin for any OpenAI-compatible endpoint
type OpenAIPlugin struct {
	compat_oai.OpenAICompatible
	models []ModelConfig
}

// NewOpenAIPlugin creates a new OpenAI-compatible plugin for Genkit
func NewOpenAIPlugin(cfg OpenAIConfig) *OpenAIPlugin {
	return &OpenAIPlugin{
		OpenAICompatible: compat_oai.OpenAICompatible{
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Provider: "openai",
			Opts: []option.RequestOption{
				option.WithHeader("Content-Type", "application/json"),
			},
		},
		models: cfg.Models,
	}
}

// Name returns the plugin name
func (p *OpenAIPlugin) Name() string {
	return "openai"
}

// Init implements api.Plugin interface - registers all configured models
func (p *OpenAIPlugin) Init(ctx context.Context) []api.Action {
	// Initialize the base OpenAI compatible client first
	p.OpenAICompatible.Init(ctx)

	actions := make([]api.Action, 0, len(p.models))

	for _, m := range p.models {
		model := p.DefineModel(p.Provider, m.Model, ai.ModelOptions{
			Label: fmt.Sprintf("OpenAI %s", m.Name),
			Supports: &ai.ModelSupports{
				Multiturn:  true,
				Tools:      true,
				SystemRole: true,
				Media:      false,
			},
		})
		actions = append(actions, model.(api.Action))
	}

	return actions
}
