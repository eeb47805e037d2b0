// Package providerutils is the completion provider utility package
package providerutils

import (
	"fmt"

	"github.com/forgelabs/crucible/pkg/llm/provider"
	"github.com/forgelabs/crucible/pkg/llm/provider/anthropic"
	"github.com/forgelabs/crucible/pkg/llm/provider/openai"
)

type NewProviderOpts struct {
	ProviderType string
	APIKey       string
	TargetURL    string
	Model        string
	MaxTokens    int
}

func NewProvider(o *NewProviderOpts) (provider.Provider, error) {
	switch o.ProviderType {
	case "openai":
		return openai.New(openai.Config{
			APIKey:  o.APIKey,
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	case "anthropic":
		return anthropic.New(anthropic.Config{
			APIKey:    o.APIKey,
			BaseURL:   o.TargetURL,
			Model:     o.Model,
			MaxTokens: o.MaxTokens,
		})
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", o.ProviderType)
	}
}
