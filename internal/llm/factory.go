package llm

import (
	"fmt"
	"os"
	"strings"
)

// Options selects and configures a Completer implementation.
type Options struct {
	Provider string // auto, openrouter, anthropic, mock

	OpenRouterBaseURL string
	OpenRouterAPIKey  string
	OpenRouterModel   string

	AnthropicModel     string
	AnthropicMaxTokens int64
}

// NewCompleter builds the configured provider. In auto mode it prefers
// OpenRouter when a key is present, then Anthropic, then the mock.
func NewCompleter(opts Options) (Completer, string, error) {
	mode := strings.ToLower(strings.TrimSpace(opts.Provider))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "openrouter":
		if opts.OpenRouterAPIKey == "" {
			return nil, "", fmt.Errorf("LLM_PROVIDER=openrouter but OPENROUTER_API_KEY is not set")
		}
		return NewOpenRouterCompleter(opts.OpenRouterBaseURL, opts.OpenRouterAPIKey, opts.OpenRouterModel), "openrouter", nil
	case "anthropic":
		return NewAnthropicCompleter(opts.AnthropicModel, opts.AnthropicMaxTokens), "anthropic", nil
	case "mock":
		return NewMockCompleter(), "mock", nil
	case "auto":
		if opts.OpenRouterAPIKey != "" {
			return NewOpenRouterCompleter(opts.OpenRouterBaseURL, opts.OpenRouterAPIKey, opts.OpenRouterModel), "openrouter", nil
		}
		if os.Getenv("ANTHROPIC_API_KEY") != "" {
			return NewAnthropicCompleter(opts.AnthropicModel, opts.AnthropicMaxTokens), "anthropic", nil
		}
		return NewMockCompleter(), "mock", nil
	default:
		return nil, "", fmt.Errorf("unknown LLM provider %q", opts.Provider)
	}
}
