package vision

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/v0xg/deskpilot/internal/config"
)

// Request is one generation call: a prompt plus an optional screenshot.
type Request struct {
	System   string
	Prompt   string
	ImagePNG []byte // nil for text-only requests
}

// Provider defines the interface to a hosted vision-language model.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// NewProvider creates a provider from config.
func NewProvider(cfg config.ProviderConfig, log *zap.Logger) (Provider, error) {
	switch cfg.Name {
	case "gemini":
		return NewGeminiProvider(cfg, log)
	case "claude", "anthropic":
		return NewClaudeProvider(cfg)
	case "openai", "gpt":
		return NewOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: gemini, claude, openai)", cfg.Name)
	}
}
