package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const defaultTimeout = 120 * time.Second

// OllamaGenerator generates answers through a local Ollama server.
type OllamaGenerator struct {
	llm     *ollama.LLM
	timeout time.Duration
}

// NewOllamaGenerator creates a generator backed by the Ollama server at baseURL.
// defaultModel is used when a call does not override the model.
func NewOllamaGenerator(baseURL, defaultModel string) (*OllamaGenerator, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(baseURL),
		ollama.WithModel(defaultModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return &OllamaGenerator{llm: llm, timeout: defaultTimeout}, nil
}

// Generate returns the completion for prompt using the given model and temperature.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt, model string, temperature float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	opts := []llms.CallOption{llms.WithTemperature(temperature)}
	if model != "" {
		opts = append(opts, llms.WithModel(model))
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, opts...)
	if err != nil {
		return "", &ServiceError{Err: err}
	}
	return out, nil
}

// Close is a no-op for OllamaGenerator.
func (g *OllamaGenerator) Close() error {
	return nil
}
