package generation

import (
	"context"
	"errors"
)

// MockGenerator is a scripted generator for tests. It records the last prompt
// and returns a fixed response or a service error when Fail is set.
type MockGenerator struct {
	Response   string
	Fail       bool
	LastPrompt string
	LastModel  string
	Calls      int
}

// Generate returns the scripted response, or a ServiceError when Fail is set.
func (g *MockGenerator) Generate(ctx context.Context, prompt, model string, temperature float64) (string, error) {
	g.Calls++
	g.LastPrompt = prompt
	g.LastModel = model
	if g.Fail {
		return "", &ServiceError{Err: errors.New("simulated outage")}
	}
	return g.Response, nil
}

// Close is a no-op for MockGenerator.
func (g *MockGenerator) Close() error {
	return nil
}
