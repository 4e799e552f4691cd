// Package generation provides text generation via an external LLM service.
package generation

import "context"

// Generator produces completion text for a prompt. Model and temperature come
// from the engine settings and are passed per call so runtime settings
// updates take effect without rebuilding the client.
type Generator interface {
	Generate(ctx context.Context, prompt, model string, temperature float64) (string, error)
	Close() error
}

// ServiceError wraps a failure of the generation service (unreachable, model
// not available, malformed response). The pipeline surfaces it to the caller
// instead of returning a partial answer.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return "generation service: " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
