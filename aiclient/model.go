// Package aiclient reaches the external generative model.
package aiclient

import (
	"context"
)

// DiagnosticModel turns a one-shot prompt into model text.
type DiagnosticModel interface {
	GenerateDiagnosticText(ctx context.Context, prompt string) (string, error)
}

// New returns the configured model, or nil when no provider credential is set.
func New(cfg GeminiConfig) DiagnosticModel {
	client := NewGeminiClient(cfg)
	if client == nil {
		return nil
	}
	return client
}
