package llm

import "context"

// Provider sends one prompt and returns the model's text. No streaming, no tools.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
