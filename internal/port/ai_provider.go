package port

import "context"

// CompletionProvider abstracts a structured-extraction AI provider. The
// returned string is the provider's raw completion text, which may be JSON
// wrapped in markdown fences; interpreting it is the caller's job.
type CompletionProvider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}
