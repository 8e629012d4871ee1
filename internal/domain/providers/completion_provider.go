package providers

import (
	"context"
)

// CompletionProvider submits a prompt to a large-language model and returns
// the raw completion text. Implementations block for the full round trip and
// neither retry nor cache.
type CompletionProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
