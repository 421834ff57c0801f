package service

import (
	"context"

	"github.com/bachngocs/support-chatbot-be/types"
)

// AIService produces a support reply for a customer message, optionally
// grounded on knowledge base context.
type AIService interface {
	Complete(ctx context.Context, message string, contextText string) (*types.CompletionResult, error)
}

// CompletionBackend is the transport to one external completion service.
// It accepts a model identifier and a fully assembled prompt and either
// returns generated text or a classifiable error.
type CompletionBackend interface {
	Generate(ctx context.Context, model string, prompt string) (string, error)
}
