// Package provider abstracts the model-provider invocation. The chat
// pipeline treats it as opaque: context in, assistant message out.
package provider

import (
	"context"
	"errors"

	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/models"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/retrieval"
)

// ErrProvider reports a model invocation failure. Surfaced to callers as a
// retryable server error, same as retrieval failures.
var ErrProvider = errors.New("model provider error")

// Invoker calls the external model provider with an ordered message context
// and an optional grounding block. Streaming and provider-side retries live
// behind this interface.
type Invoker interface {
	Invoke(ctx context.Context, msgs []models.Message, grounding *retrieval.GroundingBlock) (models.Message, error)
}
