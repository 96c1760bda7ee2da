package provider

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/logger"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/models"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/retrieval"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/utils"
)

// OpenAI implements Invoker against the OpenAI chat completion API. The
// client is constructed once at startup and injected; no package-level
// provider handle exists.
type OpenAI struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAI builds an OpenAI invoker.
func NewOpenAI(apiKey, model string, maxTokens int, temperature float32) *OpenAI {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Invoke sends the reconstructed ancestor path as chat context. When a
// grounding block is present it is prepended as a system message so the
// completion stays anchored to retrieved evidence.
func (o *OpenAI) Invoke(ctx context.Context, msgs []models.Message, grounding *retrieval.GroundingBlock) (models.Message, error) {
	req := openai.ChatCompletionRequest{
		Model:       o.model,
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	}
	if grounding != nil {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: "Answer using only the following retrieved context:\n\n" + grounding.Text,
		})
	}
	for _, m := range msgs {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case models.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case models.RoleSystem:
			role = openai.ChatMessageRoleSystem
		}
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.TextContent(),
		})
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		logger.Error("provider_invoke_failed", zap.String("model", o.model), zap.Error(err))
		return models.Message{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if len(resp.Choices) == 0 {
		return models.Message{}, fmt.Errorf("%w: empty completion", ErrProvider)
	}

	return models.Message{
		Role: models.RoleAssistant,
		Content: []models.ContentBlock{
			{Type: models.BlockText, Text: resp.Choices[0].Message.Content},
		},
		CreateTime: utils.CurrentTimeMillis(),
		Model:      o.model,
	}, nil
}
