package openaiLLM

import (
	"context"
	"fmt"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/rag/llm"
	"github.com/akolanti/DocuMind/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type llmClient struct {
	api       openai.Client
	modelName string
	logger    *logger_i.Logger
}

func New(modelName string, opts ...option.RequestOption) llm.Provider {
	if modelName == "" {
		modelName = config.OpenAIModelName
	}
	return &llmClient{
		api:       openai.NewClient(opts...),
		modelName: modelName,
		logger:    logger_i.NewLogger("llm_openai"),
	}
}

func (c *llmClient) Complete(ctx context.Context, prompt string) (string, error) {
	log := c.logger.With("traceId", config.TraceId(ctx))

	res, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	})
	if err != nil {
		log.Error("Error generating completion", "error", err)
		return "", fmt.Errorf("%w: openai: %w", commonModels.ErrTransient, err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", commonModels.ErrTransient)
	}
	return res.Choices[0].Message.Content, nil
}
