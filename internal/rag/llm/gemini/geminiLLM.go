package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/rag/llm"
	"github.com/akolanti/DocuMind/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client    *genai.Client
	modelName string
}

var logger *logger_i.Logger
var geminiClient *llmClient
var initErr error
var once sync.Once

func GetGeminiClient(ctx context.Context, modelName string, apikey string, httpClient *http.Client) (llm.Provider, error) {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_gemini")
		newGeminiClient(ctx, modelName, apikey, httpClient)
	})

	if geminiClient == nil {
		if initErr == nil {
			initErr = errors.New("gemini client not initialised")
		}
		return nil, initErr
	}
	return geminiClient, nil
}

func newGeminiClient(ctx context.Context, modelName string, apikey string, httpClient *http.Client) {
	if modelName == "" {
		modelName = config.GeminiModelName
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey, HTTPClient: httpClient})
	if err != nil {
		logger.Error("Error creating Gemini client:", "error", err)
		initErr = err
		return
	}
	geminiClient = &llmClient{client: c, modelName: modelName}
	logger.Debug("Gemini client created", "model", modelName)
	logger.Info("Gemini client created")
	go closeClient(ctx)
}

// Complete sends the composed prompt as a single user turn.
func (c *llmClient) Complete(ctx context.Context, prompt string) (string, error) {
	log := logger.With("traceId", config.TraceId(ctx))

	result, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), nil)
	if err != nil {
		log.Error("Error generating content", "error", err)
		return "", fmt.Errorf("%w: gemini: %w", commonModels.ErrTransient, err)
	}
	if result == nil {
		return "", fmt.Errorf("%w: gemini returned no result", commonModels.ErrTransient)
	}
	return result.Text(), nil
}

func closeClient(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Gemini client")
}
