package googleEmbedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/rag/embedding"
	"github.com/akolanti/DocuMind/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client
var initErr error

type Options struct {
	Model      string
	APIKey     string
	Dimension  int32
	HTTPClient *http.Client
}

type client struct {
	genAi      *genai.Client
	model      string
	dimension  int32
	retryDelay time.Duration
}

func newGoogleEmbedder(ctx context.Context, opts Options) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: opts.APIKey, HTTPClient: opts.HTTPClient})
	if err != nil {
		logger.Error("Error creating Google Embedding client:", "error", err)
		initErr = err
		return
	}
	dimension := opts.Dimension
	if dimension <= 0 {
		dimension = config.EmbeddingOutputDimensionality
	}
	embeddingClient = &client{
		genAi:      c,
		model:      opts.Model,
		dimension:  dimension,
		retryDelay: 5 * time.Second,
	}
	logger.Debug("Google Embedding model name: " + opts.Model)
	logger.Info("Google Embedding client created")
	go closeClient(ctx, embeddingClient)
}

func closeClient(ctx context.Context, embeddingClient *client) {
	<-ctx.Done()
	logger.Info("Closing Google Embedding client")
}

func GetGoogleEmbeddingClient(ctx context.Context, opts Options) (embedding.Embedder, error) {
	once.Do(func() {
		logger = logger_i.NewLogger("google_embedding")
		newGoogleEmbedder(ctx, opts)
	})

	//if init still fails
	if embeddingClient == nil {
		if initErr == nil {
			initErr = errors.New("google embedding client not initialised")
		}
		return nil, initErr
	}
	return embeddingClient, nil
}

func (c *client) Embed(ctx context.Context, text string) ([]float32, error) {
	log := logger.With("traceId", config.TraceId(ctx))

	result, err := c.doCall(ctx, genai.Text(text), config.EmbeddingTaskQuery)
	if err != nil {
		log.Error("Error getting query embedding from Google", "error", err)
		return nil, fmt.Errorf("%w: gemini embedding: %w", commonModels.ErrTransient, err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: gemini returned no embedding", commonModels.ErrTransient)
	}
	return result.Embeddings[0].Values, nil
}

func (c *client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	log := logger.With("traceId", config.TraceId(ctx), "batch", len(texts))
	if len(texts) == 0 {
		return nil, nil
	}

	res, err := c.doCall(ctx, getContent(texts), config.EmbeddingTaskDocument)
	if err != nil && doRetry(err, log) {
		log.Debug("Retrying", "in", c.retryDelay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
		}
		res, err = c.doCall(ctx, getContent(texts), config.EmbeddingTaskDocument)
	}
	if err != nil {
		log.Error("Error getting Embeddings from Google", "error", err)
		return nil, fmt.Errorf("%w: gemini batch embedding: %w", commonModels.ErrTransient, err)
	}

	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", commonModels.ErrTransient, len(res.Embeddings), len(texts))
	}
	embeddingResults := make([][]float32, 0, len(res.Embeddings))
	for _, r := range res.Embeddings {
		embeddingResults = append(embeddingResults, r.Values)
	}
	return embeddingResults, nil
}

func (c *client) doCall(ctx context.Context, content []*genai.Content, task string) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{OutputDimensionality: &c.dimension, TaskType: task})
}

func getContent(chunks []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(chunks))

	for _, chunk := range chunks {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: chunk}},
		})
	}
	return contentsToSend
}

func doRetry(err error, log *logger_i.Logger) bool {
	if s, ok := status.FromError(err); ok {
		if s.Code() == codes.ResourceExhausted {
			log.Error("Rate limit hit! ", "error", err)
			return true
		}
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		log.Error("Rate limit hit! ", "error", err)
		return true
	}
	return false
}
