package openaiEmbedding

import (
	"context"
	"fmt"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/rag/embedding"
	"github.com/akolanti/DocuMind/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type client struct {
	api       openai.Client
	model     string
	dimension int64
	logger    *logger_i.Logger
}

// New works against OpenAI and any server that speaks its embeddings API (set a base url).
func New(model string, dimension int32, opts ...option.RequestOption) embedding.Embedder {
	if model == "" {
		model = config.OpenAIEmbeddingModel
	}
	return &client{
		api:       openai.NewClient(opts...),
		model:     model,
		dimension: int64(dimension),
		logger:    logger_i.NewLogger("openai_embedding"),
	}
}

func (c *client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	log := c.logger.With("traceId", config.TraceId(ctx), "batch", len(texts))
	if len(texts) == 0 {
		return nil, nil
	}

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(c.model),
	}
	if c.dimension > 0 {
		params.Dimensions = openai.Int(c.dimension)
	}

	res, err := c.api.Embeddings.New(ctx, params)
	if err != nil {
		log.Error("Error getting Embeddings from OpenAI", "error", err)
		return nil, fmt.Errorf("%w: openai embedding: %w", commonModels.ErrTransient, err)
	}
	if len(res.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", commonModels.ErrTransient, len(res.Data), len(texts))
	}

	// the api reports each vector's input position, do not trust response order
	vectors := make([][]float32, len(texts))
	for _, d := range res.Data {
		if d.Index < 0 || int(d.Index) >= len(texts) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", commonModels.ErrTransient, d.Index)
		}
		vectors[d.Index] = toFloat32(d.Embedding)
	}
	return vectors, nil
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
