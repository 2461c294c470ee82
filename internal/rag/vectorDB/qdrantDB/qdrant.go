package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/rag/vectorDB"
	"github.com/akolanti/DocuMind/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

const (
	fieldDocumentId = "document_id"
	fieldDocName    = "doc_name"
	fieldSequence   = "sequence"
	fieldContent    = "content"
)

var logger *logger_i.Logger
var quadrantInstance *qdrant.Client
var initErr error
var once sync.Once

type Options struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	PoolSize   uint
	Collection string
	Dimension  uint64
}

type ClientHolder struct {
	QObj       *qdrant.Client
	collection string
	dimension  uint64
}

func GetQuadrantClient(ctx context.Context, opts Options) (*ClientHolder, error) {
	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		quadrantInstance, initErr = newClient(opts)
		if quadrantInstance != nil {
			go closeQdrant(ctx, quadrantInstance)
		}
	})

	if quadrantInstance == nil {
		return nil, initErr
	}
	holder := &ClientHolder{
		QObj:       quadrantInstance,
		collection: opts.Collection,
		dimension:  opts.Dimension,
	}
	if holder.collection == "" {
		holder.collection = config.EmbeddingDBName
	}
	if holder.dimension == 0 {
		holder.dimension = uint64(config.EmbeddingOutputDimensionality)
	}
	return holder, nil
}

func newClient(opts Options) (*qdrant.Client, error) {
	if opts.Host == "" {
		opts.Host = config.QdrantHost
	}
	if opts.Port == 0 {
		opts.Port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     opts.Host,
		Port:     opts.Port,
		APIKey:   opts.APIKey,
		UseTLS:   opts.UseTLS,
		PoolSize: opts.PoolSize,
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil, err
	}
	return client, nil
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	err := qi.Close()
	if err != nil {
		logger.Error("could not close Qdrant: ", "error:", err)
	}
	logger.Info("Closed Qdrant")
}

// EnsureCollection creates the collection and the keyword index used by the document filter.
func (db *ClientHolder) EnsureCollection(ctx context.Context) error {
	if db.collection == "" {
		return errors.New("empty collection name")
	}

	exists, err := db.QObj.CollectionExists(ctx, db.collection)
	if err != nil {
		return fmt.Errorf("%w: qdrant: %w", commonModels.ErrTransient, err)
	}
	if exists {
		return nil
	}

	err = db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: db.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     db.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: qdrant create collection: %w", commonModels.ErrTransient, err)
	}

	_, err = db.QObj.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: db.collection,
		FieldName:      fieldDocumentId,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		logger.Warn("could not index document_id, filtered search will scan", "error", err)
	}
	return nil
}

func (db *ClientHolder) Upsert(ctx context.Context, chunks []commonModels.DocChunk, vectors [][]float32) error {
	points, err := buildPoints(chunks, vectors)
	if err != nil {
		return err
	}

	_, err = db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: db.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: qdrant upsert failed: %w", commonModels.ErrTransient, err)
	}
	return nil
}

func (db *ClientHolder) Query(ctx context.Context, vector []float32, documentIds []string, topK int) ([]commonModels.SearchResult, error) {
	loggr := logger.With("traceId", config.TraceId(ctx))
	if len(documentIds) == 0 {
		return nil, nil
	}

	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: db.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         documentFilter(documentIds),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		loggr.Error("Error querying Qdrant: ", "error:", err)
		return nil, fmt.Errorf("%w: qdrant query: %w", commonModels.ErrTransient, err)
	}

	matches := toSearchResults(result)
	loggr.Debug("Found matches", "count", len(matches))
	return matches, nil
}

func (db *ClientHolder) DeleteDocument(ctx context.Context, documentId string) error {
	_, err := db.QObj.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: db.collection,
		Points:         qdrant.NewPointsSelectorFilter(documentFilter([]string{documentId})),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: qdrant delete: %w", commonModels.ErrTransient, err)
	}
	return nil
}

func documentFilter(documentIds []string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatchKeywords(fieldDocumentId, documentIds...)},
	}
}

func buildPoints(chunks []commonModels.DocChunk, vectors [][]float32) ([]*qdrant.PointStruct, error) {
	if err := vectorDB.CheckBatch(chunks, vectors); err != nil {
		return nil, err
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		payload, err := qdrant.TryValueMap(map[string]any{
			fieldContent:    chunk.Text,
			fieldDocumentId: chunk.DocumentId,
			fieldDocName:    chunk.DocName,
			fieldSequence:   chunk.Sequence,
		})
		if err != nil {
			return nil, fmt.Errorf("chunk %d payload: %w", chunk.Sequence, err)
		}
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(vectorDB.ChunkPointId(chunk.DocumentId, chunk.Sequence)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: payload,
		}
	}
	return qdrantPoints, nil
}

func toSearchResults(points []*qdrant.ScoredPoint) []commonModels.SearchResult {
	matches := make([]commonModels.SearchResult, 0, len(points))
	for _, hit := range points {
		matches = append(matches, commonModels.SearchResult{
			Text:       hit.Payload[fieldContent].GetStringValue(),
			Score:      hit.Score,
			DocumentId: hit.Payload[fieldDocumentId].GetStringValue(),
			Sequence:   int(hit.Payload[fieldSequence].GetIntegerValue()),
		})
	}
	return matches
}
