package elasticDB

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/rag/vectorDB"
	"github.com/akolanti/DocuMind/pkg/logger_i"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

type Options struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
	Dimension int
	Transport http.RoundTripper
}

type Store struct {
	es        *elasticsearch.Client
	index     string
	dimension int
	logger    *logger_i.Logger
}

type chunkDoc struct {
	DocumentId string    `json:"document_id"`
	DocName    string    `json:"doc_name"`
	Sequence   int       `json:"sequence"`
	Content    string    `json:"content"`
	Vector     []float32 `json:"vector"`
}

func New(opts Options) (*Store, error) {
	if len(opts.Addresses) == 0 {
		opts.Addresses = []string{config.ElasticAddress}
	}
	if opts.Index == "" {
		opts.Index = config.ElasticIndex
	}
	if opts.Dimension <= 0 {
		opts.Dimension = int(config.EmbeddingOutputDimensionality)
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: opts.Addresses,
		Username:  opts.Username,
		Password:  opts.Password,
		Transport: opts.Transport,
	})
	if err != nil {
		return nil, err
	}
	return &Store{
		es:        client,
		index:     opts.Index,
		dimension: opts.Dimension,
		logger:    logger_i.NewLogger("Elastic"),
	}, nil
}

func (s *Store) mapping() string {
	return fmt.Sprintf(`{
	"mappings": {
		"properties": {
			"document_id": { "type": "keyword" },
			"doc_name": { "type": "keyword" },
			"sequence": { "type": "integer" },
			"content": { "type": "text" },
			"vector": {
				"type": "dense_vector",
				"dims": %d,
				"index": true,
				"similarity": "cosine"
			}
		}
	}
}`, s.dimension)
}

func (s *Store) EnsureCollection(ctx context.Context) error {
	res, err := s.es.Indices.Exists([]string{s.index}, s.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: elastic: %w", commonModels.ErrTransient, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: unexpected status %d checking index %s", commonModels.ErrTransient, res.StatusCode, s.index)
	}

	res, err = s.es.Indices.Create(
		s.index,
		s.es.Indices.Create.WithContext(ctx),
		s.es.Indices.Create.WithBody(strings.NewReader(s.mapping())),
	)
	if err != nil {
		return fmt.Errorf("%w: elastic create index: %w", commonModels.ErrTransient, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		s.logger.Error("creating index failed", "index", s.index, "response", res.String())
		return fmt.Errorf("%w: elastic create index: %s", commonModels.ErrTransient, res.Status())
	}
	s.logger.Info("index created", "index", s.index)
	return nil
}

func (s *Store) Upsert(ctx context.Context, chunks []commonModels.DocChunk, vectors [][]float32) error {
	if err := vectorDB.CheckBatch(chunks, vectors); err != nil {
		return err
	}
	for i, c := range chunks {
		body, err := json.Marshal(chunkDoc{
			DocumentId: c.DocumentId,
			DocName:    c.DocName,
			Sequence:   c.Sequence,
			Content:    c.Text,
			Vector:     vectors[i],
		})
		if err != nil {
			return err
		}

		req := esapi.IndexRequest{
			Index:      s.index,
			DocumentID: vectorDB.ChunkPointId(c.DocumentId, c.Sequence),
			Body:       bytes.NewReader(body),
			Refresh:    "true",
		}
		res, err := req.Do(ctx, s.es)
		if err != nil {
			return fmt.Errorf("%w: elastic index: %w", commonModels.ErrTransient, err)
		}
		isErr := res.IsError()
		status := res.Status()
		res.Body.Close()
		if isErr {
			return fmt.Errorf("%w: elastic index chunk %d: %s", commonModels.ErrTransient, c.Sequence, status)
		}
	}
	return nil
}

func (s *Store) knnQuery(vector []float32, documentIds []string, topK int) map[string]any {
	candidates := topK * 10
	if candidates < 100 {
		candidates = 100
	}
	return map[string]any{
		"knn": map[string]any{
			"field":          "vector",
			"query_vector":   vector,
			"k":              topK,
			"num_candidates": candidates,
			"filter": map[string]any{
				"terms": map[string]any{"document_id": documentIds},
			},
		},
		"size":    topK,
		"_source": []string{"document_id", "doc_name", "sequence", "content"},
	}
}

func (s *Store) Query(ctx context.Context, vector []float32, documentIds []string, topK int) ([]commonModels.SearchResult, error) {
	log := s.logger.With("traceId", config.TraceId(ctx))
	if len(documentIds) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(s.knnQuery(vector, documentIds, topK)); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: elasticsearch search failed: %w", commonModels.ErrTransient, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		log.Error("Elasticsearch returned an error", "status", res.Status(), "body", string(body))
		return nil, fmt.Errorf("%w: elasticsearch returned %s", commonModels.ErrTransient, res.Status())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source chunkDoc `json:"_source"`
				Score  float64  `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	results := make([]commonModels.SearchResult, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		results = append(results, commonModels.SearchResult{
			Text:       hit.Source.Content,
			Score:      cosineFromScore(hit.Score),
			DocumentId: hit.Source.DocumentId,
			Sequence:   hit.Source.Sequence,
		})
	}
	return results, nil
}

func (s *Store) DeleteDocument(ctx context.Context, documentId string) error {
	body := fmt.Sprintf(`{"query":{"term":{"document_id":%q}}}`, documentId)
	res, err := s.es.DeleteByQuery(
		[]string{s.index},
		strings.NewReader(body),
		s.es.DeleteByQuery.WithContext(ctx),
		s.es.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return fmt.Errorf("%w: elastic delete: %w", commonModels.ErrTransient, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: elastic delete: %s", commonModels.ErrTransient, res.Status())
	}
	return nil
}

// elastic reports cosine kNN hits as (1 + cos) / 2; thresholds are written against raw cosine
func cosineFromScore(score float64) float32 {
	return float32(2*score - 1)
}
