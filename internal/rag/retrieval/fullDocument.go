package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/rag/extract"
	"github.com/akolanti/DocuMind/internal/storage"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

const (
	fullContentHeader = "=== FULL DOCUMENT CONTENT ==="
	fullContentLeadIn = "The following is the full content of the documents to be summarized:"
)

type fullDocumentStrategy struct {
	documents commonModels.DocumentStore
	files     storage.FileStorage
	extractor extract.TextExtractor
	logger    *logger_i.Logger
}

func (s *fullDocumentStrategy) Context(ctx context.Context, req Request) (string, error) {
	log := s.logger.With("traceId", config.TraceId(ctx), "sessionId", req.SessionId)

	docs, err := s.documents.GetSelected(ctx, req.DocumentIds, req.OwnerId)
	if err != nil {
		return "", fmt.Errorf("loading documents: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(fullContentHeader + "\n")
	sb.WriteString(fullContentLeadIn + "\n\n")

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := s.read(ctx, doc)
		if err != nil {
			log.Error("Failed to read document", "documentId", doc.Id, "error", err)
			fmt.Fprintf(&sb, "[Error reading document %s]\n", doc.FileName)
			continue
		}
		fmt.Fprintf(&sb, "--- Start of Document: %s ---\n", doc.FileName)
		sb.WriteString(text)
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "--- End of Document: %s ---\n\n", doc.FileName)
	}
	log.Debug("full document context built", "documents", len(docs), "length", sb.Len())
	return sb.String(), nil
}

func (s *fullDocumentStrategy) read(ctx context.Context, doc commonModels.Document) (string, error) {
	stream, err := s.files.ReadStream(ctx, doc.StoragePath)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	text, err := s.extractor.Extract(ctx, doc.FileName, stream)
	if err != nil {
		return "", err
	}
	return extract.CleanText(text), nil
}
