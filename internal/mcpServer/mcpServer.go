package mcpServer

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/akolanti/DocuMind/internal/adapter/utils"
	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/chatModel"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/rag"
	"github.com/akolanti/DocuMind/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "documind"
	serverVersion = "1.0.0"
)

type AskInput struct {
	SessionId   string   `json:"session_id" jsonschema:"the chat session to answer in"`
	Question    string   `json:"question" jsonschema:"the question about the session documents"`
	DocumentIds []string `json:"document_ids,omitempty" jsonschema:"optional subset of the session documents"`
}

type AskOutput struct {
	Answer    string `json:"answer"`
	Intent    string `json:"intent,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

type DocumentStatusInput struct {
	DocumentId string `json:"document_id" jsonschema:"id returned by the upload endpoint"`
}

type DocumentStatusOutput struct {
	DocumentId        string `json:"document_id"`
	FileName          string `json:"file_name"`
	Status            string `json:"status"`
	ErrorMessage      string `json:"error_message,omitempty"`
	ChunkCount        int    `json:"chunk_count"`
	IndexedChunkCount int    `json:"indexed_chunk_count"`
	UpdatedAt         string `json:"updated_at"`
}

type Server struct {
	server    *mcp.Server
	rag       rag.Service
	documents commonModels.DocumentStore
	logger    *logger_i.Logger
}

func NewServer(ragService rag.Service, documents commonModels.DocumentStore) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Title:   "DocuMind",
			Version: serverVersion,
		}, nil),
		rag:       ragService,
		documents: documents,
		logger:    logger_i.NewLogger("mcp"),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_question",
		Description: "Answer a question using the documents attached to a chat session",
	}, s.handleAsk)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "document_status",
		Description: "Report the ingestion status of an uploaded document",
	}, s.handleDocumentStatus)
}

// Handler serves the streamable HTTP transport. Mount it behind the auth middleware.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	return s.server.Run(ctx, t)
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	ctx = withTrace(ctx)
	log := s.logger.With("traceId", config.TraceId(ctx), "sessionId", input.SessionId)
	if strings.TrimSpace(input.SessionId) == "" {
		return nil, AskOutput{}, errors.New("session_id is required")
	}

	result := s.rag.AskQuestion(ctx, chatModel.AskRequest{
		SessionId:   input.SessionId,
		Question:    input.Question,
		DocumentIds: input.DocumentIds,
	})
	if !result.IsSuccess {
		log.Warn("ask_question failed", "message", result.Message)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: result.Message}},
		}, AskOutput{ElapsedMs: result.ElapsedMs}, nil
	}

	log.Info("ask_question answered", "elapsedMs", result.ElapsedMs)
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: result.Answer}},
	}, AskOutput{Answer: result.Answer, Intent: string(result.Intent), ElapsedMs: result.ElapsedMs}, nil
}

func (s *Server) handleDocumentStatus(ctx context.Context, _ *mcp.CallToolRequest, input DocumentStatusInput) (*mcp.CallToolResult, DocumentStatusOutput, error) {
	if strings.TrimSpace(input.DocumentId) == "" {
		return nil, DocumentStatusOutput{}, errors.New("document_id is required")
	}
	doc, err := s.documents.GetById(withTrace(ctx), input.DocumentId)
	if err != nil {
		if commonModels.IsNotFound(err) {
			return nil, DocumentStatusOutput{}, errors.New("document not found")
		}
		s.logger.Error("document_status lookup failed", "documentId", input.DocumentId, "error", err)
		return nil, DocumentStatusOutput{}, err
	}
	return nil, toStatusOutput(doc), nil
}

func toStatusOutput(doc commonModels.Document) DocumentStatusOutput {
	updated := doc.UpdatedAt
	if updated.IsZero() {
		updated = doc.CreatedAt
	}
	return DocumentStatusOutput{
		DocumentId:        doc.Id,
		FileName:          doc.FileName,
		Status:            string(doc.Status),
		ErrorMessage:      doc.ErrorMessage,
		ChunkCount:        doc.ChunkCount,
		IndexedChunkCount: doc.IndexedChunkCount,
		UpdatedAt:         updated.UTC().Format(time.RFC3339),
	}
}

func withTrace(ctx context.Context) context.Context {
	if config.TraceId(ctx) != "" {
		return ctx
	}
	return context.WithValue(ctx, config.TRACE_ID_KEY, utils.GetNewUUID())
}
