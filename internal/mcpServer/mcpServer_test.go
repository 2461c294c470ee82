package mcpServer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/akolanti/DocuMind/internal/data/store"
	"github.com/akolanti/DocuMind/internal/domain/chatModel"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/domain/jobModel"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type MockRagService struct {
	OnAskQuestion func(ctx context.Context, req chatModel.AskRequest) chatModel.AnswerResult
}

func (m *MockRagService) AskQuestion(ctx context.Context, req chatModel.AskRequest) chatModel.AnswerResult {
	return m.OnAskQuestion(ctx, req)
}

func (m *MockRagService) ProcessRequest(_ context.Context, job jobModel.Job) jobModel.Job {
	return job
}

func (m *MockRagService) IngestDocument(_ context.Context, job jobModel.Job) jobModel.Job {
	return job
}

func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() {
		_ = session.Close()
		_ = serverSession.Wait()
	})
	return session
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestAskQuestionTool(t *testing.T) {
	var got chatModel.AskRequest
	ragService := &MockRagService{
		OnAskQuestion: func(ctx context.Context, req chatModel.AskRequest) chatModel.AnswerResult {
			got = req
			return chatModel.Success("forty two", chatModel.IntentQA, 15*time.Millisecond)
		},
	}
	session := connect(t, NewServer(ragService, store.InitInMemoryDocumentStore()))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "ask_question",
		Arguments: map[string]any{
			"session_id":   "s1",
			"question":     "what is the answer?",
			"document_ids": []string{"d1"},
		},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", textOf(t, res))
	}
	if textOf(t, res) != "forty two" {
		t.Errorf("answer = %q", textOf(t, res))
	}
	if got.SessionId != "s1" || got.Question != "what is the answer?" || len(got.DocumentIds) != 1 {
		t.Errorf("unexpected request %+v", got)
	}

	raw, _ := json.Marshal(res.StructuredContent)
	var out AskOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("structured content: %v", err)
	}
	if out.ElapsedMs != 15 {
		t.Errorf("elapsed = %d, want 15", out.ElapsedMs)
	}
}

func TestAskQuestionTool_Failures(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		result  chatModel.AnswerResult
		message string
	}{
		{
			name:    "blank session",
			args:    map[string]any{"session_id": "  ", "question": "hi"},
			message: "session_id is required",
		},
		{
			name:    "answer failure",
			args:    map[string]any{"session_id": "s1", "question": "hi"},
			result:  chatModel.Failure("Chat session not found"),
			message: "Chat session not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ragService := &MockRagService{
				OnAskQuestion: func(ctx context.Context, req chatModel.AskRequest) chatModel.AnswerResult {
					return tt.result
				},
			}
			session := connect(t, NewServer(ragService, store.InitInMemoryDocumentStore()))
			res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: "ask_question", Arguments: tt.args})
			if err != nil {
				t.Fatalf("call: %v", err)
			}
			if !res.IsError {
				t.Fatal("expected tool error")
			}
			if textOf(t, res) != tt.message {
				t.Errorf("message = %q, want %q", textOf(t, res), tt.message)
			}
		})
	}
}

func TestDocumentStatusTool(t *testing.T) {
	documents := store.InitInMemoryDocumentStore()
	err := documents.Create(context.Background(), commonModels.Document{
		Id:       "doc-1",
		OwnerId:  "u1",
		FileName: "report.pdf",
		Status:   commonModels.StatusPending,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	session := connect(t, NewServer(&MockRagService{}, documents))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "document_status",
		Arguments: map[string]any{"document_id": "doc-1"},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", textOf(t, res))
	}
	raw, _ := json.Marshal(res.StructuredContent)
	var out DocumentStatusOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("structured content: %v", err)
	}
	if out.DocumentId != "doc-1" || out.Status != string(commonModels.StatusPending) || out.FileName != "report.pdf" {
		t.Errorf("unexpected status %+v", out)
	}

	res, err = session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "document_status",
		Arguments: map[string]any{"document_id": "missing"},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if !res.IsError || textOf(t, res) != "document not found" {
		t.Errorf("expected not found tool error, got %+v", res)
	}
}
