package chatModel

import (
	"context"
	"strings"
	"time"
)

type Intent string

const (
	IntentQA          Intent = "QA"
	IntentSummary     Intent = "SUMMARY"
	IntentExplanation Intent = "EXPLANATION"
)

// ParseIntent trims and upper-cases raw model output. Unknown values report ok=false.
func ParseIntent(raw string) (Intent, bool) {
	switch Intent(strings.ToUpper(strings.TrimSpace(raw))) {
	case IntentQA:
		return IntentQA, true
	case IntentSummary:
		return IntentSummary, true
	case IntentExplanation:
		return IntentExplanation, true
	}
	return IntentQA, false
}

type ChatSession struct {
	Id          string        `json:"session_id"`
	OwnerId     string        `json:"owner_id"`
	Title       string        `json:"title"`
	DocumentIds []string      `json:"document_ids"`
	Messages    []ChatMessage `json:"messages,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

type ChatMessage struct {
	SessionId  string    `json:"session_id"`
	IsFromUser bool      `json:"is_from_user"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// HistoryLine renders the message the way the prompt expects it.
func (m ChatMessage) HistoryLine() string {
	if m.IsFromUser {
		return "User: " + m.Content
	}
	return "System: " + m.Content
}

type AskRequest struct {
	SessionId   string
	Question    string
	DocumentIds []string
}

type AnswerResult struct {
	IsSuccess bool   `json:"success"`
	Answer    string `json:"answer,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`
	Intent    Intent `json:"intent,omitempty"`
	Message   string `json:"message,omitempty"`
}

func Success(answer string, intent Intent, elapsed time.Duration) AnswerResult {
	return AnswerResult{IsSuccess: true, Answer: answer, Intent: intent, ElapsedMs: elapsed.Milliseconds()}
}

func Failure(message string) AnswerResult {
	return AnswerResult{IsSuccess: false, Message: message}
}

type SessionStore interface {
	CreateSession(ctx context.Context, session ChatSession) error
	GetSession(ctx context.Context, id string) (ChatSession, error)
	AttachDocument(ctx context.Context, sessionId string, documentId string) error
	AppendMessage(ctx context.Context, message ChatMessage) error
	// GetRecentMessages returns at most n messages in chronological order.
	GetRecentMessages(ctx context.Context, sessionId string, n int) ([]ChatMessage, error)
	GetMessages(ctx context.Context, sessionId string) ([]ChatMessage, error)
}
