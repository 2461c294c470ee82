package intent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/DocuMind/internal/domain/chatModel"
)

type mockLLM struct {
	OnComplete func(ctx context.Context, prompt string) (string, error)
}

func (m *mockLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return m.OnComplete(ctx, prompt)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     chatModel.Intent
	}{
		{"summary", "SUMMARY", nil, chatModel.IntentSummary},
		{"explanation padded lower", "  explanation\n", nil, chatModel.IntentExplanation},
		{"qa", "QA", nil, chatModel.IntentQA},
		{"unknown text", "I think it's a summary", nil, chatModel.IntentQA},
		{"empty", "", nil, chatModel.IntentQA},
		{"provider error", "", errors.New("quota exceeded"), chatModel.IntentQA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(&mockLLM{OnComplete: func(ctx context.Context, prompt string) (string, error) {
				return tt.response, tt.err
			}}, time.Second)

			if got := c.Classify(context.Background(), "Summarize the report"); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassify_TimeoutFailsOpen(t *testing.T) {
	c := NewClassifier(&mockLLM{OnComplete: func(ctx context.Context, prompt string) (string, error) {
		<-ctx.Done()
		return "SUMMARY", ctx.Err()
	}}, 20*time.Millisecond)

	if got := c.Classify(context.Background(), "Summarize"); got != chatModel.IntentQA {
		t.Errorf("got %s, want QA", got)
	}
}

func TestClassify_PromptCarriesQuestion(t *testing.T) {
	var seen string
	c := NewClassifier(&mockLLM{OnComplete: func(ctx context.Context, prompt string) (string, error) {
		seen = prompt
		return "QA", nil
	}}, time.Second)

	c.Classify(context.Background(), "Who signed the contract?")

	if !strings.Contains(seen, `Question: "Who signed the contract?"`) {
		t.Errorf("question missing from prompt: %s", seen)
	}
	if !strings.HasSuffix(seen, "Category:") {
		t.Error("prompt should end with Category:")
	}
	if !strings.Contains(seen, "Respond ONLY with the category name") {
		t.Error("instruction line missing")
	}
}
