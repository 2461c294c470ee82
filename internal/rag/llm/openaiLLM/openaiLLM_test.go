package openaiLLM

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/openai/openai-go/option"
)

func TestComplete(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{
			name:   "answer",
			status: http.StatusOK,
			body:   `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"SUMMARY"}}]}`,
			want:   "SUMMARY",
		},
		{
			name:    "no choices",
			status:  http.StatusOK,
			body:    `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[]}`,
			wantErr: true,
		},
		{
			name:    "server error",
			status:  http.StatusBadGateway,
			body:    `{"error":{"message":"bad gateway"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sent struct {
				Model    string `json:"model"`
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewDecoder(r.Body).Decode(&sent)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := New("gpt-4o-mini", option.WithBaseURL(srv.URL), option.WithAPIKey("k"), option.WithMaxRetries(0))
			got, err := p.Complete(context.Background(), "the prompt")

			if tt.wantErr {
				if !errors.Is(err, commonModels.ErrTransient) {
					t.Errorf("got %v, want a transient error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Complete failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if sent.Model != "gpt-4o-mini" || len(sent.Messages) != 1 || sent.Messages[0].Content != "the prompt" {
				t.Errorf("unexpected request %+v", sent)
			}
		})
	}
}
