package intent

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/chatModel"
	"github.com/akolanti/DocuMind/internal/metrics"
	"github.com/akolanti/DocuMind/internal/rag/llm"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

const classifierTemplate = `You are a classifier system. Classify the following user question into one of these categories:
- QA: Fact-based questions asking for specific information (e.g., 'What is...', 'Who is...', 'When did...').
- SUMMARY: Requests for summaries, overviews, or main points (e.g., 'Summarize...', 'Give me an overview...', 'What is this document about?').
- EXPLANATION: Requests for explanations of concepts, workflows, reasons, or how things work (e.g., 'Explain...', 'How does X work?', 'Why is...').

Respond ONLY with the category name (QA, SUMMARY, or EXPLANATION). Do not add any other text.

Question: "%s"
Category:`

type Classifier struct {
	llm     llm.Provider
	timeout time.Duration
	logger  *logger_i.Logger
}

func NewClassifier(provider llm.Provider, timeout time.Duration) *Classifier {
	if timeout <= 0 {
		timeout = config.LLMConnectionTimeout
	}
	return &Classifier{
		llm:     provider,
		timeout: timeout,
		logger:  logger_i.NewLogger("Intent Classifier"),
	}
}

func BuildPrompt(question string) string {
	return fmt.Sprintf(classifierTemplate, question)
}

// Classify never fails: errors, timeouts and unrecognised answers all become QA.
func (c *Classifier) Classify(ctx context.Context, question string) chatModel.Intent {
	log := c.logger.With("traceId", config.TraceId(ctx))

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	raw, err := c.llm.Complete(callCtx, BuildPrompt(question))
	metrics.CaptureExecutionMetrics("intent_classification", time.Since(start))
	if err != nil {
		log.Error("Error classifying intent, defaulting to QA", "error", err)
		metrics.IncrementIntent(string(chatModel.IntentQA), true)
		return chatModel.IntentQA
	}

	intent, ok := chatModel.ParseIntent(raw)
	if !ok {
		log.Warn("Failed to parse intent, defaulting to QA", "response", raw)
	} else {
		log.Debug("Classified intent", "intent", intent)
	}
	metrics.IncrementIntent(string(intent), !ok)
	return intent
}
