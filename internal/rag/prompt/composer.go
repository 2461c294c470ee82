package prompt

import (
	"strings"

	"github.com/akolanti/DocuMind/internal/domain/chatModel"
)

const (
	systemHeader   = "=== SYSTEM ==="
	historyHeader  = "=== CONVERSATION HISTORY ==="
	contextHeader  = "=== CONTEXT (Retrieved from documents) ==="
	questionHeader = "=== QUESTION ==="
	responseHeader = "=== RESPONSE ==="

	preamble  = "You are an advanced AI assistant for document analysis."
	noContext = "No relevant context found."
)

var instructions = map[chatModel.Intent][]string{
	chatModel.IntentQA: {
		"GOAL: Answer the user's specific question using only the provided context.",
		"RULES:",
		"1. Be precise and concise.",
		"2. Strictly strictly stick to the provided context.",
		"3. If the answer is not in the context, say 'I cannot find the answer in the provided documents'.",
	},
	chatModel.IntentSummary: {
		"GOAL: Provide a comprehensive summary of the provided content.",
		"RULES:",
		"1. Extract key points and main ideas.",
		"2. Structure the summary with bullet points.",
		"3. Ignore minor details.",
	},
	chatModel.IntentExplanation: {
		"GOAL: Explain the concept or workflow described in the context.",
		"RULES:",
		"1. Provide a detailed explanation.",
		"2. Use simple language where possible.",
		"3. Synthesize information from multiple chunks if necessary.",
		"4. If the context is partial, explain what is available and mention what might be missing.",
	},
}

// Compose builds the final LLM prompt. History lines are expected oldest first.
func Compose(intent chatModel.Intent, question string, context string, history []string) string {
	var sb strings.Builder
	line := func(s string) {
		sb.WriteString(s)
		sb.WriteString("\n")
	}

	line(systemHeader)
	line(preamble)
	line("")

	for _, l := range instructions[intent] {
		line(l)
	}
	line("")

	if len(history) > 0 {
		line(historyHeader)
		for _, h := range history {
			line(h)
		}
		line("")
	}

	line(contextHeader)
	if strings.TrimSpace(context) == "" {
		line(noContext)
	} else {
		line(context)
	}
	line("")

	line(questionHeader)
	line(question)
	line("")

	line(responseHeader)
	return sb.String()
}
