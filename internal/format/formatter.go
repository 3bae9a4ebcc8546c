package format

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dpaliy/staffql/internal/llm"
)

const systemPrompt = `You are a highly capable AI assistant specializing in employee data analysis and workforce management.

CORE RESPONSIBILITIES:
- Analyze the provided "rows" as your authoritative employee dataset
- Leverage "chat summary" for conversation continuity and context
- Respond to the "prompt" with intelligent, actionable insights
- Maintain conversational flow while being precise and helpful

CONTEXTUAL INTELLIGENCE:
- Understand implicit references ("him", "her", "that person", "the developer I mentioned")
- Recognize project assignment queries and assess skill-to-requirement fit
- Interpret availability questions considering workload, skills, and constraints

RESPONSE FORMATTING:
- Use clean, professional Markdown formatting
- Use tables for comparative analysis when showing multiple employees
- Keep individual employee descriptions focused and actionable (2-4 sentences typically)

Always prioritize actionable insights over generic responses, and maintain awareness of business context while being conversational and helpful.`

// NoResultsAnswer is returned for empty result sets without a model call.
const NoResultsAnswer = "No matching employees found."

// rowLimit caps how many rows travel to the formatting model.
const rowLimit = 20

// Formatter turns raw result rows into a readable answer with one completion
// call. It sits downstream of the safety-critical path; callers must be
// prepared to fall back to raw rows when it fails.
type Formatter struct {
	llm llm.Completer
}

func New(completer llm.Completer) *Formatter {
	return &Formatter{llm: completer}
}

func (f *Formatter) Format(ctx context.Context, rows []map[string]any, summary, question string) (string, error) {
	if len(rows) == 0 {
		return NoResultsAnswer, nil
	}

	limited := rows
	if len(limited) > rowLimit {
		limited = limited[:rowLimit]
	}
	encoded, err := json.Marshal(limited)
	if err != nil {
		return "", fmt.Errorf("encode rows: %w", err)
	}

	answer, err := f.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: fmt.Sprintf("Chat summary: %s\nRows: %s Prompt: %s", summary, encoded, question)},
		},
		Temperature: 0,
		MaxTokens:   400,
	})
	if err != nil {
		return "", fmt.Errorf("format completion: %w", err)
	}
	return strings.TrimSpace(answer), nil
}
