package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dpaliy/staffql/internal/llm"
)

// QueryRequest is the translator's output: a candidate SQL statement and its
// positional parameter values. Clarification is set when the model judged the
// intent ambiguous; the query is still a reasonable default.
type QueryRequest struct {
	SQL           string `json:"sql"`
	Params        []any  `json:"params"`
	Clarification string `json:"clarification,omitempty"`
}

// Translator converts a natural-language question plus compact conversational
// context into a QueryRequest via one completion call. Its output is
// untrusted and must pass the validator before execution.
type Translator struct {
	llm llm.Completer
	log *slog.Logger
}

func New(completer llm.Completer, log *slog.Logger) *Translator {
	if log == nil {
		log = slog.Default()
	}
	return &Translator{llm: completer, log: log}
}

func (t *Translator) Translate(ctx context.Context, message, compactContext string) (QueryRequest, error) {
	content, err := t.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleSystem, Content: "Conversation so far: " + compactContext},
			{Role: llm.RoleUser, Content: message},
		},
		Temperature: 0,
		MaxTokens:   800,
	})
	if err != nil {
		return QueryRequest{}, fmt.Errorf("translation completion: %w", err)
	}

	req, err := parseResponse(content)
	if err != nil {
		t.log.Warn("translator output unparseable", "error", err, "contentLen", len(content))
		return QueryRequest{}, err
	}
	return req, nil
}

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// parseResponse tries the extraction strategies in order: the raw content as
// JSON, a fenced code block, then the outermost brace-delimited span. Each
// strategy either yields a candidate object or passes to the next.
func parseResponse(content string) (QueryRequest, error) {
	content = strings.TrimSpace(content)

	candidates := make([]string, 0, 3)
	candidates = append(candidates, content)
	if m := fencedBlockRe.FindStringSubmatch(content); len(m) == 2 {
		candidates = append(candidates, m[1])
	}
	if span := braceSpan(content); span != "" {
		candidates = append(candidates, span)
	}

	var lastErr error
	for _, candidate := range candidates {
		req, err := decodeCandidate(candidate)
		if err == nil {
			return req, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no JSON object found in translator response")
	}
	return QueryRequest{}, fmt.Errorf("parse translator response: %w", lastErr)
}

func decodeCandidate(candidate string) (QueryRequest, error) {
	var req QueryRequest
	if err := json.Unmarshal([]byte(candidate), &req); err != nil {
		return QueryRequest{}, err
	}
	if req.SQL == "" {
		return QueryRequest{}, fmt.Errorf("missing sql field")
	}
	if req.Params == nil {
		return QueryRequest{}, fmt.Errorf("missing params field")
	}
	return req, nil
}

// braceSpan returns the first-'{' to last-'}' substring, or "".
func braceSpan(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}
