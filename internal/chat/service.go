package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dpaliy/staffql/internal/employee"
	"github.com/dpaliy/staffql/internal/format"
	"github.com/dpaliy/staffql/internal/history"
	"github.com/dpaliy/staffql/internal/observability"
	"github.com/dpaliy/staffql/internal/policy"
	"github.com/dpaliy/staffql/internal/session"
	"github.com/dpaliy/staffql/internal/sqlguard"
	"github.com/dpaliy/staffql/internal/template"
	"github.com/dpaliy/staffql/internal/translate"
)

// Request is one inbound chat message.
type Request struct {
	SessionID       string
	Message         string
	BypassTemplates bool
	PageSize        int
}

// Response is the answer for one handled message.
type Response struct {
	Rows       []map[string]any `json:"rows"`
	Formatted  string           `json:"formatted"`
	DurationMS int64            `json:"duration_ms"`
	Cached     bool             `json:"cached"`
}

// defaultRecentTurns bounds how many turns feed the compact context when the
// config does not say otherwise.
const defaultRecentTurns = 5

// Service sequences one message through the pipeline: context load, template
// attempt, translation, validation, execution, context write, formatting.
// The user turn is always persisted before any model call so conversational
// state survives translation or formatting failures.
type Service struct {
	history     *history.Manager
	translator  *translate.Translator
	validator   *sqlguard.Validator
	matcher     *template.Matcher
	querier     employee.Querier
	formatter   *format.Formatter
	locks       *session.Locks
	metrics     *observability.Metrics
	cache       *resultCache
	recentTurns int
	log         *slog.Logger
}

type Config struct {
	History        *history.Manager
	Translator     *translate.Translator
	Validator      *sqlguard.Validator
	Matcher        *template.Matcher
	Querier        employee.Querier
	Formatter      *format.Formatter
	Locks          *session.Locks
	Metrics        *observability.Metrics
	ResultCacheTTL time.Duration
	RecentTurns    int
	Logger         *slog.Logger
}

func NewService(cfg Config) *Service {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	locks := cfg.Locks
	if locks == nil {
		locks = session.NewLocks(0)
	}
	recentTurns := cfg.RecentTurns
	if recentTurns <= 0 {
		recentTurns = defaultRecentTurns
	}
	return &Service{
		history:     cfg.History,
		translator:  cfg.Translator,
		validator:   cfg.Validator,
		matcher:     cfg.Matcher,
		querier:     cfg.Querier,
		formatter:   cfg.Formatter,
		locks:       locks,
		metrics:     cfg.Metrics,
		cache:       newResultCache(cfg.ResultCacheTTL),
		recentTurns: recentTurns,
		log:         log,
	}
}

// Close releases background resources.
func (s *Service) Close() {
	s.cache.stop()
}

// Handle runs one message through the pipeline. Failures carry a FailKind;
// see errors.go for the taxonomy.
func (s *Service) Handle(ctx context.Context, req Request) (Response, error) {
	resp, err := s.handle(ctx, req)
	if s.metrics != nil {
		outcome := "ok"
		var failure *Failure
		if errors.As(err, &failure) {
			outcome = string(failure.Kind)
		} else if err != nil {
			outcome = string(FailInternal)
		}
		s.metrics.MessagesHandled.WithLabelValues(outcome).Inc()
	}
	return resp, err
}

func (s *Service) handle(ctx context.Context, req Request) (Response, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return Response{}, failf(FailBadRequest, nil, "message required")
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return Response{}, failf(FailBadRequest, nil, "session id required")
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	release := s.locks.Acquire(sessionID)
	defer release()
	if s.metrics != nil {
		s.metrics.ActiveSessionLocks.Set(float64(s.locks.ActiveCount()))
	}

	totalStart := time.Now()
	defer func() {
		s.metrics.ObserveStage(observability.StageTotal, time.Since(totalStart))
	}()

	// Persist the question before anything that can fail downstream.
	loadStart := time.Now()
	if _, err := s.history.AppendTurn(ctx, sessionID, history.RoleUser, message); err != nil {
		return Response{}, failf(FailInternal, err, "record user turn")
	}
	summary, err := s.history.Summary(ctx, sessionID)
	if err != nil {
		return Response{}, failf(FailInternal, err, "load conversation summary")
	}
	recent, err := s.history.RecentTurns(ctx, sessionID, s.recentTurns)
	if err != nil {
		return Response{}, failf(FailInternal, err, "load recent turns")
	}
	s.metrics.ObserveStage(observability.StageContextLoad, time.Since(loadStart))

	compactContext := buildCompactContext(summary, recent)

	if !req.BypassTemplates {
		if q, ok := s.matcher.Match(message, pageSize); ok {
			s.metrics.ObserveIndicator(observability.IndicatorTemplateHit)
			if s.metrics != nil {
				s.metrics.TemplateHits.Inc()
			}
			s.log.Info("template matched", "session", sessionID, "template", q.Name)
			return s.runQuery(ctx, sessionID, summary, message, q.SQL, q.Params)
		}
	}

	translateStart := time.Now()
	translation, err := s.translator.Translate(ctx, message, compactContext)
	s.metrics.ObserveStage(observability.StageTranslate, time.Since(translateStart))
	if err != nil {
		s.countCompletion("translate", "error")
		return Response{}, failf(FailTranslation, err, "could not translate question to a query")
	}
	s.countCompletion("translate", "ok")
	if translation.Clarification != "" {
		s.log.Info("translator flagged ambiguity", "session", sessionID, "clarification", translation.Clarification)
	}

	validateStart := time.Now()
	safeSQL, err := s.validator.Validate(translation.SQL)
	s.metrics.ObserveStage(observability.StageValidate, time.Since(validateStart))
	if err != nil {
		var violation *sqlguard.Violation
		if errors.As(err, &violation) && s.metrics != nil {
			s.metrics.ValidatorRejections.WithLabelValues(violation.Kind).Inc()
		}
		s.metrics.ObserveIndicator(observability.IndicatorUnsafeSQL)
		s.log.Warn("validator rejected translated sql", "session", sessionID, "error", err)
		if _, aerr := s.history.AppendTurn(ctx, sessionID, history.RoleAssistant, ClarificationMessage); aerr != nil {
			return Response{}, failf(FailInternal, aerr, "record clarification turn")
		}
		return Response{}, failf(FailUnsafeSQL, err, "%s", ClarificationMessage)
	}

	return s.runQuery(ctx, sessionID, summary, message, safeSQL, translation.Params)
}

// runQuery executes an already-safe statement, persists the assistant turn,
// and formats the answer. Shared by the template and translated paths.
func (s *Service) runQuery(ctx context.Context, sessionID, summary, message, sql string, params []any) (Response, error) {
	key := cacheKeyFor(sql, params)
	rows, cached := s.cache.get(key)
	var duration time.Duration
	if cached {
		if s.metrics != nil {
			s.metrics.ResultCacheHits.Inc()
		}
		s.metrics.ObserveIndicator(observability.IndicatorCacheHit)
	} else {
		execStart := time.Now()
		var err error
		rows, err = s.querier.Search(ctx, sql, params)
		duration = time.Since(execStart)
		s.metrics.ObserveStage(observability.StageExecute, duration)
		if err != nil {
			return Response{}, failf(FailExecution, err, "query execution failed")
		}
		if dropped := policy.ScrubRows(rows); dropped > 0 {
			s.log.Warn("scrubbed sensitive columns from result", "session", sessionID, "values", dropped)
		}
		if s.metrics != nil {
			s.metrics.QueryDuration.Observe(float64(duration.Microseconds()) / 1000.0)
		}
		s.cache.put(key, rows)
	}

	formatStart := time.Now()
	answer, err := s.formatter.Format(ctx, rows, summary, message)
	s.metrics.ObserveStage(observability.StageFormat, time.Since(formatStart))
	if err != nil || answer == "" {
		if err != nil {
			s.countCompletion("format", "error")
			s.log.Warn("formatting failed, falling back to raw rows", "session", sessionID, "error", err)
		}
		answer = rawRows(rows)
	} else {
		s.countCompletion("format", "ok")
	}

	if _, err := s.history.AppendTurn(ctx, sessionID, history.RoleAssistant, answer); err != nil {
		return Response{}, failf(FailInternal, err, "record assistant turn")
	}

	// Fold older history into the summary once the session grows past the
	// retention window. A failed compression never fails the request.
	if err := s.history.Compress(ctx, sessionID); err != nil {
		s.countCompression("error")
		s.log.Warn("history compression failed", "session", sessionID, "error", err)
	} else {
		s.countCompression("ok")
	}

	return Response{
		Rows:       rows,
		Formatted:  answer,
		DurationMS: duration.Milliseconds(),
		Cached:     cached,
	}, nil
}

func (s *Service) countCompletion(purpose, status string) {
	if s.metrics != nil {
		s.metrics.CompletionCalls.WithLabelValues(purpose, status).Inc()
	}
}

func (s *Service) countCompression(result string) {
	if s.metrics != nil {
		s.metrics.CompressionRuns.WithLabelValues(result).Inc()
	}
}

// buildCompactContext renders the summary plus the recent turn window the way
// the translator prompt expects it.
func buildCompactContext(summary string, recent []history.Turn) string {
	var b strings.Builder
	if summary != "" {
		b.WriteString("Summary: ")
		b.WriteString(summary)
		b.WriteString("\n")
	}
	for i, t := range recent {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "user: %s", t.Question)
		if t.Answer != "" {
			fmt.Fprintf(&b, "\nassistant: %s", t.Answer)
		}
	}
	return b.String()
}

func rawRows(rows []map[string]any) string {
	if len(rows) == 0 {
		return "[]"
	}
	encoded, err := json.Marshal(rows)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}
