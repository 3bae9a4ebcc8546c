package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dpaliy/staffql/internal/chat"
	"github.com/dpaliy/staffql/internal/config"
	"github.com/dpaliy/staffql/internal/employee"
	"github.com/dpaliy/staffql/internal/format"
	"github.com/dpaliy/staffql/internal/history"
	"github.com/dpaliy/staffql/internal/httpapi"
	"github.com/dpaliy/staffql/internal/llm"
	"github.com/dpaliy/staffql/internal/observability"
	"github.com/dpaliy/staffql/internal/schema"
	"github.com/dpaliy/staffql/internal/session"
	"github.com/dpaliy/staffql/internal/sqlguard"
	"github.com/dpaliy/staffql/internal/template"
	"github.com/dpaliy/staffql/internal/translate"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	turnStore, err := history.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("history store init failed: %v", err)
	}
	defer turnStore.Close()
	if cfg.DatabaseURL == "" {
		log.Printf("history store: in-memory (DATABASE_URL not set)")
	} else {
		log.Printf("history store: postgres")
	}

	completer, provider, err := llm.NewCompleter(llm.Options{
		Provider:           cfg.LLMProvider,
		OpenRouterBaseURL:  cfg.OpenRouterBaseURL,
		OpenRouterAPIKey:   cfg.OpenRouterAPIKey,
		OpenRouterModel:    cfg.OpenRouterModel,
		AnthropicModel:     cfg.AnthropicModel,
		AnthropicMaxTokens: int64(cfg.AnthropicMaxTokens),
	})
	if err != nil {
		log.Fatalf("llm provider init failed: %v", err)
	}
	log.Printf("llm provider: %s", provider)

	var querier employee.Querier
	if cfg.EmployeeDatabaseURL != "" {
		pg, err := employee.NewPostgresQuerier(ctx, cfg.EmployeeDatabaseURL)
		if err != nil {
			log.Fatalf("employee db init failed: %v", err)
		}
		querier = pg
	} else {
		log.Printf("employee db: mock (EMPLOYEE_DATABASE_URL not set)")
		querier = employee.NewMockQuerier(nil)
	}
	defer querier.Close()

	historyManager := history.NewManager(turnStore, completer, cfg.KeepRecentTurns, cfg.CompressThreshold, nil)
	validator := sqlguard.New(schema.Employees(), cfg.SQLDefaultLimit, cfg.SQLMaxLimit)
	locks := session.NewLocks(cfg.SessionIdleTimeout)

	chatService := chat.NewService(chat.Config{
		History:        historyManager,
		Translator:     translate.New(completer, nil),
		Validator:      validator,
		Matcher:        template.New(),
		Querier:        querier,
		Formatter:      format.New(completer),
		Locks:          locks,
		Metrics:        metrics,
		ResultCacheTTL: cfg.ResultCacheTTL,
		RecentTurns:    cfg.RecentTurnWindow,
	})
	defer chatService.Close()

	api := httpapi.New(cfg, chatService, historyManager, metrics)
	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	locks.StartJanitor(runCtx, time.Minute)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
