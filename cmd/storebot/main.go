package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/desertcc/storebot/internal/ai"
	"github.com/desertcc/storebot/internal/bot"
	"github.com/desertcc/storebot/internal/config"
	"github.com/desertcc/storebot/internal/report"
	"github.com/desertcc/storebot/internal/shopdb"
	"github.com/desertcc/storebot/internal/store"
	"github.com/desertcc/storebot/internal/whatsapp"
)

const (
	ledgerRetention = 24 * time.Hour
	pruneInterval   = 30 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("storebot: starting")

	ctx := context.Background()

	src := openSource(ctx, cfg, logger)
	if src != nil {
		defer src.Close()
	}

	ledger, err := store.NewBoltStore(filepath.Join(cfg.DataDir, "storebot.db"))
	if err != nil {
		logger.Error("store", "err", err)
		os.Exit(1)
	}
	defer ledger.Close()

	llm, err := newCompleter(ctx, cfg)
	if err != nil {
		logger.Error("llm", "err", err)
		os.Exit(1)
	}

	// Periodic cleanup of old message ids so the ledger stays small
	go func() {
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()
		for range ticker.C {
			n, err := ledger.Prune(ledgerRetention)
			if err != nil {
				logger.Warn("ledger prune failed", "err", err)
				continue
			}
			logger.Debug("ledger pruned", "removed", n)
		}
	}()

	waClient := whatsapp.NewClient(cfg.WAPhoneNumberID, cfg.WAAccessToken)
	answerer := ai.NewAnswerer(report.New(src, logger), llm, cfg.LLMRefine, logger)
	botHandler := bot.NewHandler(waClient, answerer, ledger, logger)
	webhookHandler := whatsapp.NewWebhookHandler(cfg.WAVerifyToken, botHandler.HandleMessage, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(webhookHandler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("storebot: listening", "port", cfg.Port, "llm", cfg.LLMProvider, "refine", cfg.LLMRefine)
		if cfg.GeneratedVerifyToken {
			logger.Warn("VERIFY_TOKEN not set, generated one for this run", "verify_token", cfg.WAVerifyToken)
		}
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("storebot: shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	logger.Info("storebot: stopped")
}

func newRouter(webhook *whatsapp.WebhookHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "WhatsApp store assistant is running")
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/webhook", webhook.HandleVerify)
	r.Post("/webhook", webhook.HandleIncoming)
	return r
}

// openSource connects to the shop database. Any failure leaves the store
// unconfigured so the data-backed answers degrade instead of blocking startup.
func openSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) shopdb.Source {
	if !cfg.StoreConfigured() {
		logger.Warn("store credentials missing, sales and customer answers are disabled")
		return nil
	}
	src, err := shopdb.Open(ctx, shopdb.Options{
		DatabaseURL: cfg.DatabaseURL,
		RESTURL:     cfg.SupabaseURL,
		RESTKey:     cfg.SupabaseKey,
	})
	if err != nil {
		logger.Error("failed to open store, sales and customer answers are disabled", "err", err)
		return nil
	}
	logger.Info("store client initialized")
	return src
}

func newCompleter(ctx context.Context, cfg *config.Config) (ai.Completer, error) {
	if cfg.LLMProvider == config.ProviderGemini {
		return ai.NewGeminiClient(ctx, cfg.LLMAPIKey, cfg.LLMModel)
	}
	return ai.NewOpenAIClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel), nil
}
