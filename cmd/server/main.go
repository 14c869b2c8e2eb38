package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"hragent/internal/agent"
	"hragent/internal/api"
	"hragent/internal/chunker"
	"hragent/internal/config"
	"hragent/internal/embedder"
	"hragent/internal/pipeline"
	"hragent/internal/store"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to Postgres and ensure the schema exists.
	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := st.Init(ctx); err != nil {
		log.Error("schema init failed", "error", err)
		os.Exit(1)
	}

	// Initialize clients.
	voyage := embedder.NewClient(cfg.VoyageAPIKey, cfg.VoyageModel)
	claude := agent.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)

	chunk, err := chunker.New(chunker.Config{
		MaxChunkSize: cfg.DefaultChunkSize,
		Overlap:      cfg.DefaultChunkOverlap,
	})
	if err != nil {
		log.Error("invalid chunking configuration", "error", err)
		os.Exit(1)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, voyage, st, log)
	orch.Start(ctx)

	// Initialize agent and HTTP server.
	tools := agent.NewTools(st, voyage, log)
	hrAgent := agent.New(claude, tools, log)
	srv := api.NewServer(orch, st, voyage, hrAgent, claude, chunk, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		claude.Close()
		voyage.Close()
		st.Close()
	}()

	log.Info("starting hragent", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
