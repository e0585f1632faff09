// cmd/api/main.go
// Main entry point for the task API server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"task-app/config"
	"task-app/httpapi"
	"task-app/service"
	"task-app/trace"
)

// main is the entry point for the task API server.
func main() {
	// Config from TOML file (TASKAPP_CONFIG), with env overrides.
	cfg, err := config.Load(os.Getenv("TASKAPP_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if v := os.Getenv("PORT"); strings.TrimSpace(v) != "" {
		cfg.ListenAddr = ":" + strings.TrimPrefix(v, ":")
	}
	if v := os.Getenv("TASKAPP_FILE"); strings.TrimSpace(v) != "" {
		cfg.StorageFile = v
	}

	// Logging (mirrors CLI style): JSON by default, text when LOGTEXT=1.
	var handler slog.Handler
	if cfg.LogText || os.Getenv("LOGTEXT") == "1" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	// Create a logger with a default TraceID for main.
	logger := slog.New(handler).With(slog.String("trace_id", trace.GenerateID()))
	slog.SetDefault(logger)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var store service.Store
	if cfg.ActorStore {
		actor := service.NewActorStore(cfg.StorageFile)
		defer actor.Close()
		store = actor
	} else {
		store = service.NewFileStore(cfg.StorageFile)
	}

	app, err := service.NewApp(ctx, store)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err, "path", cfg.StorageFile)
		os.Exit(1)
	}

	s := httpapi.New(app)
	slog.Info("task api starting", "addr", cfg.ListenAddr, "storage", cfg.StorageFile)

	// Run server in background.
	done := make(chan struct{})
	go func() {
		if err := s.Run(ctx, cfg.ListenAddr); err != nil {
			slog.Error("server exited with error", "error", err)
		}
		close(done)
	}()

	<-done
	time.Sleep(50 * time.Millisecond) // small drain period for logs
}
