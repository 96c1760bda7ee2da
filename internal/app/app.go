// Package app wires the components together and owns the server
// lifecycle.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/api"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/auth"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/chat"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/config"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/logger"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/provider"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/retrieval"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/store"
)

// App groups server state and components.
type App struct {
	cfg     *config.Config
	version string

	indexer *retrieval.BleveSearcher
	orch    *chat.Orchestrator
	srv     *http.Server
}

// New sets up resources that do not need a running context: env, logging,
// the pebble store, the search index and the orchestrator. Call Run to
// start the HTTP server and block for the lifecycle.
func New(cfg *config.Config, version string) (*App, error) {
	_ = godotenv.Load(".env")

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	dbPath := cfg.Storage.DBPath
	if dbPath == "" {
		dbPath = "./.database"
	}
	if err := store.Open(dbPath); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", dbPath, err)
	}

	indexPath := cfg.Storage.IndexPath
	if indexPath == "" {
		indexPath = "./.index"
	}
	indexer, err := retrieval.NewBleveSearcher(indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open search index at %s: %w", indexPath, err)
	}

	invoker := provider.NewOpenAI(
		cfg.Provider.APIKey,
		cfg.Provider.Model,
		cfg.Provider.MaxTokens,
		float32(cfg.Provider.Temperature),
	)
	orch := chat.New(indexer, invoker, cfg.Retrieval.WarnDropped)

	return &App{cfg: cfg, version: version, indexer: indexer, orch: orch}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// server fails. Shutdown drains in-flight requests before closing the
// store and index.
func (a *App) Run(ctx context.Context) error {
	r := api.NewRouter(a.orch, a.indexer, auth.Config{
		RPS:   a.cfg.Auth.RPS,
		Burst: a.cfg.Auth.Burst,
	})

	a.srv = &http.Server{
		Addr:         a.cfg.Addr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  30 * time.Second,
	}

	logger.Info("server_listening",
		zap.String("addr", a.cfg.Addr()),
		zap.String("version", a.version),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server_shutdown_failed", zap.Error(err))
		}
		a.close()
		return nil
	case err := <-errCh:
		a.close()
		return err
	}
}

func (a *App) close() {
	if err := a.indexer.Close(); err != nil {
		logger.Error("index_close_failed", zap.Error(err))
	}
	if err := store.Close(); err != nil {
		logger.Error("store_close_failed", zap.Error(err))
	}
	logger.Sync()
}
