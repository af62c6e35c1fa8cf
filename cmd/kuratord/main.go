// Kuratord is the knowledge curation and retrieval daemon for the coaching
// assistant.
//
// It hosts the curation pipeline (worthiness filter, rate limiter, LLM
// extraction, duplicate detection) and the retrieval/moderation API over
// HTTP.
//
// Usage:
//
//	# Start with defaults
//	kuratord
//
//	# Configure via file and environment
//	kuratord -config /etc/kurator/config.yaml
//	KURATOR_SERVER_PORT=8780 KURATOR_EXTRACTION_API_KEY=... kuratord
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/praktiklabs/kurator/internal/config"
	"github.com/praktiklabs/kurator/internal/extraction"
	httpapi "github.com/praktiklabs/kurator/internal/http"
	"github.com/praktiklabs/kurator/internal/knowledge"
	"github.com/praktiklabs/kurator/internal/logging"
	"github.com/praktiklabs/kurator/internal/ratelimit"
	"github.com/praktiklabs/kurator/internal/storage"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("kuratord %s (%s)\n", version, gitCommit)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// run starts the daemon and blocks until the context is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := newStore(cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}
	defer func() { _ = store.Close() }()

	extractor, err := extraction.New(cfg.Extraction)
	if err != nil {
		return fmt.Errorf("initializing extractor: %w", err)
	}

	limiter := ratelimit.NewSessionLimiter(cfg.RateLimit.MaxExtractions, cfg.RateLimit.Window)

	service, err := knowledge.NewService(store, extractor, limiter, logger.Named("knowledge"))
	if err != nil {
		return fmt.Errorf("initializing knowledge service: %w", err)
	}

	server, err := httpapi.NewServer(service, httpapi.NewMetrics(nil), logger.Named("http"), &httpapi.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("initializing http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("kuratord started",
		zap.String("version", version),
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newStore selects SQLite or the in-memory store based on configuration.
func newStore(cfg config.StoreConfig, logger *zap.Logger) (knowledge.Store, error) {
	if cfg.Path == "" {
		logger.Warn("no store path configured, using in-memory store; catalog is lost on restart")
		return storage.NewMemoryStore(), nil
	}

	store, err := storage.NewSQLiteStore(cfg.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("opened knowledge store", zap.String("path", cfg.Path))
	return store, nil
}
