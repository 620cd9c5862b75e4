// Package main implements the entry point for the AstroGraph query engine:
// a knowledge-graph query and retrieval service for space biology corpora.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/c360/astrograph/config"
	"github.com/c360/astrograph/engine"
	gatewayhttp "github.com/c360/astrograph/gateway/http"
	"github.com/c360/astrograph/metric"
	"github.com/c360/astrograph/store/memstore"
	"github.com/c360/astrograph/store/natskv"
)

const (
	Version = "0.1.0"
	appName = "astrograph"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file (optional)")
	loadPath := flag.String("load", "", "export artifact to load at startup (optional)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)
	logger.Info("starting astrograph query engine",
		"version", Version,
		"addr", cfg.Service.HTTPAddr,
		"archive_enabled", cfg.Archive.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := metric.NewMetricsRegistry()
	graphStore := memstore.New(logger)

	var archive engine.Archive
	if cfg.Archive.Enabled {
		kv, err := natskv.Connect(ctx, cfg.Archive, logger)
		if err != nil {
			return err
		}
		archive = kv
	}

	eng, err := engine.New(engine.Deps{
		Store:   graphStore,
		Config:  cfg,
		Archive: archive,
		Metrics: registry.CoreMetrics(),
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Warn("engine close failed", "error", err)
		}
	}()

	if err := bootstrapGraph(ctx, eng, *loadPath, logger); err != nil {
		return err
	}

	server, err := gatewayhttp.NewServer(gatewayhttp.Deps{
		Engine:   eng,
		Config:   cfg,
		Registry: registry,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// bootstrapGraph seeds the store at startup: an explicit -load artifact wins,
// otherwise the archived artifact from the last run is restored if present.
func bootstrapGraph(ctx context.Context, eng *engine.Engine, loadPath string, logger *slog.Logger) error {
	if loadPath != "" {
		f, err := os.Open(loadPath)
		if err != nil {
			return fmt.Errorf("open load artifact: %w", err)
		}
		defer f.Close()
		if err := eng.LoadArtifact(ctx, f); err != nil {
			return err
		}
		logger.Info("startup artifact loaded", "path", loadPath)
		return nil
	}
	return eng.Restore(ctx)
}
