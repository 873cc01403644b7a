// Package main wires together the tool host service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JakeFAU/assistant-tools/internal/api"
	"github.com/JakeFAU/assistant-tools/internal/config"
	"github.com/JakeFAU/assistant-tools/internal/knowledge"
	"github.com/JakeFAU/assistant-tools/internal/logging"
	"github.com/JakeFAU/assistant-tools/internal/metrics"
	"github.com/JakeFAU/assistant-tools/internal/progress"
	"github.com/JakeFAU/assistant-tools/internal/progress/sinks"
	"github.com/JakeFAU/assistant-tools/internal/scrape"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	promSink, err := sinks.NewPrometheusSink(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal("progress sink init failed", zap.Error(err))
	}
	hostSinks := []progress.Sink{promSink}
	if cfg.Logging.Development {
		hostSinks = append(hostSinks, sinks.NewLogSink(logger.Named("progress")))
	}

	scraper := scrape.New(scrape.Config{
		BaseURL: cfg.Scrape.ReaderBaseURL,
		Timeout: cfg.ScrapeTimeout(),
		Delay:   cfg.ScrapeDelay(),
	}, scrape.NewCollyFetcher(cfg.Scrape.UserAgent), logger.Named("scrape"))

	kb := knowledge.NewClient(knowledge.Config{
		BaseURL: cfg.Knowledge.BaseURL,
		Token:   cfg.Knowledge.Token,
		Timeout: cfg.KnowledgeTimeout(),
	}, logger.Named("knowledge"))

	server := api.NewServer(scraper, kb, cfg, logger.Named("api"), hostSinks...)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("tool host listening", zap.Int("port", cfg.Server.Port))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}
}
