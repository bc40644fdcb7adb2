package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MaciejGrzybacz/DistributedSystems/internal/codec"
	"github.com/MaciejGrzybacz/DistributedSystems/internal/config"
	"github.com/MaciejGrzybacz/DistributedSystems/internal/dispatch"
	"github.com/MaciejGrzybacz/DistributedSystems/internal/journal"
	"github.com/MaciejGrzybacz/DistributedSystems/internal/logging"
	"github.com/MaciejGrzybacz/DistributedSystems/internal/metrics"
	"github.com/MaciejGrzybacz/DistributedSystems/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file (defaults are used when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog := logging.New(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", server.ServiceName),
		slog.String("version", server.ServiceVersion),
		slog.String("config_path", *configPath),
	)

	logger.Info("Configuration loaded",
		slog.Int("udp_port", cfg.Server.UDPPort),
		slog.String("bind_address", cfg.Server.BindAddress),
		slog.Int("buffer_size", cfg.Server.BufferSize),
		slog.String("encoding", cfg.Codec.Encoding),
		slog.String("journal_path", cfg.Server.JournalPath),
		slog.Bool("http_enabled", cfg.HTTP.Enabled),
		slog.String("log_level", cfg.Logging.Level),
	)

	wireCodec, err := codec.Lookup(cfg.Codec.Encoding)
	if err != nil {
		logger.Error("Invalid codec", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rules := make([]dispatch.Rule, 0, len(cfg.Dispatch.Rules))
	for _, r := range cfg.Dispatch.Rules {
		rules = append(rules, dispatch.Rule{Keyword: r.Keyword, Reply: r.Reply})
	}
	classifier, err := dispatch.NewClassifier(rules)
	if err != nil {
		logger.Error("Invalid dispatch rules", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appMetrics := metrics.NewMetrics()

	opts := []server.Option{
		server.WithMetrics(appMetrics),
		server.WithOutput(os.Stdout),
	}

	var messageJournal *journal.Journal
	if cfg.Server.JournalPath != "" {
		messageJournal, err = journal.Open(cfg.Server.JournalPath)
		if err != nil {
			logger.Error("Failed to open journal", slog.String("error", err.Error()))
			os.Exit(1)
		}
		opts = append(opts, server.WithJournal(messageJournal))
	}

	udpServer, err := server.NewUDPServer(&cfg.Server, logger, wireCodec, classifier, opts...)
	if err != nil {
		logger.Error("Failed to create UDP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(server.HTTPServerConfig{
			Port:    cfg.HTTP.Port,
			Address: cfg.HTTP.Address,
		}, logger, cfg, udpServer, classifier, messageJournal, appMetrics)
	}

	fmt.Println("PINGPONG UDP SERVER")

	if err := udpServer.Start(); err != nil {
		logger.Error("Failed to start UDP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if httpServer != nil {
		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
			udpServer.Stop()
			os.Exit(1)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("udp_address", udpServer.Addr().String()),
	)

	exitCode := 0
	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-udpServer.Done():
		if err != nil {
			logger.Error("UDP server failed", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	logger.Info("Starting graceful shutdown...")

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
		}
		shutdownCancel()
	}

	if err := udpServer.Stop(); err != nil {
		logger.Error("Error stopping UDP server", slog.String("error", err.Error()))
	}

	if messageJournal != nil {
		if err := messageJournal.Close(); err != nil {
			logger.Error("Error closing journal", slog.String("error", err.Error()))
		}
	}

	logger.Info("Service stopped")
	if err := closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close log output: %v\n", err)
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
