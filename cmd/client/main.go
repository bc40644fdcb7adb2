package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MaciejGrzybacz/DistributedSystems/internal/client"
	"github.com/MaciejGrzybacz/DistributedSystems/internal/codec"
	"github.com/MaciejGrzybacz/DistributedSystems/internal/config"
	"github.com/MaciejGrzybacz/DistributedSystems/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file (defaults are used when empty)")
	message := flag.String("message", "", "Message to send (overrides client.message)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog := logging.New(cfg.Logging)
	defer closeLog()

	msg := cfg.Client.Message
	if *message != "" {
		msg = *message
	}

	wireCodec, err := codec.Lookup(cfg.Codec.Encoding)
	if err != nil {
		logger.Error("Invalid codec", slog.String("error", err.Error()))
		closeLog()
		os.Exit(1)
	}

	// no receive timeout by default, so Ctrl+C is the only way out of a silent server
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("PINGPONG UDP CLIENT")

	logger.Debug("Client starting",
		slog.String("server_addr", cfg.Client.Address()),
		slog.String("message", msg),
		slog.Int("count", cfg.Client.Count),
		slog.String("encoding", wireCodec.Name()),
	)

	c := client.New(&cfg.Client, logger, wireCodec)
	if err := c.Run(ctx, msg, os.Stdout); err != nil {
		if client.IsTimeout(err) {
			logger.Error("No reply before timeout",
				slog.String("server_addr", cfg.Client.Address()),
				slog.Duration("timeout", cfg.Client.GetTimeoutDuration()),
			)
		} else {
			logger.Error("Client failed", slog.String("error", err.Error()))
		}
		stop()
		closeLog()
		os.Exit(1)
	}
}
