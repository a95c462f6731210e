package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/SigNoz/signoz-query-mcp/internal/client"
	"github.com/SigNoz/signoz-query-mcp/internal/config"
	"github.com/SigNoz/signoz-query-mcp/internal/handler/tools"
	"github.com/SigNoz/signoz-query-mcp/internal/logger"
	mcpserver "github.com/SigNoz/signoz-query-mcp/internal/mcp-server"
	"github.com/SigNoz/signoz-query-mcp/internal/telemetry"
)

const version = "0.2.0"

func main() {
	app := &cli.Command{
		Name:    "signoz-mcp-server",
		Usage:   "MCP server for querying SigNoz logs, metrics and traces",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Usage:   "SigNoz base URL",
				Sources: cli.EnvVars(config.SignozBaseURL, config.SignozURL),
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "SigNoz API key (optional in http mode, where each request sends its own)",
				Sources: cli.EnvVars(config.SignozApiKey),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				Value:   config.DefaultLogLevel,
				Sources: cli.EnvVars(config.LogLevelEnv),
			},
			&cli.StringFlag{
				Name:    "transport",
				Usage:   "stdio or http",
				Value:   config.TransportStdio,
				Sources: cli.EnvVars(config.TransportEnv),
			},
			&cli.StringFlag{
				Name:    "port",
				Usage:   "Listen port in http mode",
				Value:   config.DefaultPort,
				Sources: cli.EnvVars(config.PortEnv),
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Timeout for each SigNoz API request",
				Value:   config.DefaultRequestTimeout,
				Sources: cli.EnvVars(config.TimeoutEnv),
			},
			&cli.FloatFlag{
				Name:    "rate-limit",
				Usage:   "Maximum SigNoz API requests per second (0 for unlimited)",
				Sources: cli.EnvVars(config.RateLimitEnv),
			},
			&cli.IntFlag{
				Name:    "client-cache-size",
				Usage:   "Number of per-API-key clients kept in http mode",
				Value:   config.DefaultClientCacheSize,
				Sources: cli.EnvVars(config.CacheSizeEnv),
			},
			&cli.StringFlag{
				Name:    "otlp-endpoint",
				Usage:   "OTLP gRPC endpoint for the server's own traces and metrics (disabled when empty)",
				Sources: cli.EnvVars(config.OTLPEndpointEnv),
			},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg := &config.Config{
		URL:             cmd.String("url"),
		APIKey:          cmd.String("api-key"),
		LogLevel:        cmd.String("log-level"),
		Transport:       cmd.String("transport"),
		Port:            cmd.String("port"),
		RequestTimeout:  cmd.Duration("timeout"),
		RateLimit:       cmd.Float("rate-limit"),
		ClientCacheSize: cmd.Int("client-cache-size"),
		OTLPEndpoint:    cmd.String("otlp-endpoint"),
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(logger.LogLevel(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	shutdown, err := telemetry.Setup(ctx, log, cfg.OTLPEndpoint, "signoz-mcp-server", version)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	instruments, err := telemetry.NewInstruments()
	if err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	clientOpts := []client.Option{
		client.WithTimeout(cfg.RequestTimeout),
		client.WithRateLimit(cfg.RateLimit),
	}
	sigNozClient := client.NewClient(log, cfg.URL, cfg.APIKey, clientOpts...)

	if cfg.APIKey != "" {
		if sigNozClient.CheckConnectivity(ctx) {
			log.Info("SigNoz is reachable", zap.String("url", sigNozClient.BaseURL()))
		} else {
			log.Warn("SigNoz is not reachable; tools will report errors until it is", zap.String("url", sigNozClient.BaseURL()))
		}
	}

	handler, err := tools.NewHandler(log, sigNozClient, cfg.URL, cfg.ClientCacheSize,
		tools.WithClientOptions(clientOpts...),
		tools.WithInstruments(instruments))
	if err != nil {
		return fmt.Errorf("failed to create handler: %w", err)
	}

	return mcpserver.NewMCPServer(log, handler, cfg, version).Start(ctx)
}
