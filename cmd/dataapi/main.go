//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Command dataapi serves configured data API tools over MCP and embeds text
// with the configured embedder.
//
//	dataapi serve -config dataapi.toml [-transport http] [-port 8080]
//	dataapi embed -config dataapi.toml < texts.txt
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"trpc.group/trpc-go/trpc-agent-dataapi/internal/config"
	"trpc.group/trpc-go/trpc-agent-dataapi/log"
	"trpc.group/trpc-go/trpc-agent-dataapi/telemetry/metric"
	"trpc.group/trpc-go/trpc-agent-dataapi/telemetry/trace"
)

const usage = `usage: dataapi <command> [flags]

commands:
  serve   expose the configured data API tools over MCP
  embed   read one text per line from stdin and print the vectors as JSON
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "dataapi: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	cmd, args := args[0], args[1:]

	flags := flag.NewFlagSet(cmd, flag.ContinueOnError)
	configFile := flags.String("config", "", "Path to TOML config file")
	envFile := flags.String("env", ".env", "Path to a dotenv file with DATAAPI_* variables, skipped when missing")
	transport := flags.String("transport", "", "MCP transport: stdio or http")
	port := flags.Int("port", 0, "HTTP port for the http transport")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if err := loadEnvFile(*envFile); err != nil {
		return err
	}
	cfg, err := config.LoadFromFile(*configFile)
	if err != nil {
		return err
	}
	config.ApplyFlagOverrides(cfg, *transport, *port)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	log.SetLevel(cfg.Logging.Level)

	clean, err := startTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		if err := clean(); err != nil {
			log.Warnf("telemetry shutdown: %v", err)
		}
	}()

	switch cmd {
	case "serve":
		return serve(ctx, cfg)
	case "embed":
		emb, err := newEmbedder(cfg)
		if err != nil {
			return err
		}
		return embedLines(ctx, emb, stdin, stdout)
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

// loadEnvFile exports the variables of a dotenv file. Variables already set
// in the process environment win.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// startTelemetry starts the OTLP exporters enabled in cfg. The returned
// function flushes and stops them.
func startTelemetry(ctx context.Context, cfg config.TelemetryConfig) (func() error, error) {
	var cleans []func() error
	clean := func() error {
		var errs []error
		for i := len(cleans) - 1; i >= 0; i-- {
			errs = append(errs, cleans[i]())
		}
		return errors.Join(errs...)
	}
	if cfg.Traces {
		c, err := trace.Start(ctx,
			trace.WithEndpoint(cfg.Endpoint),
			trace.WithProtocol(cfg.Protocol),
			trace.WithServiceName(cfg.ServiceName),
		)
		if err != nil {
			return nil, fmt.Errorf("start tracing: %w", err)
		}
		cleans = append(cleans, c)
	}
	if cfg.Metrics {
		c, err := metric.Start(ctx,
			metric.WithEndpoint(cfg.Endpoint),
			metric.WithProtocol(cfg.Protocol),
			metric.WithServiceName(cfg.ServiceName),
		)
		if err != nil {
			_ = clean()
			return nil, fmt.Errorf("start metrics: %w", err)
		}
		cleans = append(cleans, c)
	}
	return clean, nil
}
