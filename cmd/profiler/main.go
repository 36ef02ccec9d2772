// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// profiler is the institution-profiling CLI: spell-corrected name
// resolution, the search/crawl/extract pipeline, quality scoring, and
// benchmark reporting.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/profiler/services/profiler/config"
)

// Root flag values.
var (
	configPath   string
	baseDirFlag  string
	verbose      bool
	traceEnabled bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "profiler",
		Short: "Institution profiling pipeline",
		Long:  "Profiles institutions by searching, crawling, and extracting structured records, with dictionary-backed name resolution and quality scoring.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default <base-dir>/profiler.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseDirFlag, "base-dir", "", "state directory override")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&traceEnabled, "trace", false, "emit OpenTelemetry spans to stdout")

	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newSuggestCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newBenchCmd())
	rootCmd.AddCommand(newSweepCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// setupLogging installs the process-wide slog handler: human-readable on
// a terminal, JSON when piped.
func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// setupTracing installs a stdout span exporter when --trace is set.
//
// Outputs:
//   - trace.Tracer: the tracer phases attach spans to; nil without --trace.
//   - func(): shutdown, flushes pending spans. Never nil.
func setupTracing(ctx context.Context) (trace.Tracer, func(), error) {
	if !traceEnabled {
		return nil, func() {}, nil
	}
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, func() {}, fmt.Errorf("init trace exporter: %w", err)
	}
	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	shutdown := func() {
		if err := provider.Shutdown(ctx); err != nil {
			slog.Warn("trace provider shutdown", slog.Any("error", err))
		}
	}
	return provider.Tracer("profiler"), shutdown, nil
}

// resolveConfigPath honors --config, falling back to the base directory.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	base := baseDirFlag
	if base == "" {
		base = config.Default().BaseDir
	}
	return filepath.Join(base, config.FileName)
}

// loadConfig resolves the config file path and applies the base-dir flag.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return cfg, err
	}
	if baseDirFlag != "" {
		cfg.BaseDir = baseDirFlag
	}
	return cfg, nil
}
