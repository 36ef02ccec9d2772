// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/profiler/services/profiler/config"
	"github.com/AleutianAI/profiler/services/profiler/pipeline"
)

// newBatchCmd profiles one institution per input line and emits one JSON
// profile per output line. The process stays up across the whole run, so
// the config file is watched and phase timeouts apply to later requests
// without a restart.
func newBatchCmd() *cobra.Command {
	var template pipeline.Request
	var keepGoing bool

	cmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "Profile many institutions, one name per line (stdin when no file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tracer, stopTracing, err := setupTracing(cmd.Context())
			if err != nil {
				return err
			}
			defer stopTracing()

			app, err := newApp(cfg, tracer)
			if err != nil {
				return err
			}
			defer app.Close()

			watchCtx, stopWatch := context.WithCancel(cmd.Context())
			defer stopWatch()
			startConfigWatch(watchCtx, app)

			input := os.Stdin
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				input = f
			}
			err = runBatch(cmd.Context(), app, &template, input, os.Stdout, keepGoing)
			app.logCacheStats()
			return err
		},
	}

	cmd.Flags().StringVar(&template.InstitutionType, "type", "", "institution type override for every name")
	cmd.Flags().StringVar(&template.Location, "location", "", "free-text location constraint")
	cmd.Flags().BoolVar(&template.ForceRefresh, "force", false, "bypass caches")
	cmd.Flags().BoolVar(&template.SkipExtraction, "skip-extraction", false, "stop after crawl")
	cmd.Flags().StringVar(&template.Strategy, "strategy", "", "crawl strategy (equal|priority_based|high_links|high_depth)")
	cmd.Flags().IntVar(&template.MaxPages, "max-pages", 0, "global page cap per crawl")
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "continue past failed names")
	return cmd
}

// startConfigWatch hands config edits to the orchestrator for the rest
// of the batch. A watcher setup failure is not fatal; the batch just
// runs with the startup settings.
func startConfigWatch(ctx context.Context, app *app) {
	watcher, err := config.NewWatcher(resolveConfigPath(), func(cfg config.Config) {
		app.orchestrator.SetTimeouts(pipeline.Timeouts{
			Search:  cfg.Pipeline.SearchTimeout.Std(),
			Crawl:   cfg.Pipeline.CrawlTimeout.Std(),
			Extract: cfg.Pipeline.ExtractTimeout.Std(),
		})
	}, app.log)
	if err != nil {
		app.log.Warn("config watch unavailable", slog.Any("error", err))
		return
	}
	go func() {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			app.log.Warn("config watch stopped", slog.Any("error", err))
		}
	}()
}

// runBatch profiles each non-blank, non-comment line of input.
func runBatch(ctx context.Context, app *app, template *pipeline.Request, input io.Reader, output io.Writer, keepGoing bool) error {
	enc := json.NewEncoder(output)
	scanner := bufio.NewScanner(input)
	line := 0
	failed := 0
	for scanner.Scan() {
		line++
		name := strings.TrimSpace(scanner.Text())
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}

		req := *template
		req.InstitutionName = name
		profile, err := app.orchestrator.Run(ctx, &req)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return err
			}
			if !keepGoing {
				return fmt.Errorf("line %d (%q): %w", line, name, err)
			}
			failed++
			app.log.Error("batch entry failed",
				slog.Int("line", line),
				slog.String("name", name),
				slog.Any("error", err))
			continue
		}
		if err := enc.Encode(profile); err != nil {
			return fmt.Errorf("encode profile: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d entries failed", failed, line)
	}
	return nil
}
