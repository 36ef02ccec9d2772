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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/profiler/services/profiler/pipeline"
)

func newProfileCmd() *cobra.Command {
	var req pipeline.Request

	cmd := &cobra.Command{
		Use:   "profile <institution name>",
		Short: "Profile one institution through the full pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.InstitutionName = strings.Join(args, " ")

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

			profile, err := app.orchestrator.Run(cmd.Context(), &req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(profile); err != nil {
				return fmt.Errorf("encode profile: %w", err)
			}
			if profile.Degraded {
				fmt.Fprintf(os.Stderr, "degraded result: %v\n", profile.ErrorKinds)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.InstitutionType, "type", "", "institution type override (university|hospital|bank|general)")
	cmd.Flags().StringVar(&req.Location, "location", "", "free-text location constraint")
	cmd.Flags().StringVar(&req.AdditionalKeywords, "keywords", "", "extra search keywords")
	cmd.Flags().StringVar(&req.DomainHint, "domain", "", "expected official domain")
	cmd.Flags().StringVar(&req.ExcludeTerms, "exclude", "", "space-separated terms to exclude")
	cmd.Flags().BoolVar(&req.ForceRefresh, "force", false, "bypass caches for this request")
	cmd.Flags().BoolVar(&req.SkipExtraction, "skip-extraction", false, "stop after crawl, return partial result")
	cmd.Flags().StringVar(&req.Strategy, "strategy", "", "crawl strategy (equal|priority_based|high_links|high_depth)")
	cmd.Flags().IntVar(&req.MaxPages, "max-pages", 0, "global page cap for the crawl")
	cmd.Flags().StringVar(&req.DirectText, "direct-text", "", "caller-supplied content fallback")
	return cmd
}
