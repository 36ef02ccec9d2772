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
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/profiler/services/profiler/benchmark"
)

func newBenchCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Show cross-session benchmark aggregates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.BenchmarkDir(), "aggregate.json")
			data, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Println("no benchmark data yet")
					return nil
				}
				return err
			}
			var agg benchmark.Aggregates
			if err := json.Unmarshal(data, &agg); err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(agg)
			}
			fmt.Printf("updated: %s\n\n", agg.UpdatedAt)
			fmt.Printf("%-10s %8s %8s %10s %10s %10s %10s\n",
				"category", "runs", "ok%", "avg ms", "cost $", "tok in", "tok out")
			for _, category := range []benchmark.Category{
				benchmark.CategorySearch, benchmark.CategoryCrawl,
				benchmark.CategoryExtract, benchmark.CategoryPipeline,
			} {
				a, ok := agg.Categories[category]
				if !ok {
					continue
				}
				fmt.Printf("%-10s %8d %7.1f%% %10.1f %10.4f %10d %10d\n",
					category, a.Count, a.SuccessRate()*100, a.AverageMS(),
					a.CostUSD, a.InputTokens, a.OutputTokens)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}
