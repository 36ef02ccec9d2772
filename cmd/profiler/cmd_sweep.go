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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/profiler/services/profiler/cache"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := newApp(cfg, nil)
			if err != nil {
				return err
			}
			defer app.Close()

			total := 0
			for _, store := range []*cache.Store{app.searchCache, app.crawlCache, app.extractCache} {
				removed := store.Sweep()
				total += removed
				fmt.Printf("%-8s removed %d expired entries\n", store.Name(), removed)
			}
			fmt.Printf("total: %d\n", total)
			return nil
		},
	}
}
