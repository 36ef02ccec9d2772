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
)

func newSuggestCmd() *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "suggest <prefix>",
		Short: "Autocomplete institution names, with spell-correction fallback",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := strings.Join(args, " ")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := newApp(cfg, nil)
			if err != nil {
				return err
			}
			defer app.Close()

			candidates := app.autocomplete.Suggest(prefix, limit)
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(candidates)
			}
			if len(candidates) == 0 {
				fmt.Println("no suggestions")
				return nil
			}
			for _, c := range candidates {
				fmt.Printf("%-50s %-12s freq=%-6d %s\n", c.Name, c.Type, c.Frequency, c.Provenance)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum suggestions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}
