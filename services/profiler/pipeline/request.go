// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pipeline

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/profiler/services/profiler/schema"
)

// Request is one profiling job.
type Request struct {
	InstitutionName string `json:"institution_name" validate:"required,min=2"`
	// InstitutionType overrides type inference when set.
	InstitutionType string `json:"institution_type,omitempty" validate:"omitempty,oneof=university hospital bank general"`

	Location           string `json:"location,omitempty"`
	AdditionalKeywords string `json:"additional_keywords,omitempty"`
	DomainHint         string `json:"domain_hint,omitempty" validate:"omitempty,fqdn"`
	ExcludeTerms       string `json:"exclude_terms,omitempty"`

	ForceRefresh   bool   `json:"force_refresh,omitempty"`
	SkipExtraction bool   `json:"skip_extraction,omitempty"`
	Strategy       string `json:"strategy,omitempty" validate:"omitempty,oneof=equal priority_based high_links high_depth"`
	MaxPages       int    `json:"max_pages,omitempty" validate:"gte=0"`

	// DirectText is caller-supplied content used when search and crawl
	// produce nothing.
	DirectText string `json:"direct_text,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the request against its field constraints.
func (r *Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// ResolveType applies the explicit type override or falls back to keyword
// inference on the institution name.
func (r *Request) ResolveType() schema.InstitutionType {
	if r.InstitutionType != "" {
		if t, ok := schema.ParseType(r.InstitutionType); ok {
			return t
		}
	}
	return schema.InferType(r.InstitutionName)
}
