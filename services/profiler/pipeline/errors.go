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

import "errors"

// ErrorKind classifies a degradation or failure during a run. Only
// KindSchemaMismatch and KindCanceled surface as top-level errors; every
// other kind lands in the result's ErrorKinds list with Degraded set.
type ErrorKind string

const (
	KindSearchUnavailable ErrorKind = "SearchProviderUnavailable"
	KindCrawlEmpty        ErrorKind = "CrawlEmpty"
	KindExtractFailed     ErrorKind = "ExtractFailed"
	KindPhaseTimeout      ErrorKind = "PhaseTimeout"
	KindSchemaMismatch    ErrorKind = "SchemaMismatch"
	KindCacheCorrupt      ErrorKind = "CacheCorrupt"
	KindCanceled          ErrorKind = "Canceled"
)

// ErrSchemaMismatch is the one data-level condition that aborts a request.
var ErrSchemaMismatch = errors.New("pipeline: schema mismatch")

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("pipeline: invalid request")
