// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// LangchainLLM adapts a langchaingo model to the LLMClient capability and
// attaches cost accounting.
type LangchainLLM struct {
	model        llms.Model
	pricing      *Pricing
	defaultModel string
}

// NewLangchainLLM wraps model. defaultModel applies when a request leaves
// ModelID empty.
func NewLangchainLLM(model llms.Model, pricing *Pricing, defaultModel string) *LangchainLLM {
	if pricing == nil {
		pricing = NewPricing(nil)
	}
	return &LangchainLLM{model: model, pricing: pricing, defaultModel: defaultModel}
}

// Complete runs one completion.
//
// Outputs:
//   - *LLMResult: text plus token and cost accounting. Token counts fall
//     back to a length/4 estimate when the backend reports none.
//   - error: wraps ErrUnavailable on transport failure.
func (l *LangchainLLM) Complete(ctx context.Context, req LLMRequest) (*LLMResult, error) {
	modelID := req.ModelID
	if modelID == "" {
		modelID = l.defaultModel
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, req.UserPrompt),
	}
	opts := []llms.CallOption{llms.WithModel(modelID)}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	opts = append(opts, llms.WithTemperature(req.Temperature))

	resp, err := l.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: llm completion: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: llm returned no choices", ErrUnavailable)
	}
	choice := resp.Choices[0]

	in := generationInfoInt(choice.GenerationInfo, "PromptTokens", "prompt_tokens", "input_tokens")
	out := generationInfoInt(choice.GenerationInfo, "CompletionTokens", "completion_tokens", "output_tokens")
	if in == 0 {
		in = estimateTokens(req.SystemPrompt) + estimateTokens(req.UserPrompt)
	}
	if out == 0 {
		out = estimateTokens(choice.Content)
	}

	return &LLMResult{
		Text:         choice.Content,
		InputTokens:  in,
		OutputTokens: out,
		CostUSD:      l.pricing.Estimate(modelID, in, out),
	}, nil
}

// generationInfoInt digs an integer out of the backend-specific
// GenerationInfo map; key casing varies by provider.
func generationInfoInt(info map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := info[key].(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}

// estimateTokens approximates token count at four characters per token,
// the usual rule of thumb for English prose.
func estimateTokens(text string) int {
	return len(strings.TrimSpace(text)) / 4
}
