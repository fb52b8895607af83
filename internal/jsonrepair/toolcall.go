//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package jsonrepair

import (
	"bytes"
	"context"
	"encoding/json"

	"agentrt/log"
	"agentrt/model"
)

// RepairToolCallArguments returns repaired tool call arguments when the
// input is not valid JSON, falling back to the original bytes when repair
// cannot produce valid JSON either.
func RepairToolCallArguments(ctx context.Context, toolName string, arguments []byte) []byte {
	trimmed := bytes.TrimSpace(arguments)
	if len(trimmed) == 0 || json.Valid(trimmed) {
		return arguments
	}
	repaired, err := Repair(arguments)
	if err != nil {
		log.ErrorfContext(ctx, "tool call arguments JSON repair failed for %s: %v", toolName, err)
		return arguments
	}
	chosen, usedRepair := chooseToolCallArguments(arguments, repaired)
	if !usedRepair {
		log.ErrorfContext(ctx, "tool call arguments JSON repair produced invalid JSON for %s", toolName)
		return arguments
	}
	log.InfofContext(ctx, "tool call arguments JSON repaired for %s", toolName)
	return chosen
}

// chooseToolCallArguments prefers repaired when it is a non-empty JSON payload.
func chooseToolCallArguments(arguments, repaired []byte) ([]byte, bool) {
	repairedTrimmed := bytes.TrimSpace(repaired)
	if len(repairedTrimmed) == 0 || !json.Valid(repairedTrimmed) {
		return arguments, false
	}
	return repaired, true
}

// RepairToolCallArgumentsInPlace repairs a single tool call's arguments in place.
func RepairToolCallArgumentsInPlace(ctx context.Context, toolCall *model.ToolCall) {
	if toolCall == nil {
		return
	}
	toolCall.Arguments = RepairToolCallArguments(ctx, toolCall.Name, toolCall.Arguments)
}

// RepairToolCallsArgumentsInPlace repairs every tool call's arguments in place.
func RepairToolCallsArgumentsInPlace(ctx context.Context, toolCalls []model.ToolCall) {
	for i := range toolCalls {
		RepairToolCallArgumentsInPlace(ctx, &toolCalls[i])
	}
}

// ExtractJSON finds and repairs the first balanced JSON object or array
// substring in text, returning the repaired bytes. Used by the swarm's
// supervisor routing parser, which must tolerate free-form LLM text
// wrapping the JSON decision it asked for.
func ExtractJSON(text string) ([]byte, error) {
	span := balancedJSONSpan(text)
	if span == "" {
		return nil, &Error{Message: "no JSON object or array found", Position: 0}
	}
	if json.Valid([]byte(span)) {
		return []byte(span), nil
	}
	return Repair([]byte(span))
}

// balancedJSONSpan scans text for the first '{' or '[' and returns the
// substring up to its matching closing bracket, tracking string/escape
// state so braces inside string values don't confuse the scan. If the
// opening bracket is never closed, it returns the remainder of text so the
// caller's repair pass can attempt to close a truncated payload.
func balancedJSONSpan(text string) string {
	start := -1
	for i, r := range text {
		if r == '{' || r == '[' {
			start = i
			break
		}
	}
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	runes := []rune(text[start:])
	for i, r := range runes {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return string(runes[:i+1])
			}
		}
	}
	return string(runes)
}
