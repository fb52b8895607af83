//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package agent

import (
	"agentrt/model"
	"agentrt/tool"
)

// Observer receives step-loop lifecycle callbacks during Execute. It backs
// the streaming projection without requiring the step loop itself to know
// about channels or pacing — Execute calls these synchronously and in
// order; a slow or blocking Observer implementation blocks the loop, which
// is exactly how the streaming projection applies backpressure to its
// producer.
type Observer interface {
	// OnStep is called once at the start of each step, before the step's work runs.
	OnStep(step int)
	// OnThought is called after an LLM step that returned non-empty content.
	OnThought(step int, content string)
	// OnToolCall is called once per requested tool call, in request order.
	OnToolCall(step int, call model.ToolCall)
	// OnToolResult is called once per tool result, including failures.
	OnToolResult(step int, result tool.Result)
	// OnFinalAnswer is called exactly once, when the loop completes normally.
	OnFinalAnswer(step int, answer string)
	// OnError is called for terminal errors other than MAX_STEPS_EXCEEDED.
	OnError(step int, code, message string)
}

// WithObserver registers obs to receive step-loop callbacks for a single
// Execute call.
func WithObserver(obs Observer) ExecuteOption {
	return func(o *executeOverrides) { o.observer = obs }
}

type noopObserver struct{}

func (noopObserver) OnStep(int)                       {}
func (noopObserver) OnThought(int, string)             {}
func (noopObserver) OnToolCall(int, model.ToolCall)    {}
func (noopObserver) OnToolResult(int, tool.Result)     {}
func (noopObserver) OnFinalAnswer(int, string)         {}
func (noopObserver) OnError(int, string, string)       {}
