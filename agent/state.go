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
	"agentrt/trace"
)

// State is the mutable per-execution state of the step loop. It is created
// per call, mutated only by its owning loop, and discarded after the result
// is returned.
type State struct {
	Step              int
	Conversation      []model.Message
	PendingToolCalls  []model.ToolCall
	ToolResults       []tool.Result
	Complete          bool
	FinalResponse     string
	TerminalError     *Error
}

// Result is what Execute returns: the final response, the terminal state,
// the execution trace, a success flag, and an optional error value.
type Result struct {
	Response string
	State    State
	Trace    trace.ExecutionTrace
	Success  bool
	Err      *Error
}
