//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package trace implements an append-only ordered log of typed execution
// events with timestamps, per-step numbering, and aggregated counters.
package trace

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates trace event kinds.
type Kind string

// Event kinds.
const (
	KindAgentStart     Kind = "agent_start"
	KindAgentEnd       Kind = "agent_end"
	KindStepStart      Kind = "step_start"
	KindStepEnd        Kind = "step_end"
	KindLLMRequest     Kind = "llm_request"
	KindLLMResponse    Kind = "llm_response"
	KindLLMStreamStart Kind = "llm_stream_start"
	KindLLMStreamChunk Kind = "llm_stream_chunk"
	KindLLMStreamEnd   Kind = "llm_stream_end"
	KindToolCallRequest Kind = "tool_call_request"
	KindToolCallStart  Kind = "tool_call_start"
	KindToolCallEnd    Kind = "tool_call_end"
	KindToolCallError  Kind = "tool_call_error"
	KindError          Kind = "error"
)

// Event is one entry in an ExecutionTrace.
type Event struct {
	Kind       Kind      `json:"kind"`
	Timestamp  time.Time `json:"timestamp"`
	Step       *int      `json:"step,omitempty"`
	DurationMS *int64    `json:"durationMs,omitempty"`
	Payload    any       `json:"payload,omitempty"`
}

// Stats aggregates counters derived from recorded events.
type Stats struct {
	TotalSteps         int  `json:"totalSteps"`
	TotalLLMCalls      int  `json:"totalLlmCalls"`
	TotalToolCalls     int  `json:"totalToolCalls"`
	SuccessfulToolCalls int `json:"successfulToolCalls"`
	FailedToolCalls    int  `json:"failedToolCalls"`
	TokensUsed         *int `json:"tokensUsed,omitempty"`
}

// ExecutionTrace is the full, append-only record of one agent execution.
type ExecutionTrace struct {
	ExecutionID string     `json:"executionId"`
	AgentID     string     `json:"agentId"`
	StartedAt   time.Time  `json:"startedAt"`
	EndedAt     *time.Time `json:"endedAt,omitempty"`
	DurationMS  *int64     `json:"durationMs,omitempty"`
	Events      []Event    `json:"events"`
	Stats       Stats      `json:"stats"`

	// FinalState is an opaque snapshot of agent state at termination, set
	// by the owning executor.
	FinalState any `json:"finalState,omitempty"`
}

// Recorder accumulates events for a single execution. It is mutated only by
// its owning executor and must not be shared across concurrent executions.
type Recorder struct {
	mu    sync.Mutex
	trace ExecutionTrace
}

// NewRecorder starts a new Recorder for the given agent id.
func NewRecorder(agentID string) *Recorder {
	return &Recorder{
		trace: ExecutionTrace{
			ExecutionID: uuid.NewString(),
			AgentID:     agentID,
			StartedAt:   time.Now(),
		},
	}
}

// Record appends an event, stamping its timestamp if unset, and updates counters.
func (r *Recorder) Record(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace.Events = append(r.trace.Events, e)
	r.updateStats(e)
}

func (r *Recorder) updateStats(e Event) {
	switch e.Kind {
	case KindStepStart:
		r.trace.Stats.TotalSteps++
	case KindLLMRequest:
		r.trace.Stats.TotalLLMCalls++
	case KindToolCallRequest:
		if n, ok := e.Payload.(int); ok {
			r.trace.Stats.TotalToolCalls += n
		}
	case KindToolCallEnd:
		r.trace.Stats.SuccessfulToolCalls++
	case KindToolCallError:
		r.trace.Stats.FailedToolCalls++
	}
}

// Finish stamps the end time, computes total duration, and records the
// final state snapshot.
func (r *Recorder) Finish(finalState any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.trace.EndedAt = &now
	d := now.Sub(r.trace.StartedAt).Milliseconds()
	r.trace.DurationMS = &d
	r.trace.FinalState = finalState
}

// Snapshot returns an independent deep copy of the trace as it stands.
func (r *Recorder) Snapshot() ExecutionTrace {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := r.trace
	cp.Events = append([]Event(nil), r.trace.Events...)
	if r.trace.EndedAt != nil {
		ended := *r.trace.EndedAt
		cp.EndedAt = &ended
	}
	if r.trace.DurationMS != nil {
		d := *r.trace.DurationMS
		cp.DurationMS = &d
	}
	return cp
}

// ExecutionID returns the id assigned to this execution.
func (r *Recorder) ExecutionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trace.ExecutionID
}
