//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package stream re-expresses an agent's step loop as a lazy sequence of
// high-level semantic events while the loop runs. Production is paced by
// consumption; the full execution need not complete before the first event
// arrives.
package stream

import (
	"context"
	"errors"
	"time"

	"agentrt/agent"
	"agentrt/log"
	"agentrt/model"
	"agentrt/tool"
)

// Kind discriminates projected stream event kinds.
type Kind string

// Event kinds.
const (
	KindStep        Kind = "step"
	KindThought     Kind = "thought"
	KindToolCall    Kind = "tool_call"
	KindToolResult  Kind = "tool_result"
	KindFinalAnswer Kind = "final_answer"
	KindError       Kind = "error"
)

// Event is one semantic event yielded by Project.
type Event struct {
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Step      *int      `json:"step,omitempty"`

	Content  string          `json:"content,omitempty"`
	ToolCall *model.ToolCall `json:"toolCall,omitempty"`
	Result   *tool.Result    `json:"result,omitempty"`
	Answer   string          `json:"answer,omitempty"`
	Err      string          `json:"error,omitempty"`
	Code     string          `json:"code,omitempty"`
}

func withStep(e Event, step int) Event {
	e.Step = &step
	e.Timestamp = time.Now()
	return e
}

// DefaultBufferSize is the capacity of the channel Project returns: a small
// bounded buffer rather than an unbounded one, so a slow consumer applies
// backpressure to the producer.
const DefaultBufferSize = 16

// Project drives a, the same agent a caller could Execute directly, and
// projects its step loop onto a channel of Events in the order they occur.
// The returned error channel carries exactly one value —
// nil on a clean stop, or the agent's terminal *agent.Error — and is closed
// immediately after. MAX_STEPS_EXCEEDED is never projected as an `error`
// event; it is delivered only on the error channel, so callers can
// distinguish it from a recovered mid-stream failure.
func Project(ctx context.Context, a *agent.Agent, input string, opts ...agent.ExecuteOption) (<-chan Event, <-chan error) {
	events := make(chan Event, DefaultBufferSize)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)

		proj := &projector{agent: a, events: events, ctx: ctx}
		_, err := a.Execute(ctx, input, append(opts, agent.WithObserver(proj))...)
		var agentErr *agent.Error
		if errors.As(err, &agentErr) && agentErr.Code == agent.CodeMaxStepsExceeded {
			errs <- agentErr
			return
		}
		if err != nil {
			errs <- err
			return
		}
		errs <- nil
	}()

	return events, errs
}

// projector implements agent.Observer, translating step-loop callbacks into
// projected Events. Delivery failures (a full or closed channel under
// context cancellation) are swallowed with a log line; they never fail the
// underlying execution.
type projector struct {
	ctx    context.Context
	agent  *agent.Agent
	events chan<- Event
}

func (p *projector) emit(e Event) {
	select {
	case p.events <- e:
	case <-p.ctx.Done():
		log.Debugf("stream: dropping event %s after context cancellation", e.Kind)
	case <-time.After(time.Second):
		log.Warnf("stream: consumer did not accept event %s within 1s; dropping", e.Kind)
	}
}

// OnStep is called at the start of each step.
func (p *projector) OnStep(step int) {
	p.emit(withStep(Event{Kind: KindStep}, step))
}

// OnThought is called after an LLM step with non-empty content.
func (p *projector) OnThought(step int, content string) {
	if content == "" {
		return
	}
	p.emit(withStep(Event{Kind: KindThought, Content: content}, step))
}

// OnToolCall is called once per requested tool call after an LLM step.
func (p *projector) OnToolCall(step int, call model.ToolCall) {
	c := call
	p.emit(withStep(Event{Kind: KindToolCall, ToolCall: &c}, step))
}

// OnToolResult is called once per tool result after a tool-execution step.
func (p *projector) OnToolResult(step int, result tool.Result) {
	r := result
	p.emit(withStep(Event{Kind: KindToolResult, Result: &r}, step))
}

// OnFinalAnswer is called exactly once, as the terminating event.
func (p *projector) OnFinalAnswer(step int, answer string) {
	p.emit(withStep(Event{Kind: KindFinalAnswer, Answer: answer}, step))
}

// OnError is called for terminal errors other than MAX_STEPS_EXCEEDED.
func (p *projector) OnError(step int, code, message string) {
	p.emit(withStep(Event{Kind: KindError, Err: message, Code: code}, step))
}

