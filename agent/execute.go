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
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agentrt/internal/jsonrepair"
	"agentrt/internal/telemetry"
	"agentrt/log"
	"agentrt/model"
	"agentrt/tool"
	"agentrt/trace"
)

// ExecuteOption overrides per-call behavior without mutating the agent's
// immutable Config.
type ExecuteOption func(*executeOverrides)

type executeOverrides struct {
	maxSteps int
	observer Observer
}

// WithMaxSteps overrides the configured step bound for a single Execute call.
func WithMaxSteps(n int) ExecuteOption {
	return func(o *executeOverrides) {
		if n > 0 {
			o.maxSteps = n
		}
	}
}

// Execute drives the bounded alternation between LLM turns and tool
// execution steps. It returns a non-nil *Error only for LLM_ERROR,
// MAX_STEPS_EXCEEDED, and CANCELLED — every other failure mode (tool errors)
// is recovered into the conversation and does not fail the call.
func (a *Agent) Execute(ctx context.Context, input string, opts ...ExecuteOption) (*Result, error) {
	overrides := executeOverrides{maxSteps: a.cfg.MaxSteps, observer: noopObserver{}}
	for _, opt := range opts {
		opt(&overrides)
	}
	maxSteps := overrides.maxSteps
	obs := overrides.observer

	rec := trace.NewRecorder(a.cfg.ID)
	rec.Record(trace.Event{Kind: trace.KindAgentStart})

	state := &State{Conversation: a.seedConversation(input)}

	var termErr *Error
loop:
	for state.Step < maxSteps && !state.Complete {
		select {
		case <-ctx.Done():
			termErr = &Error{Code: CodeCancelled, Message: "execution cancelled", Step: state.Step, Cause: ctx.Err()}
			obs.OnError(state.Step, string(CodeCancelled), termErr.Message)
			break loop
		default:
		}

		state.Step++
		stepNum := state.Step
		rec.Record(trace.Event{Kind: trace.KindStepStart, Step: &stepNum})
		obs.OnStep(stepNum)

		if len(state.PendingToolCalls) > 0 {
			a.runToolStep(ctx, state, rec, obs)
		} else {
			if err := a.runLLMStep(ctx, state, rec, obs); err != nil {
				termErr = err
				rec.Record(trace.Event{Kind: trace.KindError, Step: &stepNum, Payload: err.Error()})
				if err.Code != CodeMaxStepsExceeded {
					obs.OnError(stepNum, string(err.Code), err.Message)
				}
				break loop
			}
		}

		rec.Record(trace.Event{Kind: trace.KindStepEnd, Step: &stepNum})
	}

	if termErr == nil && !state.Complete {
		termErr = &Error{Code: CodeMaxStepsExceeded, Message: fmt.Sprintf("exceeded max steps (%d)", maxSteps), Step: state.Step}
		// Recorded as an error event before being raised: a caller
		// inspecting the trace sees why execution stopped, while Execute
		// still signals failure through its error return value alongside a
		// Success=false Result (see DESIGN.md).
		rec.Record(trace.Event{Kind: trace.KindError, Payload: termErr.Error()})
	}

	rec.Record(trace.Event{Kind: trace.KindAgentEnd})
	rec.Finish(*state)

	result := &Result{
		Response: state.FinalResponse,
		State:    *state,
		Trace:    rec.Snapshot(),
		Success:  termErr == nil,
		Err:      termErr,
	}

	if termErr != nil {
		return result, termErr
	}
	return result, nil
}

func (a *Agent) seedConversation(input string) []model.Message {
	var msgs []model.Message
	if a.cfg.Instruction != "" {
		msgs = append(msgs, model.NewSystemMessage(a.cfg.Instruction))
	}
	msgs = append(msgs, model.NewUserMessage(input))
	return msgs
}

// runLLMStep requests an assistant turn and threads its outcome into state.
func (a *Agent) runLLMStep(ctx context.Context, state *State, rec *trace.Recorder, obs Observer) *Error {
	step := state.Step
	catalogue := a.cfg.Tools.Advertise()
	wireTools := make([]model.ToolDeclaration, 0, len(catalogue))
	for _, d := range catalogue {
		wireTools = append(wireTools, model.ToolDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.AsWireSchema(),
		})
	}

	req := &model.Request{
		Messages:         append([]model.Message(nil), state.Conversation...),
		Tools:            wireTools,
		GenerationConfig: a.cfg.Generation,
	}
	rec.Record(trace.Event{Kind: trace.KindLLMRequest, Step: &step, Payload: map[string]any{
		"messageCount": len(req.Messages),
		"toolCount":    len(wireTools),
	}})

	spanCtx, span := telemetry.StartLLMSpan(ctx, a.cfg.ID, a.cfg.Model.Info(), step)
	start := time.Now()
	ch, err := a.cfg.Model.GenerateContent(spanCtx, req)
	if err != nil {
		telemetry.EndLLMSpan(span, req, nil, err)
		return &Error{Code: CodeLLMError, Message: "generate content failed", Step: step, Cause: err}
	}
	rsp, err := model.Collect(spanCtx, ch)
	if err != nil {
		telemetry.EndLLMSpan(span, req, nil, err)
		return &Error{Code: CodeLLMError, Message: "collecting assistant turn failed", Step: step, Cause: err}
	}
	telemetry.EndLLMSpan(span, req, rsp, nil)
	duration := time.Since(start).Milliseconds()

	rec.Record(trace.Event{Kind: trace.KindLLMResponse, Step: &step, DurationMS: &duration, Payload: map[string]any{
		"content":      rsp.Content,
		"toolCalls":    len(rsp.ToolCalls),
		"finishReason": rsp.FinishReason,
	}})

	state.Conversation = append(state.Conversation, model.NewAssistantMessage(rsp.Content, rsp.ToolCalls...))

	if rsp.Content != "" {
		obs.OnThought(step, rsp.Content)
	}

	if len(rsp.ToolCalls) > 0 {
		jsonrepair.RepairToolCallsArgumentsInPlace(ctx, rsp.ToolCalls)
		state.PendingToolCalls = rsp.ToolCalls
		rec.Record(trace.Event{Kind: trace.KindToolCallRequest, Step: &step, Payload: len(rsp.ToolCalls)})
		log.Debugf("agent %s: step %d requested %d tool calls", a.cfg.ID, step, len(rsp.ToolCalls))
		for _, call := range rsp.ToolCalls {
			obs.OnToolCall(step, call)
		}
	} else {
		state.FinalResponse = rsp.Content
		state.Complete = true
		obs.OnFinalAnswer(step, rsp.Content)
	}
	return nil
}

// runToolStep drains pending tool calls sequentially, in request order (see
// DESIGN.md for why this module chose sequential over concurrent dispatch
// here).
func (a *Agent) runToolStep(ctx context.Context, state *State, rec *trace.Recorder, obs Observer) {
	step := state.Step
	pending := state.PendingToolCalls
	state.PendingToolCalls = nil

	for _, call := range pending {
		rec.Record(trace.Event{Kind: trace.KindToolCallStart, Step: &step, Payload: call.Name})

		spanCtx, span := telemetry.StartToolSpan(ctx, &tool.Declaration{Name: call.Name})
		start := time.Now()
		result := a.cfg.Tools.Invoke(spanCtx, tool.Request{ID: call.ID, Name: call.Name, Params: call.Arguments})
		telemetry.EndToolSpan(span, call.Arguments, result)
		duration := time.Since(start).Milliseconds()
		state.ToolResults = append(state.ToolResults, result)

		if result.Success() {
			rec.Record(trace.Event{Kind: trace.KindToolCallEnd, Step: &step, DurationMS: &duration, Payload: result})
			payload, _ := json.Marshal(result.Payload)
			state.Conversation = append(state.Conversation, model.NewToolMessage(call.ID, call.Name, string(payload)))
		} else {
			rec.Record(trace.Event{Kind: trace.KindToolCallError, Step: &step, DurationMS: &duration, Payload: result})
			state.Conversation = append(state.Conversation,
				model.NewToolMessage(call.ID, call.Name, "Error: "+result.Err.Message))
		}
		obs.OnToolResult(step, result)
	}
}
