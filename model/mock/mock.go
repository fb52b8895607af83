//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package mock provides a scriptable model.Model double for exercising the
// step loop, streaming projection, and swarm coordinator without a live LLM
// backend — the wire protocol of any concrete provider is out of scope for
// this runtime, so every test in this module drives execution through Model
// here instead.
package mock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"agentrt/model"
)

// Turn is one scripted assistant response, returned verbatim on the Nth call
// to GenerateContent (1-indexed by call count).
type Turn struct {
	Response *model.Response
	Err      error

	// Chunks, when non-empty, are streamed before Done instead of delivering
	// Response in a single chunk. Each entry becomes one Delta fragment.
	Chunks []string

	// Delay, when non-zero, is waited out before the turn resolves, honoring
	// ctx cancellation. Used to exercise timeout paths deterministically.
	Delay time.Duration
}

// Model is a deterministic, thread-safe model.Model backed by an ordered
// list of scripted Turns. CallCount reports how many turns have been
// consumed.
type Model struct {
	mu        sync.Mutex
	turns     []Turn
	callCount int64
	info      model.Info

	// Requests records every request this model received, for assertions.
	Requests []*model.Request
}

// New creates a scripted Model that returns turns in order; calls beyond the
// scripted list repeat the last turn.
func New(name string, turns ...Turn) *Model {
	return &Model{
		turns: turns,
		info:  model.Info{Name: name, Provider: "mock"},
	}
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return m.info
}

// CallCount returns the number of GenerateContent invocations so far.
func (m *Model) CallCount() int {
	return int(atomic.LoadInt64(&m.callCount))
}

// GenerateContent implements model.Model.
func (m *Model) GenerateContent(ctx context.Context, req *model.Request) (<-chan *model.ResponseChunk, error) {
	m.mu.Lock()
	idx := int(atomic.AddInt64(&m.callCount, 1)) - 1
	m.Requests = append(m.Requests, req.Clone())
	var turn Turn
	switch {
	case len(m.turns) == 0:
		turn = Turn{Response: &model.Response{FinishReason: model.FinishReasonStop}}
	case idx < len(m.turns):
		turn = m.turns[idx]
	default:
		turn = m.turns[len(m.turns)-1]
	}
	m.mu.Unlock()

	if turn.Delay > 0 {
		select {
		case <-time.After(turn.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if turn.Err != nil {
		return nil, model.NewError(m.info.Provider, "scripted failure", turn.Err)
	}

	ch := make(chan *model.ResponseChunk, len(turn.Chunks)+1)
	for _, frag := range turn.Chunks {
		ch <- &model.ResponseChunk{Delta: frag}
	}
	rsp := turn.Response
	if rsp == nil {
		rsp = &model.Response{FinishReason: model.FinishReasonStop}
	}
	ch <- &model.ResponseChunk{Done: true, Response: rsp}
	close(ch)
	return ch, nil
}

// Failing returns a Turn that fails GenerateContent outright.
func Failing(reason string) Turn {
	return Turn{Err: fmt.Errorf("%s", reason)}
}

// TextTurn returns a Turn with plain text content and a stop finish reason.
func TextTurn(content string) Turn {
	return Turn{Response: &model.Response{Content: content, FinishReason: model.FinishReasonStop}}
}

// ToolCallTurn returns a Turn requesting the given tool calls.
func ToolCallTurn(content string, calls ...model.ToolCall) Turn {
	return Turn{Response: &model.Response{
		Content:      content,
		ToolCalls:    calls,
		FinishReason: model.FinishReasonToolCalls,
	}}
}
