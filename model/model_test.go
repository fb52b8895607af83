//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect_SingleDoneChunk(t *testing.T) {
	ch := make(chan *ResponseChunk, 1)
	ch <- &ResponseChunk{Done: true, Response: &Response{Content: "hi", FinishReason: FinishReasonStop}}
	close(ch)

	rsp, err := Collect(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, "hi", rsp.Content)
	assert.Equal(t, FinishReasonStop, rsp.FinishReason)
}

func TestCollect_AccumulatesThenDone(t *testing.T) {
	ch := make(chan *ResponseChunk, 3)
	ch <- &ResponseChunk{Delta: "The "}
	ch <- &ResponseChunk{Delta: "answer"}
	ch <- &ResponseChunk{Done: true, Response: &Response{Content: "The answer", FinishReason: FinishReasonStop}}
	close(ch)

	rsp, err := Collect(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, "The answer", rsp.Content)
}

func TestCollect_PropagatesChunkError(t *testing.T) {
	ch := make(chan *ResponseChunk, 1)
	ch <- &ResponseChunk{Done: true, Err: errors.New("boom")}
	close(ch)

	_, err := Collect(context.Background(), ch)
	require.Error(t, err)
	var modelErr *Error
	require.ErrorAs(t, err, &modelErr)
}

func TestCollect_ContextCancelled(t *testing.T) {
	ch := make(chan *ResponseChunk)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect(ctx, ch)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCollect_ClosedWithoutFinalResponse(t *testing.T) {
	ch := make(chan *ResponseChunk)
	close(ch)

	_, err := Collect(context.Background(), ch)
	require.Error(t, err)
}

func TestError_UnwrapAndMessage(t *testing.T) {
	cause := errors.New("network reset")
	e := NewError("anthropic", "request failed", cause)
	assert.Contains(t, e.Error(), "anthropic")
	assert.Contains(t, e.Error(), "network reset")
	assert.ErrorIs(t, e, cause)
}
