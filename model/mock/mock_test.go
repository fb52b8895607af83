//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentrt/model"
)

func TestModel_ReturnsScriptedTurnsInOrder(t *testing.T) {
	m := New("test-model",
		TextTurn("first"),
		TextTurn("second"),
	)

	ch, err := m.GenerateContent(context.Background(), &model.Request{})
	require.NoError(t, err)
	rsp, err := model.Collect(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, "first", rsp.Content)

	ch, err = m.GenerateContent(context.Background(), &model.Request{})
	require.NoError(t, err)
	rsp, err = model.Collect(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, "second", rsp.Content)

	assert.Equal(t, 2, m.CallCount())
}

func TestModel_RepeatsLastTurnPastScriptEnd(t *testing.T) {
	m := New("test-model", TextTurn("only"))
	for i := 0; i < 3; i++ {
		ch, err := m.GenerateContent(context.Background(), &model.Request{})
		require.NoError(t, err)
		rsp, err := model.Collect(context.Background(), ch)
		require.NoError(t, err)
		assert.Equal(t, "only", rsp.Content)
	}
}

func TestModel_FailingTurn(t *testing.T) {
	m := New("test-model", Failing("network down"))
	_, err := m.GenerateContent(context.Background(), &model.Request{})
	require.Error(t, err)
	var modelErr *model.Error
	require.ErrorAs(t, err, &modelErr)
}

func TestModel_RecordsRequests(t *testing.T) {
	m := New("test-model", TextTurn("ok"))
	req := &model.Request{Messages: []model.Message{model.NewUserMessage("hi")}}
	_, err := m.GenerateContent(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, m.Requests, 1)
	assert.Equal(t, "hi", m.Requests[0].Messages[0].Text())
}

func TestModel_DelayedTurnHonorsContextCancellation(t *testing.T) {
	m := New("test-model", Turn{Response: &model.Response{Content: "late"}, Delay: time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := m.GenerateContent(ctx, &model.Request{})
	require.Error(t, err)
}

func TestModel_DelayedTurnResolvesAfterDelay(t *testing.T) {
	m := New("test-model", Turn{Response: &model.Response{Content: "slow"}, Delay: 10 * time.Millisecond})
	start := time.Now()
	ch, err := m.GenerateContent(context.Background(), &model.Request{})
	require.NoError(t, err)
	rsp, err := model.Collect(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, "slow", rsp.Content)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestToolCallTurn(t *testing.T) {
	m := New("test-model", ToolCallTurn("calling", model.ToolCall{ID: "c1", Name: "calculator"}))
	ch, err := m.GenerateContent(context.Background(), &model.Request{})
	require.NoError(t, err)
	rsp, err := model.Collect(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, model.FinishReasonToolCalls, rsp.FinishReason)
	require.Len(t, rsp.ToolCalls, 1)
	assert.Equal(t, "calculator", rsp.ToolCalls[0].Name)
}
