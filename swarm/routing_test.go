//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package swarm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentrt/agent"
	"agentrt/model/mock"
)

func TestRouteByKeyword_RoutesOnlyToMatchingSpecialist(t *testing.T) {
	code := newSpecialist(t, "code", "writes code", []string{"code", "function"}, 10, mock.TextTurn("ok"))
	docs := newSpecialist(t, "docs", "writes docs", []string{"docs"}, 5, mock.TextTurn("ok"))

	decisions, err := route(context.Background(), "Write a function", []Specialist{code, docs}, nil, nil)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, "code", decisions[0].SpecialistID)
	assert.Equal(t, 0.8, decisions[0].Confidence)
}

func TestRouteByKeyword_MultipleMatchesOrderedByPriority(t *testing.T) {
	low := newSpecialist(t, "low", "low priority", []string{"task"}, 1, mock.TextTurn("ok"))
	high := newSpecialist(t, "high", "high priority", []string{"task"}, 9, mock.TextTurn("ok"))

	decisions, err := route(context.Background(), "do the task", []Specialist{low, high}, nil, nil)
	require.NoError(t, err)
	require.Len(t, decisions, 2)
	assert.Equal(t, "high", decisions[0].SpecialistID)
	assert.Equal(t, "low", decisions[1].SpecialistID)
}

func TestRoute_CustomRouterTakesPrecedence(t *testing.T) {
	code := newSpecialist(t, "code", "writes code", []string{"code"}, 10, mock.TextTurn("ok"))
	custom := Router(func(_ context.Context, _ string, specialists []Specialist) ([]RoutingDecision, error) {
		return []RoutingDecision{{SpecialistID: specialists[0].ID, Reason: "custom", Confidence: 1}}, nil
	})

	decisions, err := route(context.Background(), "anything", []Specialist{code}, custom, nil)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, "custom", decisions[0].Reason)
}

func TestRoute_SupervisorFallbackParsesJSONDecision(t *testing.T) {
	code := newSpecialist(t, "code", "writes code", nil, 0, mock.TextTurn("ok"))
	docs := newSpecialist(t, "docs", "writes docs", nil, 0, mock.TextTurn("ok"))

	supervisorModel := mock.New("supervisor", mock.TextTurn(
		`I choose: {"specialistId":"docs","reason":"matches topic","confidence":0.95}`))
	supervisor, err := agent.New(agent.Config{ID: "supervisor", Model: supervisorModel})
	require.NoError(t, err)

	decisions, err := route(context.Background(), "write the readme", []Specialist{code, docs}, nil, supervisor)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, "docs", decisions[0].SpecialistID)
	assert.Equal(t, "matches topic", decisions[0].Reason)
}

func TestRoute_FallsBackToFirstSpecialistWhenSupervisorFails(t *testing.T) {
	code := newSpecialist(t, "code", "writes code", nil, 0, mock.TextTurn("ok"))
	docs := newSpecialist(t, "docs", "writes docs", nil, 0, mock.TextTurn("ok"))

	supervisorModel := mock.New("supervisor", mock.Failing("down"))
	supervisor, err := agent.New(agent.Config{ID: "supervisor", Model: supervisorModel})
	require.NoError(t, err)

	decisions, err := route(context.Background(), "unroutable task", []Specialist{code, docs}, nil, supervisor)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, "code", decisions[0].SpecialistID)
	assert.Equal(t, "fallback", decisions[0].Reason)
	assert.Equal(t, 0.3, decisions[0].Confidence)
}

func TestRoute_FallsBackWhenNoSupervisorConfigured(t *testing.T) {
	code := newSpecialist(t, "code", "writes code", nil, 0, mock.TextTurn("ok"))

	decisions, err := route(context.Background(), "unroutable task", []Specialist{code}, nil, nil)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, "fallback", decisions[0].Reason)
}
