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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentrt/model"
	"agentrt/model/mock"
)

func textResponse(content string) *model.Response {
	return &model.Response{Content: content, FinishReason: model.FinishReasonStop}
}

// TestExecute_S6_SwarmKeywordRouting checks that a task matching one
// specialist's keywords routes to it and its response becomes the swarm's
// final answer unchanged.
func TestExecute_S6_SwarmKeywordRouting(t *testing.T) {
	code := newSpecialist(t, "code", "writes code", []string{"code", "function"}, 10, mock.TextTurn("func add(a, b) { return a + b }"))
	docs := newSpecialist(t, "docs", "writes docs", []string{"docs"}, 5, mock.TextTurn("a readme"))

	s, err := New(nil, []Specialist{code, docs})
	require.NoError(t, err)

	result, err := s.Execute(context.Background(), "Write a function")
	require.NoError(t, err)

	require.Len(t, result.Decisions, 1)
	assert.Equal(t, "code", result.Decisions[0].SpecialistID)
	assert.Equal(t, 0.8, result.Decisions[0].Confidence)

	require.Len(t, result.SpecialistResults, 1)
	assert.Equal(t, "func add(a, b) { return a + b }", result.Response)
	assert.True(t, result.Success)
}

// TestExecute_S7_SwarmParallelTimeout checks that a slow specialist times
// out under parallel dispatch without blocking the fast one's result.
func TestExecute_S7_SwarmParallelTimeout(t *testing.T) {
	a := newSpecialist(t, "a", "fast specialist", nil, 0, mock.Turn{
		Response: textResponse("fast response"),
		Delay:    10 * time.Millisecond,
	})
	b := newSpecialist(t, "b", "slow specialist", nil, 0, mock.Turn{
		Response: textResponse("slow response"),
		Delay:    500 * time.Millisecond,
	})

	router := Router(func(_ context.Context, _ string, specialists []Specialist) ([]RoutingDecision, error) {
		decisions := make([]RoutingDecision, 0, len(specialists))
		for _, s := range specialists {
			decisions = append(decisions, RoutingDecision{SpecialistID: s.ID, Reason: "both", Confidence: 1})
		}
		return decisions, nil
	})

	s, err := New(nil, []Specialist{a, b},
		WithMode(Parallel),
		WithMaxConcurrent(2),
		WithSpecialistTimeout(50*time.Millisecond),
		WithCustomRouter(router),
	)
	require.NoError(t, err)

	start := time.Now()
	result, err := s.Execute(context.Background(), "do both")
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.Less(t, elapsed, 150*time.Millisecond)
	assert.False(t, result.Success)

	outcomes := map[string]SpecialistOutcome{}
	for _, o := range result.SpecialistResults {
		outcomes[o.SpecialistID] = o
	}
	require.Contains(t, outcomes, "a")
	require.Contains(t, outcomes, "b")
	assert.True(t, outcomes["a"].Success)
	assert.False(t, outcomes["b"].Success)
	require.Error(t, outcomes["b"].Err)
	assert.Contains(t, outcomes["b"].Err.Error(), "specialist execution timeout after 50ms")
}

func TestExecute_SingleSpecialist_NoSupervisorCall(t *testing.T) {
	code := newSpecialist(t, "code", "writes code", []string{"code"}, 10, mock.TextTurn("the code"))

	s, err := New(nil, []Specialist{code})
	require.NoError(t, err)

	result, err := s.Execute(context.Background(), "write some code")
	require.NoError(t, err)
	assert.Equal(t, "the code", result.Response)
}

func TestExecute_MultipleSpecialists_SynthesizesViaSupervisor(t *testing.T) {
	code := newSpecialist(t, "code", "writes code", []string{"code"}, 10, mock.TextTurn("the code"))
	docs := newSpecialist(t, "docs", "writes docs", []string{"docs"}, 5, mock.TextTurn("the docs"))

	router := Router(func(_ context.Context, _ string, specialists []Specialist) ([]RoutingDecision, error) {
		decisions := make([]RoutingDecision, 0, len(specialists))
		for _, s := range specialists {
			decisions = append(decisions, RoutingDecision{SpecialistID: s.ID, Reason: "both", Confidence: 1})
		}
		return decisions, nil
	})

	supervisorModel := mock.New("supervisor", mock.TextTurn("combined answer"))
	supervisor, err := newAgent(t, "supervisor", supervisorModel)
	require.NoError(t, err)

	s, err := New(supervisor, []Specialist{code, docs}, WithCustomRouter(router))
	require.NoError(t, err)

	result, err := s.Execute(context.Background(), "write code and docs")
	require.NoError(t, err)
	assert.Equal(t, "combined answer", result.Response)
	assert.Equal(t, 1, supervisorModel.CallCount())
}

func TestExecute_MultipleSpecialists_FallsBackToConcatenationWhenSupervisorFails(t *testing.T) {
	code := newSpecialist(t, "code", "writes code", []string{"code"}, 10, mock.TextTurn("the code"))
	docs := newSpecialist(t, "docs", "writes docs", []string{"docs"}, 5, mock.TextTurn("the docs"))

	router := Router(func(_ context.Context, _ string, specialists []Specialist) ([]RoutingDecision, error) {
		decisions := make([]RoutingDecision, 0, len(specialists))
		for _, s := range specialists {
			decisions = append(decisions, RoutingDecision{SpecialistID: s.ID, Reason: "both", Confidence: 1})
		}
		return decisions, nil
	})

	supervisorModel := mock.New("supervisor", mock.Failing("down"))
	supervisor, err := newAgent(t, "supervisor", supervisorModel)
	require.NoError(t, err)

	s, err := New(supervisor, []Specialist{code, docs}, WithCustomRouter(router))
	require.NoError(t, err)

	result, err := s.Execute(context.Background(), "write code and docs")
	require.NoError(t, err)
	assert.Contains(t, result.Response, "the code")
	assert.Contains(t, result.Response, "the docs")
}

func TestExecute_ObserverReceivesLifecycleEvents(t *testing.T) {
	code := newSpecialist(t, "code", "writes code", []string{"code"}, 10, mock.TextTurn("done"))
	s, err := New(nil, []Specialist{code})
	require.NoError(t, err)

	ch := make(chan Event, 16)
	result, err := s.Execute(context.Background(), "write code", WithObserverChannel(ch))
	require.NoError(t, err)
	assert.True(t, result.Success)
	close(ch)

	var kinds []Kind
	for e := range ch {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, KindSwarmStart)
	assert.Contains(t, kinds, KindSwarmRouting)
	assert.Contains(t, kinds, KindSpecialistStart)
	assert.Contains(t, kinds, KindSpecialistComplete)
	assert.Contains(t, kinds, KindSwarmComplete)
}

func TestExecute_WorkerPoolDispatchesAllSpecialists(t *testing.T) {
	a := newSpecialist(t, "a", "fast specialist", nil, 0, mock.Turn{Response: textResponse("a done")})
	b := newSpecialist(t, "b", "other specialist", nil, 0, mock.Turn{Response: textResponse("b done")})

	router := Router(func(_ context.Context, _ string, specialists []Specialist) ([]RoutingDecision, error) {
		decisions := make([]RoutingDecision, 0, len(specialists))
		for _, s := range specialists {
			decisions = append(decisions, RoutingDecision{SpecialistID: s.ID, Reason: "both", Confidence: 1})
		}
		return decisions, nil
	})

	s, err := New(nil, []Specialist{a, b}, WithMode(Parallel), WithCustomRouter(router), WithWorkerPool(2))
	require.NoError(t, err)
	defer s.Close()

	result, err := s.Execute(context.Background(), "do both")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, result.SpecialistResults, 2)
}

func TestExecute_MergedTraceSortedByTimestamp(t *testing.T) {
	code := newSpecialist(t, "code", "writes code", []string{"code"}, 10, mock.TextTurn("the code"))
	docs := newSpecialist(t, "docs", "writes docs", []string{"docs"}, 5, mock.TextTurn("the docs"))

	router := Router(func(_ context.Context, _ string, specialists []Specialist) ([]RoutingDecision, error) {
		decisions := make([]RoutingDecision, 0, len(specialists))
		for _, s := range specialists {
			decisions = append(decisions, RoutingDecision{SpecialistID: s.ID, Reason: "both", Confidence: 1})
		}
		return decisions, nil
	})

	s, err := New(nil, []Specialist{code, docs}, WithCustomRouter(router))
	require.NoError(t, err)

	result, err := s.Execute(context.Background(), "write code and docs")
	require.NoError(t, err)
	require.NotEmpty(t, result.MergedTrace.Events)
	for i := 1; i < len(result.MergedTrace.Events); i++ {
		assert.False(t, result.MergedTrace.Events[i].Timestamp.Before(result.MergedTrace.Events[i-1].Timestamp))
	}
}
