//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package trace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_StatsMatchEventCounts(t *testing.T) {
	r := NewRecorder("agent-1")
	r.Record(Event{Kind: KindAgentStart})
	r.Record(Event{Kind: KindStepStart})
	r.Record(Event{Kind: KindLLMRequest})
	r.Record(Event{Kind: KindLLMResponse})
	r.Record(Event{Kind: KindToolCallRequest, Payload: 2})
	r.Record(Event{Kind: KindToolCallStart})
	r.Record(Event{Kind: KindToolCallEnd})
	r.Record(Event{Kind: KindToolCallStart})
	r.Record(Event{Kind: KindToolCallError})
	r.Record(Event{Kind: KindStepEnd})
	r.Finish(nil)

	snap := r.Snapshot()
	assert.Equal(t, 1, snap.Stats.TotalSteps)
	assert.Equal(t, 1, snap.Stats.TotalLLMCalls)
	assert.Equal(t, 2, snap.Stats.TotalToolCalls)
	assert.Equal(t, 1, snap.Stats.SuccessfulToolCalls)
	assert.Equal(t, 1, snap.Stats.FailedToolCalls)
	assert.Equal(t, snap.Stats.SuccessfulToolCalls+snap.Stats.FailedToolCalls, snap.Stats.TotalToolCalls)
	require.NotNil(t, snap.EndedAt)
	require.NotNil(t, snap.DurationMS)
}

func TestRecorder_SnapshotIsIndependentOfLaterMutation(t *testing.T) {
	r := NewRecorder("agent-1")
	r.Record(Event{Kind: KindAgentStart})
	snap := r.Snapshot()

	r.Record(Event{Kind: KindStepStart})
	r.Record(Event{Kind: KindStepEnd})

	assert.Len(t, snap.Events, 1, "snapshot taken before later mutation must not see it")
}

func TestRecorder_TimestampsNonDecreasing(t *testing.T) {
	r := NewRecorder("agent-1")
	for i := 0; i < 5; i++ {
		r.Record(Event{Kind: KindStepStart})
		time.Sleep(time.Millisecond)
	}
	snap := r.Snapshot()
	for i := 1; i < len(snap.Events); i++ {
		assert.False(t, snap.Events[i].Timestamp.Before(snap.Events[i-1].Timestamp))
	}
}

func TestRecorder_ExecutionIDIsStable(t *testing.T) {
	r := NewRecorder("agent-1")
	id1 := r.ExecutionID()
	r.Record(Event{Kind: KindAgentStart})
	id2 := r.ExecutionID()
	assert.Equal(t, id1, id2)
	assert.NotEmpty(t, id1)
}
