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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentrt/agent"
	"agentrt/model/mock"
)

func newSpecialist(t *testing.T, id, specialization string, keywords []string, priority int, turns ...mock.Turn) Specialist {
	t.Helper()
	a, err := newAgent(t, id, mock.New(id, turns...))
	require.NoError(t, err)
	return Specialist{ID: id, Agent: a, Specialization: specialization, Keywords: keywords, Priority: priority}
}

func newAgent(t *testing.T, id string, m *mock.Model) (*agent.Agent, error) {
	t.Helper()
	return agent.New(agent.Config{ID: id, Model: m})
}

func TestNew_RejectsEmptySpecialists(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
	var swarmErr *Error
	require.ErrorAs(t, err, &swarmErr)
	assert.Equal(t, CodeInvalidSwarmConfig, swarmErr.Code)
}

func TestNew_RejectsDuplicateSpecialistIDs(t *testing.T) {
	a := newSpecialist(t, "code", "writes code", []string{"code"}, 10, mock.TextTurn("ok"))
	b := newSpecialist(t, "code", "also writes code", []string{"func"}, 5, mock.TextTurn("ok"))
	_, err := New(nil, []Specialist{a, b})
	require.Error(t, err)
	var swarmErr *Error
	require.ErrorAs(t, err, &swarmErr)
	assert.Equal(t, CodeDuplicateSpecialistID, swarmErr.Code)
}

func TestNew_DefaultsModeAndTimeout(t *testing.T) {
	a := newSpecialist(t, "code", "writes code", []string{"code"}, 10, mock.TextTurn("ok"))
	s, err := New(nil, []Specialist{a})
	require.NoError(t, err)
	assert.Equal(t, Sequential, s.cfg.Mode)
	assert.Equal(t, defaultSpecialistTimeout, s.cfg.SpecialistTimeout)
}
