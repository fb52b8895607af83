//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package agent implements the step loop executor: the bounded alternation
// between LLM turns and tool execution steps, owning conversation state,
// step counter, completion flag, and terminal error.
package agent

import (
	"agentrt/model"
	"agentrt/tool"
)

const defaultMaxSteps = 10

// Config is an agent's immutable configuration. The only mutable part of an
// agent is its tool registry, which callers may continue to
// Register/Unregister against between executions.
type Config struct {
	ID          string
	Name        string
	Instruction string
	Model       model.Model
	Generation  model.GenerationConfig
	Tools       *tool.Registry
	MaxSteps    int
}

// Agent is a configured pair of (system prompt, tool set, LLM binding) plus
// a step-loop policy, ready to Execute against user input.
type Agent struct {
	cfg Config
}

// New constructs an Agent from cfg, filling MaxSteps with the default (10)
// when unset and ensuring a non-nil tool registry.
func New(cfg Config) (*Agent, error) {
	if cfg.Model == nil {
		return nil, &Error{Code: CodeUnsupportedProvider, Message: "agent requires a non-nil model"}
	}
	if cfg.Tools == nil {
		cfg.Tools = tool.NewRegistry()
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = defaultMaxSteps
	}
	return &Agent{cfg: cfg}, nil
}

// Config returns a copy of the agent's configuration.
func (a *Agent) Config() Config {
	return a.cfg
}
