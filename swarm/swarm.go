//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package swarm implements routing, coordination, and synthesis across a
// set of specialist agents: dispatching a task to one or more of them and
// merging their outcomes into a single response and trace.
package swarm

import (
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"

	"agentrt/agent"
)

// Mode selects how a routed-to set of specialists is executed.
type Mode string

// Execution modes.
const (
	// Sequential executes specialists one at a time, in routing order.
	Sequential Mode = "sequential"
	// Parallel executes specialists concurrently, bounded by MaxConcurrent.
	Parallel Mode = "parallel"
)

const defaultSpecialistTimeout = 30 * time.Second
const defaultMaxConcurrent = 4

// Synthesizer combines multiple specialist outcomes into a single response.
// It receives the original task and every outcome, in routing order under
// Sequential mode and in completion order under Parallel mode.
type Synthesizer func(task string, outcomes []SpecialistOutcome) (string, error)

// Config configures a Swarm's coordination policy.
type Config struct {
	Mode              Mode
	MaxConcurrent     int
	SpecialistTimeout time.Duration
	CustomRouter      Router
	CustomSynthesizer Synthesizer
	WorkerPoolSize    int
}

// Swarm coordinates a supervisor agent and a fixed set of specialist agents.
type Swarm struct {
	supervisor  *agent.Agent
	specialists []Specialist
	byID        map[string]int
	cfg         Config
	pool        *ants.Pool
}

// Option customizes a Swarm at construction time.
type Option func(*Config)

// WithMode sets the execution mode (default Sequential).
func WithMode(m Mode) Option {
	return func(c *Config) { c.Mode = m }
}

// WithMaxConcurrent bounds concurrent specialist execution under Parallel mode.
func WithMaxConcurrent(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxConcurrent = n
		}
	}
}

// WithSpecialistTimeout bounds how long a single specialist may run.
func WithSpecialistTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.SpecialistTimeout = d
		}
	}
}

// WithCustomRouter overrides the default routing pipeline.
func WithCustomRouter(r Router) Option {
	return func(c *Config) { c.CustomRouter = r }
}

// WithCustomSynthesizer overrides the default synthesis step.
func WithCustomSynthesizer(s Synthesizer) Option {
	return func(c *Config) { c.CustomSynthesizer = s }
}

// WithWorkerPool runs parallel specialist dispatch on a reusable goroutine
// pool of the given size instead of spawning one goroutine per specialist
// per call. Prefer this for swarms that execute frequently with many
// specialists, where pool reuse amortizes goroutine setup cost.
func WithWorkerPool(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.WorkerPoolSize = size
		}
	}
}

// New validates and constructs a Swarm. Construction fails with
// INVALID_SWARM_CONFIG when no specialists are given, and
// DUPLICATE_SPECIALIST_ID when two specialists share an ID.
func New(supervisor *agent.Agent, specialists []Specialist, opts ...Option) (*Swarm, error) {
	if len(specialists) == 0 {
		return nil, &Error{Code: CodeInvalidSwarmConfig, Message: "swarm requires at least one specialist"}
	}

	byID := make(map[string]int, len(specialists))
	for i, s := range specialists {
		if s.ID == "" {
			return nil, &Error{Code: CodeInvalidSwarmConfig, Message: "specialist id must not be empty"}
		}
		if s.Agent == nil {
			return nil, &Error{Code: CodeInvalidSwarmConfig, Message: fmt.Sprintf("specialist %q has no agent", s.ID)}
		}
		if _, exists := byID[s.ID]; exists {
			return nil, &Error{Code: CodeDuplicateSpecialistID, Message: s.ID}
		}
		byID[s.ID] = i
	}

	cfg := Config{
		Mode:              Sequential,
		MaxConcurrent:     defaultMaxConcurrent,
		SpecialistTimeout: defaultSpecialistTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	sw := &Swarm{
		supervisor:  supervisor,
		specialists: specialists,
		byID:        byID,
		cfg:         cfg,
	}
	if cfg.WorkerPoolSize > 0 {
		pool, err := ants.NewPool(cfg.WorkerPoolSize)
		if err != nil {
			return nil, &Error{Code: CodeInvalidSwarmConfig, Message: "failed to start worker pool", Cause: err}
		}
		sw.pool = pool
	}
	return sw, nil
}

// Close releases the swarm's worker pool, if one was configured with
// WithWorkerPool. It is a no-op otherwise.
func (s *Swarm) Close() {
	if s.pool != nil {
		s.pool.Release()
	}
}
