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
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"agentrt/agent"
	"agentrt/internal/telemetry"
	"agentrt/trace"
)

// SpecialistOutcome is the result of running one routed-to specialist.
type SpecialistOutcome struct {
	SpecialistID   string
	Specialization string
	Response       string
	Trace          trace.ExecutionTrace
	Success        bool
	Err            error
	Duration       time.Duration
}

// MergedEvent is one trace event annotated with the specialist it came from.
type MergedEvent struct {
	trace.Event
	SpecialistID   string
	Specialization string
}

// MergedTrace concatenates every specialist's trace events, sorted by
// timestamp ascending, with summed statistics.
type MergedTrace struct {
	Events []MergedEvent
	Stats  trace.Stats
}

// SwarmStats summarizes a swarm execution across all routed specialists.
type SwarmStats struct {
	Invoked       int
	Successful    int
	Failed        int
	TotalDuration time.Duration
}

// SwarmResult is what Execute returns.
type SwarmResult struct {
	Response          string
	Decisions         []RoutingDecision
	SpecialistResults []SpecialistOutcome
	MergedTrace       MergedTrace
	SupervisorTrace   trace.ExecutionTrace
	Success           bool
	Stats             SwarmStats
}

// ExecuteOption overrides per-call behavior without mutating the swarm's
// immutable Config.
type ExecuteOption func(*executeOverrides)

type executeOverrides struct {
	observer chan<- Event
	maxSteps int
}

// WithObserverChannel registers ch to receive swarm lifecycle events for a
// single Execute call, mirroring how stream.Project registers its projector
// per call rather than globally.
func WithObserverChannel(ch chan<- Event) ExecuteOption {
	return func(o *executeOverrides) { o.observer = ch }
}

// WithSpecialistMaxSteps overrides every specialist's step bound for a
// single Execute call.
func WithSpecialistMaxSteps(n int) ExecuteOption {
	return func(o *executeOverrides) { o.maxSteps = n }
}

// Execute routes task to one or more specialists, runs them, and
// synthesizes a final answer.
func (s *Swarm) Execute(ctx context.Context, task string, opts ...ExecuteOption) (*SwarmResult, error) {
	var overrides executeOverrides
	for _, opt := range opts {
		opt(&overrides)
	}
	obsCh := overrides.observer

	emit(ctx, obsCh, Event{Kind: KindSwarmStart, Response: task})

	decisions, err := route(ctx, task, s.specialists, s.cfg.CustomRouter, s.supervisor)
	if err != nil {
		emit(ctx, obsCh, Event{Kind: KindSwarmError, Err: err.Error()})
		return nil, err
	}
	for _, d := range decisions {
		d := d
		emit(ctx, obsCh, Event{Kind: KindSwarmRouting, SpecialistID: d.SpecialistID, Decision: &d})
	}

	outcomes := s.runSpecialists(ctx, task, decisions, obsCh, overrides.maxSteps)

	response, synthErr := s.synthesize(task, outcomes)
	if synthErr != nil {
		emit(ctx, obsCh, Event{Kind: KindSwarmError, Err: synthErr.Error()})
	}
	emit(ctx, obsCh, Event{Kind: KindSwarmSynthesis, Response: response})

	merged := mergeTraces(decisions, outcomes)
	stats := SwarmStats{Invoked: len(outcomes)}
	success := len(outcomes) > 0
	for _, o := range outcomes {
		stats.TotalDuration += o.Duration
		if o.Success {
			stats.Successful++
		} else {
			stats.Failed++
			success = false
		}
	}

	result := &SwarmResult{
		Response:          response,
		Decisions:         decisions,
		SpecialistResults: outcomes,
		MergedTrace:       merged,
		SupervisorTrace:   supervisorTrace(s.supervisor, decisions),
		Success:           success,
		Stats:             stats,
	}

	emit(ctx, obsCh, Event{Kind: KindSwarmComplete, Response: response})
	return result, nil
}

func (s *Swarm) runSpecialists(ctx context.Context, task string, decisions []RoutingDecision, obsCh chan<- Event, maxSteps int) []SpecialistOutcome {
	if s.cfg.Mode == Parallel {
		return s.runParallel(ctx, task, decisions, obsCh, maxSteps)
	}
	outcomes := make([]SpecialistOutcome, 0, len(decisions))
	for _, d := range decisions {
		outcomes = append(outcomes, s.runSpecialist(ctx, task, d, obsCh, maxSteps))
	}
	return outcomes
}

// runParallel dispatches at most MaxConcurrent specialists at once. The
// result order reflects completion order, not routing order. When the
// swarm was built with WithWorkerPool, dispatch reuses that pool's
// goroutines instead of spawning fresh ones per call.
func (s *Swarm) runParallel(ctx context.Context, task string, decisions []RoutingDecision, obsCh chan<- Event, maxSteps int) []SpecialistOutcome {
	if s.pool != nil {
		return s.runParallelPooled(ctx, task, decisions, obsCh, maxSteps)
	}

	results := make(chan SpecialistOutcome, len(decisions))
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.MaxConcurrent)

	for _, d := range decisions {
		d := d
		g.Go(func() error {
			results <- s.runSpecialist(ctx, task, d, obsCh, maxSteps)
			return nil
		})
	}

	go func() {
		g.Wait()
		close(results)
	}()

	outcomes := make([]SpecialistOutcome, 0, len(decisions))
	for o := range results {
		outcomes = append(outcomes, o)
	}
	return outcomes
}

// runParallelPooled is the ants-backed counterpart of runParallel, bounded
// by the pool's fixed goroutine count rather than a per-call semaphore.
func (s *Swarm) runParallelPooled(ctx context.Context, task string, decisions []RoutingDecision, obsCh chan<- Event, maxSteps int) []SpecialistOutcome {
	results := make(chan SpecialistOutcome, len(decisions))
	var wg sync.WaitGroup

	for _, d := range decisions {
		d := d
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			results <- s.runSpecialist(ctx, task, d, obsCh, maxSteps)
		})
		if err != nil {
			wg.Done()
			results <- SpecialistOutcome{
				SpecialistID: d.SpecialistID,
				Success:      false,
				Err:          fmt.Errorf("worker pool submission failed: %w", err),
			}
		}
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	outcomes := make([]SpecialistOutcome, 0, len(decisions))
	for o := range results {
		outcomes = append(outcomes, o)
	}
	return outcomes
}

// runSpecialist runs a fresh step-loop execution of decision's specialist
// against task, racing a per-specialist timeout when configured.
func (s *Swarm) runSpecialist(ctx context.Context, task string, decision RoutingDecision, obsCh chan<- Event, maxSteps int) SpecialistOutcome {
	spec := s.specialists[s.byID[decision.SpecialistID]]
	emit(ctx, obsCh, Event{Kind: KindSpecialistStart, SpecialistID: spec.ID})

	spanCtx, span := telemetry.StartSpecialistSpan(ctx, spec.ID, decision.Reason, decision.Confidence)

	start := time.Now()
	specCtx, cancel := context.WithCancel(spanCtx)
	defer cancel()

	type execResult struct {
		res *agent.Result
		err error
	}
	resultCh := make(chan execResult, 1)
	go func() {
		var opts []agent.ExecuteOption
		if maxSteps > 0 {
			opts = append(opts, agent.WithMaxSteps(maxSteps))
		}
		res, err := spec.Agent.Execute(specCtx, task, opts...)
		resultCh <- execResult{res, err}
	}()

	var outcome SpecialistOutcome
	if s.cfg.SpecialistTimeout > 0 {
		select {
		case r := <-resultCh:
			outcome = finishOutcome(spec, r.res, r.err, start)
		case <-time.After(s.cfg.SpecialistTimeout):
			cancel()
			ms := s.cfg.SpecialistTimeout.Milliseconds()
			outcome = SpecialistOutcome{
				SpecialistID:   spec.ID,
				Specialization: spec.Specialization,
				Success:        false,
				Err:            fmt.Errorf("specialist execution timeout after %dms", ms),
				Duration:       time.Since(start),
			}
		}
	} else {
		r := <-resultCh
		outcome = finishOutcome(spec, r.res, r.err, start)
	}

	telemetry.EndSpecialistSpan(span, outcome.Success, outcome.Err)

	if outcome.Success {
		emit(ctx, obsCh, Event{Kind: KindSpecialistComplete, SpecialistID: spec.ID, Outcome: &outcome})
	} else {
		emit(ctx, obsCh, Event{Kind: KindSpecialistError, SpecialistID: spec.ID, Outcome: &outcome, Err: outcome.Err.Error()})
	}
	return outcome
}

func finishOutcome(spec Specialist, res *agent.Result, err error, start time.Time) SpecialistOutcome {
	outcome := SpecialistOutcome{
		SpecialistID:   spec.ID,
		Specialization: spec.Specialization,
		Duration:       time.Since(start),
	}
	if res != nil {
		outcome.Trace = res.Trace
	}
	if err != nil {
		outcome.Success = false
		outcome.Err = err
		return outcome
	}
	outcome.Success = true
	if res != nil {
		outcome.Response = res.Response
	}
	return outcome
}

// synthesize combines specialist outcomes into a single final response.
func (s *Swarm) synthesize(task string, outcomes []SpecialistOutcome) (string, error) {
	if len(outcomes) == 1 {
		return outcomes[0].Response, nil
	}
	if s.cfg.CustomSynthesizer != nil {
		return s.cfg.CustomSynthesizer(task, outcomes)
	}
	if s.supervisor == nil {
		return rawConcatenation(outcomes), nil
	}

	prompt := synthesisPrompt(task, outcomes)
	result, err := s.supervisor.Execute(context.Background(), prompt)
	if err != nil {
		return rawConcatenation(outcomes), nil
	}
	return result.Response, nil
}

func synthesisPrompt(task string, outcomes []SpecialistOutcome) string {
	var b strings.Builder
	b.WriteString("Synthesize a single final answer for the task below from each specialist's contribution.\n\n")
	b.WriteString("Task: ")
	b.WriteString(task)
	b.WriteString("\n\n")
	for _, o := range outcomes {
		fmt.Fprintf(&b, "[%s]\n", o.Specialization)
		if o.Success {
			b.WriteString(o.Response)
		} else {
			fmt.Fprintf(&b, "error: %v", o.Err)
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func rawConcatenation(outcomes []SpecialistOutcome) string {
	var b strings.Builder
	for i, o := range outcomes {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if o.Success {
			fmt.Fprintf(&b, "%s: %s", o.Specialization, o.Response)
		} else {
			fmt.Fprintf(&b, "%s: error: %v", o.Specialization, o.Err)
		}
	}
	return b.String()
}

// mergeTraces concatenates every outcome's trace events, annotated with
// specialist identity, sorted by timestamp ascending with ties broken by
// the specialist's position in the routing list.
func mergeTraces(decisions []RoutingDecision, outcomes []SpecialistOutcome) MergedTrace {
	order := make(map[string]int, len(decisions))
	for i, d := range decisions {
		order[d.SpecialistID] = i
	}

	var merged MergedTrace
	for _, o := range outcomes {
		for _, e := range o.Trace.Events {
			merged.Events = append(merged.Events, MergedEvent{
				Event:          e,
				SpecialistID:   o.SpecialistID,
				Specialization: o.Specialization,
			})
		}
		merged.Stats.TotalSteps += o.Trace.Stats.TotalSteps
		merged.Stats.TotalLLMCalls += o.Trace.Stats.TotalLLMCalls
		merged.Stats.TotalToolCalls += o.Trace.Stats.TotalToolCalls
		merged.Stats.SuccessfulToolCalls += o.Trace.Stats.SuccessfulToolCalls
		merged.Stats.FailedToolCalls += o.Trace.Stats.FailedToolCalls
	}

	sort.SliceStable(merged.Events, func(i, j int) bool {
		ti, tj := merged.Events[i].Timestamp, merged.Events[j].Timestamp
		if ti.Equal(tj) {
			return order[merged.Events[i].SpecialistID] < order[merged.Events[j].SpecialistID]
		}
		return ti.Before(tj)
	})
	return merged
}

// supervisorTrace builds a pseudo-trace from routing decisions, one event
// per decision.
func supervisorTrace(supervisor *agent.Agent, decisions []RoutingDecision) trace.ExecutionTrace {
	agentID := "supervisor"
	if supervisor != nil {
		agentID = supervisor.Config().ID
	}
	t := trace.ExecutionTrace{
		ExecutionID: uuid.NewString(),
		AgentID:     agentID,
		StartedAt:   time.Now(),
	}
	for _, d := range decisions {
		t.Events = append(t.Events, trace.Event{
			Kind:      trace.KindLLMResponse,
			Timestamp: time.Now(),
			Payload:   d,
		})
	}
	return t
}
