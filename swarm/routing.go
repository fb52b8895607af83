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
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"agentrt/agent"
	"agentrt/internal/jsonrepair"
	"agentrt/log"
)

// RoutingDecision is one routing outcome: which specialist handles a task,
// why, and how confident the decision is.
type RoutingDecision struct {
	SpecialistID string
	Reason       string
	Confidence   float64
}

// Router picks specialists for task out of the swarm's registered
// specialists, returning an ordered list of decisions. A non-nil error
// falls through to the built-in keyword and supervisor pipeline; a custom
// router, when configured, takes precedence over both.
type Router func(ctx context.Context, task string, specialists []Specialist) ([]RoutingDecision, error)

type routingResponse struct {
	SpecialistID string  `json:"specialistId"`
	Reason       string  `json:"reason"`
	Confidence   float64 `json:"confidence"`
}

// route runs the routing pipeline: a custom router first, then keyword
// matching (all matches, priority descending), then a supervisor LLM call,
// then a deterministic fallback to the first registered specialist.
// ROUTING_FAILED is only possible when there are no specialists to fall
// back on, which New already prevents at construction time — it remains
// here as the defensive final case of an always-a-candidate pipeline.
func route(ctx context.Context, task string, specialists []Specialist, custom Router, supervisor *agent.Agent) ([]RoutingDecision, error) {
	if len(specialists) == 0 {
		return nil, &Error{Code: CodeRoutingFailed, Message: "no specialists registered"}
	}

	if custom != nil {
		decisions, err := custom(ctx, task, specialists)
		if err == nil && len(decisions) > 0 {
			return decisions, nil
		}
		if err != nil {
			log.Warnf("swarm: custom router failed, falling back: %v", err)
		}
	}

	if decisions := routeByKeyword(task, specialists); len(decisions) > 0 {
		return decisions, nil
	}

	if supervisor != nil {
		if decisions := routeBySupervisor(ctx, task, specialists, supervisor); len(decisions) > 0 {
			return decisions, nil
		}
	}

	return []RoutingDecision{{
		SpecialistID: specialists[0].ID,
		Reason:       "fallback",
		Confidence:   0.3,
	}}, nil
}

// routeByKeyword returns one decision per specialist whose keyword list
// contains any substring of task (case-insensitive), sorted by priority
// descending; ties keep registration order.
func routeByKeyword(task string, specialists []Specialist) []RoutingDecision {
	lowered := strings.ToLower(task)
	type match struct {
		idx int
		s   *Specialist
	}
	var matches []match
	for i := range specialists {
		s := &specialists[i]
		for _, kw := range s.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(lowered, strings.ToLower(kw)) {
				matches = append(matches, match{idx: i, s: s})
				break
			}
		}
	}
	if len(matches) == 0 {
		return nil
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].s.Priority > matches[j].s.Priority
	})

	decisions := make([]RoutingDecision, 0, len(matches))
	for _, m := range matches {
		decisions = append(decisions, RoutingDecision{
			SpecialistID: m.s.ID,
			Reason:       "matched keywords: " + strings.Join(m.s.Keywords, ", "),
			Confidence:   0.8,
		})
	}
	return decisions
}

// routeBySupervisor asks the supervisor agent to pick specialists and
// parses the first JSON object or array in its free-text response.
// Decisions naming an unregistered specialist are discarded; an empty
// result after filtering is treated as no decision.
func routeBySupervisor(ctx context.Context, task string, specialists []Specialist, supervisor *agent.Agent) []RoutingDecision {
	prompt := supervisorRoutingPrompt(task, specialists)
	result, err := supervisor.Execute(ctx, prompt)
	if err != nil {
		log.Warnf("swarm: supervisor routing call failed: %v", err)
		return nil
	}

	raw, err := jsonrepair.ExtractJSON(result.Response)
	if err != nil {
		log.Warnf("swarm: supervisor routing response had no JSON decision: %v", err)
		return nil
	}

	registered := make(map[string]bool, len(specialists))
	for _, s := range specialists {
		registered[s.ID] = true
	}

	var parsed []routingResponse
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &parsed); err != nil {
			log.Warnf("swarm: supervisor routing JSON array did not match the expected shape: %v", err)
			return nil
		}
	} else {
		var single routingResponse
		if err := json.Unmarshal(raw, &single); err != nil {
			log.Warnf("swarm: supervisor routing JSON did not match the expected shape: %v", err)
			return nil
		}
		parsed = []routingResponse{single}
	}

	decisions := make([]RoutingDecision, 0, len(parsed))
	for _, p := range parsed {
		if !registered[p.SpecialistID] {
			log.Warnf("swarm: supervisor routed to unregistered specialist %q", p.SpecialistID)
			continue
		}
		decisions = append(decisions, RoutingDecision{
			SpecialistID: p.SpecialistID,
			Reason:       p.Reason,
			Confidence:   p.Confidence,
		})
	}
	return decisions
}

func supervisorRoutingPrompt(task string, specialists []Specialist) string {
	var b strings.Builder
	b.WriteString("Route the following task to one or more specialists. ")
	b.WriteString("Respond with a JSON object or array of objects: ")
	b.WriteString("{\"specialistId\": \"...\", \"reason\": \"...\", \"confidence\": 0.0}.\n\n")
	b.WriteString("Specialists:\n")
	for _, s := range specialists {
		fmt.Fprintf(&b, "- %s: %s (keywords: %s)\n", s.ID, s.Specialization, strings.Join(s.Keywords, ", "))
	}
	b.WriteString("\nTask: ")
	b.WriteString(task)
	return b.String()
}
