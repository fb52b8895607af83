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
	"time"

	"agentrt/log"
)

// Kind discriminates swarm lifecycle event kinds.
type Kind string

// Event kinds.
const (
	KindSwarmStart         Kind = "swarm:start"
	KindSwarmRouting       Kind = "swarm:routing"
	KindSpecialistStart    Kind = "specialist:start"
	KindSpecialistComplete Kind = "specialist:complete"
	KindSpecialistError    Kind = "specialist:error"
	KindSwarmSynthesis     Kind = "swarm:synthesis"
	KindSwarmComplete      Kind = "swarm:complete"
	KindSwarmError         Kind = "swarm:error"
)

// Event is one entry in a Swarm's coordination lifecycle, suitable for
// projecting onto a caller-supplied channel the same way stream.Project
// projects a single agent's step loop.
type Event struct {
	Kind         Kind
	Timestamp    time.Time
	SpecialistID string
	Decision     *RoutingDecision
	Outcome      *SpecialistOutcome
	Response     string
	Err          string
}

// observerSendTimeout bounds how long emit blocks on a slow consumer before
// dropping the event, matching stream.Project's backpressure policy: a
// stalled observer must never stall the coordinator.
const observerSendTimeout = time.Second

// emit sends e on ch without blocking the coordinator indefinitely. A nil
// channel is a valid "no observer configured" state.
func emit(ctx context.Context, ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	select {
	case ch <- e:
	case <-ctx.Done():
		log.Debugf("swarm: dropping %s event, context done", e.Kind)
	case <-time.After(observerSendTimeout):
		log.Warnf("swarm: dropping %s event, observer channel blocked for %s", e.Kind, observerSendTimeout)
	}
}
