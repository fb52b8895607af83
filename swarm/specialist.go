//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package swarm

import "agentrt/agent"

// Specialist is one routable member of a Swarm.
// Keywords drive the default keyword router: a specialist matches when any
// one of its keywords occurs in the task. Priority orders the matching
// specialists, highest first.
type Specialist struct {
	ID             string
	Agent          *agent.Agent
	Specialization string
	Keywords       []string
	Priority       int
}
