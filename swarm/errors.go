//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package swarm

import "fmt"

// Code discriminates swarm-level error kinds.
type Code string

// Error codes.
const (
	CodeInvalidSwarmConfig    Code = "INVALID_SWARM_CONFIG"
	CodeDuplicateSpecialistID Code = "DUPLICATE_SPECIALIST_ID"
	CodeRoutingFailed         Code = "ROUTING_FAILED"
)

// Error is the swarm coordinator's error value.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("swarm: %s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("swarm: %s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.As/errors.Is.
func (e *Error) Unwrap() error {
	return e.Cause
}
