//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package agent

import "fmt"

// Code discriminates step-loop error kinds.
type Code string

// Error codes.
const (
	CodeLLMError          Code = "LLM_ERROR"
	CodeMaxStepsExceeded  Code = "MAX_STEPS_EXCEEDED"
	CodeCancelled         Code = "CANCELLED"
	CodeUnsupportedProvider Code = "UNSUPPORTED_PROVIDER"
	CodeInvalidConfig     Code = "INVALID_TOOL_DEFINITION"
)

// Error is the step-loop's terminal error value. Only LLM_ERROR,
// MAX_STEPS_EXCEEDED, and cancellation propagate as raised errors out of
// Execute; tool failures are recovered and fed back to the model instead.
type Error struct {
	Code    Code
	Message string
	Step    int
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("agent: %s at step %d: %s: %v", e.Code, e.Step, e.Message, e.Cause)
	}
	return fmt.Sprintf("agent: %s at step %d: %s", e.Code, e.Step, e.Message)
}

// Unwrap exposes the wrapped cause for errors.As/errors.Is.
func (e *Error) Unwrap() error {
	return e.Cause
}
