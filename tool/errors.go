//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package tool

import "fmt"

// Code discriminates tool-related error kinds.
type Code string

// Error codes.
const (
	CodeToolNotFound       Code = "TOOL_NOT_FOUND"
	CodeValidationError    Code = "VALIDATION_ERROR"
	CodeExecutionError     Code = "EXECUTION_ERROR"
	CodeTimeout            Code = "TIMEOUT"
	CodeDuplicateToolName  Code = "DUPLICATE_TOOL_NAME"
	CodeInvalidDefinition  Code = "INVALID_TOOL_DEFINITION"
)

// Error is a tool-registry error value. Invoke never returns one of these
// directly — lookup/validation/execution failures are folded into a Result
// instead, so a misbehaving tool never throws into the step loop. Error is
// used only for construction-time failures raised by Register and
// NewFunctionTool.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("tool: %s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("tool: %s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.As/errors.Is.
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}
