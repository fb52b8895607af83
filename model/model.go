//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package model

import "context"

// Info describes a Model's static identity, surfaced to callers and to
// telemetry attributes.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Model is the capability contract every LLM backend adapter must satisfy.
// The core depends only on this interface; it never branches on provider
// identity except for diagnostics.
type Model interface {
	// Info returns the model's static identity.
	Info() Info

	// GenerateContent produces an assistant turn for the given request. The
	// returned channel delivers one or more ResponseChunk values in arrival
	// order and is always closed by the adapter once the final (Done) chunk
	// has been sent. Callers must drain the channel to completion.
	GenerateContent(ctx context.Context, req *Request) (<-chan *ResponseChunk, error)
}

// Error is the LLM_ERROR taxonomy value: any failure to obtain a turn from a
// Model is surfaced through this type, carrying the provider tag and the
// failing context.
type Error struct {
	Provider string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return "model " + e.Provider + ": " + e.Message + ": " + e.Cause.Error()
	}
	return "model " + e.Provider + ": " + e.Message
}

// Unwrap exposes the wrapped cause for errors.As/errors.Is.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError constructs an Error.
func NewError(provider, message string, cause error) *Error {
	return &Error{Provider: provider, Message: message, Cause: cause}
}

// Collect drains a GenerateContent channel into a single assembled Response,
// the shape the non-streaming step loop consumes. If the channel yields a
// chunk with a non-nil Err, Collect returns it wrapped as an *Error.
func Collect(ctx context.Context, ch <-chan *ResponseChunk) (*Response, error) {
	var last *Response
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case chunk, ok := <-ch:
			if !ok {
				if last == nil {
					return nil, NewError("", "channel closed without a final response", nil)
				}
				return last, nil
			}
			if chunk.Err != nil {
				return nil, NewError("", "generation failed", chunk.Err)
			}
			if chunk.Done {
				last = chunk.Response
				return last, nil
			}
		}
	}
}
