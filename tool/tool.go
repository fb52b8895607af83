//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package tool holds callable tools keyed by name, validates invocation
// payloads against declared parameter schemas, and executes tools with
// per-tool timeout and retry-with-backoff.
package tool

import (
	"context"
	"encoding/json"
	"reflect"

	"agentrt/schema"
)

// Declaration is a tool's static identity: its name, description, and
// parameter schema, plus the wire-friendly form used in the LLM catalogue.
type Declaration struct {
	Name        string
	Description string
	Schema      *schema.Schema
}

// AsWireSchema returns the catalogue entry for this declaration.
func (d *Declaration) AsWireSchema() map[string]any {
	if d.Schema == nil {
		return map[string]any{"type": "object"}
	}
	return d.Schema.AsWireSchema()
}

// Tool is a callable capability the step loop may invoke on the LLM's behalf.
type Tool interface {
	// Declaration returns the tool's static identity.
	Declaration() *Declaration

	// Call executes the tool against the raw (schema-validated) parameter
	// payload and returns a JSON-marshalable result, or an error.
	Call(ctx context.Context, params json.RawMessage) (any, error)
}

// Func is the shape a typed Go function must have to be adapted into a Tool
// via NewFunctionTool.
type Func[In, Out any] func(ctx context.Context, in In) (Out, error)

// FunctionTool adapts a typed Go function into a Tool, generating its
// parameter schema from the input type via reflection.
type FunctionTool[In, Out any] struct {
	decl *Declaration
	fn   Func[In, Out]
}

// NewFunctionTool builds a FunctionTool, reflecting the schema from a zero
// value of In.
func NewFunctionTool[In, Out any](name, description string, fn Func[In, Out]) (*FunctionTool[In, Out], error) {
	var zero In
	s, err := schema.FromType(zero)
	if err != nil {
		return nil, newError(CodeInvalidDefinition, "reflecting parameter schema: "+err.Error())
	}
	return &FunctionTool[In, Out]{
		decl: &Declaration{Name: name, Description: description, Schema: s},
		fn:   fn,
	}, nil
}

// Declaration implements Tool.
func (f *FunctionTool[In, Out]) Declaration() *Declaration {
	return f.decl
}

// Call implements Tool: decodes params into In, invokes fn, returns Out.
func (f *FunctionTool[In, Out]) Call(ctx context.Context, params json.RawMessage) (any, error) {
	var in In
	if len(params) > 0 {
		if err := json.Unmarshal(params, &in); err != nil {
			return nil, err
		}
	}
	return f.fn(ctx, in)
}

// valid reports whether t has a usable Declaration and is non-nil.
func valid(t Tool) bool {
	if t == nil {
		return false
	}
	v := reflect.ValueOf(t)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		if v.IsNil() {
			return false
		}
	}
	d := t.Declaration()
	return d != nil && d.Name != "" && d.Description != "" && d.Schema != nil
}
