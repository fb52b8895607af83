//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package schema implements the tool parameter schema validator contract:
// parsing an untyped input object against a declared schema, and rendering
// that schema into the wire-friendly shape an LLM request's tool catalogue
// expects. The core treats the schema as opaque beyond these two
// capabilities.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	jsonschemav6 "github.com/santhosh-tekuri/jsonschema/v6"
)

// Violation is one structured parameter validation failure.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError aggregates one or more Violations.
type ValidationError struct {
	Violations []Violation
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "schema: validation failed"
	}
	return fmt.Sprintf("schema: %s: %s", e.Violations[0].Path, e.Violations[0].Message)
}

// Schema wraps a compiled JSON-Schema document. It is safe for concurrent use.
type Schema struct {
	raw      map[string]any
	compiled *jsonschemav6.Schema
}

// FromMap compiles a raw JSON-Schema document (as produced by hand, or read
// from configuration) into a Schema.
func FromMap(doc map[string]any) (*Schema, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("schema: marshal document: %w", err)
	}

	compiler := jsonschemav6.NewCompiler()
	unmarshalled, err := jsonschemav6.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("schema: decode document: %w", err)
	}
	const resourceURL = "agentrt://tool-schema"
	if err := compiler.AddResource(resourceURL, unmarshalled); err != nil {
		return nil, fmt.Errorf("schema: add resource: %w", err)
	}
	compiled, err := compiler.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("schema: compile: %w", err)
	}

	return &Schema{raw: doc, compiled: compiled}, nil
}

// FromType generates a Schema by reflecting over a Go type, the same
// convention FunctionTool uses to build a tool's parameter schema from its
// typed input struct.
func FromType(v any) (*Schema, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	doc := reflector.ReflectFromType(reflect.TypeOf(v))
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("schema: marshal reflected document: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("schema: decode reflected document: %w", err)
	}
	return FromMap(m)
}

// Parse validates the raw JSON payload against the schema. On success it
// returns the decoded object; on failure it returns a *ValidationError
// describing every violation.
func (s *Schema) Parse(payload json.RawMessage) (any, error) {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, &ValidationError{Violations: []Violation{{Path: "$", Message: err.Error()}}}
	}

	if err := s.compiled.Validate(v); err != nil {
		return nil, &ValidationError{Violations: violationsFrom(err)}
	}
	return v, nil
}

// AsWireSchema returns the schema document in the shape expected in an LLM
// request's tool catalogue.
func (s *Schema) AsWireSchema() map[string]any {
	return s.raw
}

func violationsFrom(err error) []Violation {
	valErr, ok := err.(*jsonschemav6.ValidationError)
	if !ok {
		return []Violation{{Path: "$", Message: err.Error()}}
	}
	var out []Violation
	var walk func(e *jsonschemav6.ValidationError)
	walk = func(e *jsonschemav6.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, Violation{Path: strings.Join(e.InstanceLocation, "/"), Message: e.Error()})
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(valErr)
	if len(out) == 0 {
		out = append(out, Violation{Path: "$", Message: err.Error()})
	}
	return out
}
