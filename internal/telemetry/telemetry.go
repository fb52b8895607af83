//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry provides OpenTelemetry span helpers for the step loop,
// tool invocations, and swarm coordinator. The Start* helpers start spans on
// the global otel tracer and set their attributes; the End* helpers record
// outcomes and end them. Configure, when called, installs an SDK tracer
// provider with an OTLP gRPC exporter as the global provider; nothing else
// in this package touches the provider.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"agentrt/model"
	"agentrt/tool"
)

// Service identity and span-naming constants.
const (
	ServiceName      = "agentrt"
	ServiceNamespace = "agentrt"
	InstrumentName   = "agentrt.runtime"

	OperationChat            = "chat"
	OperationExecuteTool     = "execute_tool"
	OperationInvokeSpecialist = "invoke_specialist"
)

// Attribute key constants not already covered by semconv.
const (
	KeyAgentID        = "agentrt.agent_id"
	KeyStep            = "agentrt.step"
	KeySpecialistID    = "agentrt.specialist_id"
	KeyToolCallArgs    = "agentrt.tool_call_args"
	KeyToolCallResult  = "agentrt.tool_call_result"
	KeyRoutingReason   = "agentrt.routing_reason"
	KeyRoutingScore    = "agentrt.routing_confidence"
)

// grpcDial is a package-level variable so tests can inject a fake dialer.
var grpcDial = grpc.NewClient

// Tracer returns the runtime's tracer, registered under InstrumentName.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentName)
}

// StartLLMSpan starts a span around one model.Model.GenerateContent call.
func StartLLMSpan(ctx context.Context, agentID string, info model.Info, step int) (context.Context, trace.Span) {
	spanName := OperationChat
	if info.Name != "" {
		spanName = fmt.Sprintf("%s %s", OperationChat, info.Name)
	}
	ctx, span := Tracer().Start(ctx, spanName)
	span.SetAttributes(
		semconv.GenAISystemKey.String(info.Provider),
		semconv.GenAIRequestModelKey.String(info.Name),
		attribute.String(KeyAgentID, agentID),
		attribute.Int(KeyStep, step),
	)
	return ctx, span
}

// EndLLMSpan records the outcome of an LLM call on span and ends it.
func EndLLMSpan(span trace.Span, req *model.Request, rsp *model.Response, err error) {
	defer span.End()
	if req != nil {
		span.SetAttributes(attribute.Int("agentrt.request_message_count", len(req.Messages)))
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("agentrt.error", err.Error()))
		return
	}
	if rsp == nil {
		return
	}
	span.SetAttributes(
		attribute.String("agentrt.finish_reason", string(rsp.FinishReason)),
		attribute.Int("agentrt.tool_call_count", len(rsp.ToolCalls)),
	)
	if rsp.Usage != nil {
		span.SetAttributes(
			attribute.Int("agentrt.usage_prompt_tokens", rsp.Usage.PromptTokens),
			attribute.Int("agentrt.usage_completion_tokens", rsp.Usage.CompletionTokens),
		)
	}
}

// StartToolSpan starts a span around one tool invocation.
func StartToolSpan(ctx context.Context, decl *tool.Declaration) (context.Context, trace.Span) {
	ctx, span := Tracer().Start(ctx, fmt.Sprintf("%s %s", OperationExecuteTool, decl.Name))
	span.SetAttributes(
		semconv.GenAIOperationNameExecuteTool,
		semconv.GenAIToolName(decl.Name),
		semconv.GenAIToolDescription(decl.Description),
	)
	return ctx, span
}

// EndToolSpan records a tool invocation's arguments and outcome on span.
func EndToolSpan(span trace.Span, args []byte, result tool.Result) {
	defer span.End()
	span.SetAttributes(attribute.String(KeyToolCallArgs, string(args)))
	if bts, err := json.Marshal(result.Payload); err == nil {
		span.SetAttributes(attribute.String(KeyToolCallResult, string(bts)))
	}
	if !result.Success() {
		span.SetStatus(codes.Error, result.Err.Message)
		span.SetAttributes(attribute.String("agentrt.error_code", string(result.Err.Code)))
	}
}

// StartSpecialistSpan starts a span around one swarm specialist invocation.
func StartSpecialistSpan(ctx context.Context, specialistID, reason string, confidence float64) (context.Context, trace.Span) {
	ctx, span := Tracer().Start(ctx, fmt.Sprintf("%s %s", OperationInvokeSpecialist, specialistID))
	span.SetAttributes(
		attribute.String(KeySpecialistID, specialistID),
		attribute.String(KeyRoutingReason, reason),
		attribute.Float64(KeyRoutingScore, confidence),
	)
	return ctx, span
}

// EndSpecialistSpan records a specialist outcome on span and ends it.
func EndSpecialistSpan(span trace.Span, success bool, err error) {
	defer span.End()
	if !success && err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
}

// NewGRPCConn dials the OpenTelemetry Collector over an insecure gRPC
// connection. Callers needing TLS should construct their own
// grpc.ClientConn and point an OTLP exporter at it directly instead.
func NewGRPCConn(endpoint string) (*grpc.ClientConn, error) {
	conn, err := grpcDial(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to collector: %w", err)
	}
	return conn, nil
}

// Configure dials collectorEndpoint, builds an OTLP gRPC span exporter over
// that connection, and installs a batching sdktrace.TracerProvider as the
// global otel tracer provider. It is for CLI entry points only — library
// code in this module never touches the global provider or constructs an
// SDK of its own, since embedding applications may already have one.
// The returned shutdown func flushes and closes the exporter; callers
// should defer it.
func Configure(ctx context.Context, collectorEndpoint string) (shutdown func(context.Context) error, err error) {
	conn, err := NewGRPCConn(collectorEndpoint)
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(ServiceName),
		semconv.ServiceNamespaceKey.String(ServiceNamespace),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return func(shutdownCtx context.Context) error {
		return tp.Shutdown(shutdownCtx)
	}, nil
}
