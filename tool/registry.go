//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"agentrt/log"
)

const (
	defaultMaxAttempts = 1
	defaultBackoff     = 0
	defaultTimeout     = 30 * time.Second
)

// policy is the per-tool retry/timeout configuration recorded at Register time.
type policy struct {
	maxAttempts int
	backoff     time.Duration
	timeout     time.Duration
}

// RegisterOption configures a tool's invocation policy at registration time.
type RegisterOption func(*policy)

// WithMaxAttempts sets the maximum number of execution attempts (>= 1).
func WithMaxAttempts(n int) RegisterOption {
	return func(p *policy) {
		if n >= 1 {
			p.maxAttempts = n
		}
	}
}

// WithBackoff sets the base backoff duration between retries. The actual
// wait before attempt N (0-indexed) is backoff * N.
func WithBackoff(d time.Duration) RegisterOption {
	return func(p *policy) { p.backoff = d }
}

// WithTimeout sets the per-attempt execution timeout.
func WithTimeout(d time.Duration) RegisterOption {
	return func(p *policy) { p.timeout = d }
}

type entry struct {
	tool   Tool
	policy policy
}

// Registry holds callable tools keyed by name. The zero value is not usable;
// construct with NewRegistry. A Registry is mutated only at configuration
// time; concurrent reads (Advertise, Invoke) during steady-state operation
// are safe.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds tool under its declared name. It rejects a nil tool, a
// declaration missing name/description/schema, and duplicate names.
func (r *Registry) Register(t Tool, opts ...RegisterOption) error {
	if !valid(t) {
		return newError(CodeInvalidDefinition, "tool missing name, description, schema, or execute capability")
	}
	name := t.Declaration().Name

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		return newError(CodeDuplicateToolName, fmt.Sprintf("tool %q already registered", name))
	}

	p := policy{maxAttempts: defaultMaxAttempts, backoff: defaultBackoff, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&p)
	}
	r.entries[name] = entry{tool: t, policy: p}
	return nil
}

// Unregister removes the tool registered under name, reporting whether one
// was removed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; !exists {
		return false
	}
	delete(r.entries, name)
	return true
}

// Advertise returns the catalogue of currently registered tools, in a
// wire-friendly form suitable for inclusion in an LLM request.
func (r *Registry) Advertise() []Declaration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Declaration, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e.tool.Declaration())
	}
	return out
}

// Request is a single tool-call request to invoke.
type Request struct {
	ID     string
	Name   string
	Params json.RawMessage
}

// ResultError is a structured tool failure: message, code, and a
// stack-trace-like detail string.
type ResultError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// ResultMetadata carries per-invocation bookkeeping.
type ResultMetadata struct {
	DurationMS int64     `json:"durationMs"`
	RetryCount int       `json:"retryCount"`
	Completed  time.Time `json:"completed"`
}

// Result is the value-only outcome of invoking a tool. Exactly one of
// Payload or Err is set.
type Result struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Payload  any             `json:"payload,omitempty"`
	Err      *ResultError    `json:"error,omitempty"`
	Metadata ResultMetadata  `json:"metadata"`
}

// Success reports whether the invocation succeeded.
func (r Result) Success() bool {
	return r.Err == nil
}

// Invoke executes a single tool-call request: lookup, schema validation,
// execute-with-retry, and timeout enforcement. It never returns a non-nil
// error; every outcome — including TOOL_NOT_FOUND,
// VALIDATION_ERROR, and EXECUTION_ERROR — is encoded in the returned Result.
func (r *Registry) Invoke(ctx context.Context, req Request) Result {
	start := time.Now()

	r.mu.RLock()
	e, ok := r.entries[req.Name]
	r.mu.RUnlock()
	if !ok {
		return Result{
			ID:   req.ID,
			Name: req.Name,
			Err: &ResultError{
				Code:    CodeToolNotFound,
				Message: fmt.Sprintf("tool %q is not registered", req.Name),
			},
			Metadata: ResultMetadata{DurationMS: sinceMS(start), Completed: time.Now()},
		}
	}

	if e.tool.Declaration().Schema != nil {
		if _, err := e.tool.Declaration().Schema.Parse(req.Params); err != nil {
			return Result{
				ID:   req.ID,
				Name: req.Name,
				Err: &ResultError{
					Code:    CodeValidationError,
					Message: "parameters failed schema validation",
					Detail:  err.Error(),
				},
				Metadata: ResultMetadata{DurationMS: sinceMS(start), Completed: time.Now()},
			}
		}
	}

	payload, retries, err := r.executeWithRetry(ctx, e, req)
	if err != nil {
		return Result{
			ID:   req.ID,
			Name: req.Name,
			Err: &ResultError{
				Code:    CodeExecutionError,
				Message: err.Error(),
			},
			Metadata: ResultMetadata{DurationMS: sinceMS(start), RetryCount: retries, Completed: time.Now()},
		}
	}

	return Result{
		ID:       req.ID,
		Name:     req.Name,
		Payload:  payload,
		Metadata: ResultMetadata{DurationMS: sinceMS(start), RetryCount: retries, Completed: time.Now()},
	}
}

// InvokeBatch fans out independent tool-call requests concurrently and
// joins before returning. There is no ordering guarantee between results;
// each carries its originating request id.
func (r *Registry) InvokeBatch(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			results[i] = r.Invoke(gctx, req)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// timeoutError is the last-attempt error when every attempt exceeds the
// tool's timeout. It surfaces as EXECUTION_ERROR rather than its own code —
// CodeTimeout is reserved for the swarm coordinator's specialist-level
// timeout, a separate mechanism that races a whole specialist execution
// rather than a single tool call — but its "Timeout after <n>ms" message is
// preserved unchanged so callers can still tell the two failures apart.
type timeoutError struct{ d time.Duration }

func (e timeoutError) Error() string { return fmt.Sprintf("Timeout after %dms", e.d.Milliseconds()) }

// linearBackOff waits base*n before the n-th retry (n is 1-indexed), matching
// the policy's documented WithBackoff semantics.
type linearBackOff struct {
	base  time.Duration
	tries uint
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.tries++
	return b.base * time.Duration(b.tries)
}

func (b *linearBackOff) Reset() { b.tries = 0 }

// executeWithRetry runs e.tool.Call up to e.policy.maxAttempts times,
// waiting backoff*attempt before each retry and racing each attempt against
// e.policy.timeout. It recovers a panicking Call into an error so the
// registry never propagates tool exceptions upward.
func (r *Registry) executeWithRetry(ctx context.Context, e entry, req Request) (payload any, retries int, err error) {
	calls := 0
	var lastErr error
	operation := func() (any, error) {
		if calls > 0 {
			log.Debugf("tool %q attempt %d failed: %v", req.Name, calls, lastErr)
		}
		calls++
		p, callErr := r.attempt(ctx, e, req)
		lastErr = callErr
		return p, callErr
	}

	payload, err = backoff.Retry(ctx, operation,
		backoff.WithBackOff(&linearBackOff{base: e.policy.backoff}),
		backoff.WithMaxTries(uint(e.policy.maxAttempts)),
	)
	return payload, calls - 1, err
}

// attempt runs a single Call, racing it against the per-tool timeout and
// recovering panics into errors.
func (r *Registry) attempt(ctx context.Context, e entry, req Request) (payload any, err error) {
	attemptCtx := ctx
	var cancel context.CancelFunc
	if e.policy.timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, e.policy.timeout)
		defer cancel()
	}

	type outcome struct {
		payload any
		err     error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("tool %q panicked: %v", req.Name, rec)}
			}
		}()
		p, callErr := e.tool.Call(attemptCtx, req.Params)
		done <- outcome{payload: p, err: callErr}
	}()

	select {
	case o := <-done:
		return o.payload, o.err
	case <-attemptCtx.Done():
		if e.policy.timeout > 0 && attemptCtx.Err() == context.DeadlineExceeded {
			return nil, timeoutError{d: e.policy.timeout}
		}
		return nil, attemptCtx.Err()
	}
}

func sinceMS(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
