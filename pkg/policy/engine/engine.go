package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/irvm/pkg/ir"
	"mercator-hq/irvm/pkg/ir/validator"
	"mercator-hq/irvm/pkg/telemetry/tracing"
	"mercator-hq/irvm/pkg/value"
)

// Engine is the main interface for plan evaluation.
type Engine interface {
	// Eval runs one plan of the loaded policy.
	Eval(ctx context.Context, req EvalRequest) (*EvalResult, error)

	// ReloadPolicy reloads the policy from the source.
	ReloadPolicy(ctx context.Context) error

	// Policy returns the loaded policy (for introspection).
	Policy() *ir.Policy

	// Close shuts down the engine and releases resources.
	Close() error
}

// PolicySource provides the policy to the engine.
type PolicySource interface {
	// LoadPolicy loads the policy document from the source.
	LoadPolicy(ctx context.Context) (*ir.Policy, error)

	// Watch watches for policy changes and sends events on the returned channel.
	// The channel is closed when the context is cancelled.
	Watch(ctx context.Context) (<-chan PolicyEvent, error)
}

// PolicyEvent represents a policy file change event.
type PolicyEvent struct {
	// Type is the event type ("created", "modified", "deleted").
	Type PolicyEventType

	// Path is the file path that changed.
	Path string

	// Error is any error that occurred while processing the event.
	Error error
}

// PolicyEventType represents the type of policy file event.
type PolicyEventType string

const (
	PolicyEventCreated  PolicyEventType = "created"
	PolicyEventModified PolicyEventType = "modified"
	PolicyEventDeleted  PolicyEventType = "deleted"
)

// EvalRequest selects a plan and supplies the host documents.
type EvalRequest struct {
	// Plan is the plan name. Empty selects the first plan.
	Plan string

	// Input and Data are bound to locals 0 and 1. Nil leaves them undefined.
	Input value.Value
	Data  value.Value
}

// EvalResult is the outcome of a successful evaluation.
type EvalResult struct {
	EvaluationID string
	Plan         string
	ResultSet    ResultSet

	// Instructions is the number of statements executed.
	Instructions int64

	Duration time.Duration

	// Trace is set when tracing is enabled.
	Trace *Trace
}

// Observer receives evaluation and reload outcomes, typically to record
// metrics.
type Observer interface {
	ObserveEvaluation(plan, outcome string, d time.Duration, instructions int64)
	ObserveException(kind string)
	ObserveReload(outcome string)
}

// Option configures a VM.
type Option func(*VM)

// WithObserver sets the observer notified after every evaluation and
// reload.
func WithObserver(o Observer) Option {
	return func(vm *VM) { vm.observer = o }
}

// WithTracer sets the OpenTelemetry tracer used for evaluation spans.
func WithTracer(t trace.Tracer) Option {
	return func(vm *VM) { vm.tracer = t }
}

// WithBuiltins replaces the built-in registry.
func WithBuiltins(b *Builtins) Option {
	return func(vm *VM) { vm.builtins = b }
}

// VM is the main implementation of the evaluation engine. The loaded policy
// is immutable and shared by concurrent evaluations; reloads swap it
// atomically.
type VM struct {
	// policy is the loaded policy
	policy *ir.Policy

	// policyMu protects policy for concurrent access
	policyMu sync.RWMutex

	config   *Config
	logger   *slog.Logger
	source   PolicySource
	builtins *Builtins
	observer Observer
	tracer   trace.Tracer

	closed atomic.Bool

	// stopCh signals shutdown
	stopCh chan struct{}

	// wg tracks background goroutines
	wg sync.WaitGroup
}

// NewVM creates an engine, loads the initial policy and starts watching the
// source.
func NewVM(config *Config, source PolicySource, logger *slog.Logger, opts ...Option) (*VM, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if source == nil {
		return nil, fmt.Errorf("policy source cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	vm := &VM{
		config: config,
		logger: logger,
		source: source,
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(vm)
	}
	if vm.builtins == nil {
		vm.builtins = NewBuiltins()
	}
	if vm.tracer == nil {
		vm.tracer = noop.NewTracerProvider().Tracer("irvm")
	}

	if err := vm.ReloadPolicy(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to load initial policy: %w", err)
	}

	vm.startWatching()

	return vm, nil
}

// Eval runs the requested plan against the current policy.
func (vm *VM) Eval(ctx context.Context, req EvalRequest) (*EvalResult, error) {
	if vm.closed.Load() {
		return nil, ErrClosed
	}

	policy := vm.Policy()
	if policy == nil {
		return nil, ErrNoPolicy
	}

	if vm.config.EvalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, vm.config.EvalTimeout)
		defer cancel()
	}

	id := uuid.NewString()
	planName := req.Plan
	if p, ok := policy.Plan(req.Plan); ok {
		planName = p.Name
	}

	ctx, span := vm.tracer.Start(ctx, "irvm.eval", trace.WithAttributes(
		attribute.String(tracing.AttrEvaluationID, id),
		attribute.String(tracing.AttrPlan, planName),
	))
	defer span.End()

	start := time.Now()
	e := newEvaluation(ctx, policy, vm.config, vm.builtins)
	err := e.runPlan(req.Plan, prepare(req.Input), prepare(req.Data))
	duration := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = "error"
		var exc *Exception
		if errors.As(err, &exc) {
			outcome = "exception"
			span.SetAttributes(attribute.String(tracing.AttrExceptionKind, exc.Kind()))
			if vm.observer != nil {
				vm.observer.ObserveException(exc.Kind())
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(
		attribute.Int(tracing.AttrResultCount, len(e.results)),
		attribute.Int64(tracing.AttrInstructions, e.instructions),
	)
	if vm.observer != nil {
		vm.observer.ObserveEvaluation(planName, outcome, duration, e.instructions)
	}

	if err != nil {
		vm.logger.DebugContext(ctx, "evaluation failed",
			"evaluation_id", id,
			"plan", planName,
			"error", err,
		)
		return nil, err
	}

	vm.logger.DebugContext(ctx, "evaluation complete",
		"evaluation_id", id,
		"plan", planName,
		"results", len(e.results),
		"instructions", e.instructions,
		"duration", duration,
	)

	if e.trace != nil {
		e.trace.TotalTime = duration
	}
	results := e.results
	if results == nil {
		results = ResultSet{}
	}
	return &EvalResult{
		EvaluationID: id,
		Plan:         planName,
		ResultSet:    results,
		Instructions: e.instructions,
		Duration:     duration,
		Trace:        e.trace,
	}, nil
}

// ReloadPolicy reloads the policy from the source. On failure the
// previously loaded policy stays in effect.
func (vm *VM) ReloadPolicy(ctx context.Context) error {
	vm.logger.Info("reloading policy")

	policy, err := vm.source.LoadPolicy(ctx)
	if err != nil {
		vm.observeReload("error")
		return &ReloadError{
			Source: "source",
			Cause:  err,
		}
	}

	if vm.config.ValidateOnLoad {
		if err := validator.NewSemanticValidator(vm.builtins.Names()).Validate(policy); err != nil {
			vm.observeReload("invalid")
			return &ValidationError{Cause: err}
		}
	}

	// Atomically replace the policy (write lock)
	vm.policyMu.Lock()
	vm.policy = policy
	vm.policyMu.Unlock()

	vm.observeReload("success")
	vm.logger.Info("policy reloaded successfully",
		"plan_count", len(policy.PlanList()),
		"func_count", len(policy.FuncList()),
	)

	return nil
}

func (vm *VM) observeReload(outcome string) {
	if vm.observer != nil {
		vm.observer.ObserveReload(outcome)
	}
}

// Policy returns the loaded policy. The policy must not be modified.
func (vm *VM) Policy() *ir.Policy {
	vm.policyMu.RLock()
	defer vm.policyMu.RUnlock()
	return vm.policy
}

// RegisterBuiltin adds a host built-in. Built-ins should be registered
// before the first evaluation that calls them.
func (vm *VM) RegisterBuiltin(b *Builtin) error {
	return vm.builtins.Register(b)
}

// Builtins returns the VM's built-in registry.
func (vm *VM) Builtins() *Builtins {
	return vm.builtins
}

// startWatching starts watching for policy changes.
func (vm *VM) startWatching() {
	ctx, cancel := context.WithCancel(context.Background())
	eventCh, err := vm.source.Watch(ctx)
	if err != nil {
		cancel()
		vm.logger.Error("failed to start policy watcher", "error", err)
		return
	}

	vm.wg.Add(1)
	go func() {
		defer vm.wg.Done()
		defer cancel()

		for {
			select {
			case <-vm.stopCh:
				return
			case event, ok := <-eventCh:
				if !ok {
					return
				}
				vm.handlePolicyEvent(event)
			}
		}
	}()
}

// handlePolicyEvent handles a policy file change event.
func (vm *VM) handlePolicyEvent(event PolicyEvent) {
	if event.Error != nil {
		vm.logger.Warn("policy watcher error", "error", event.Error, "path", event.Path)
		return
	}

	vm.logger.Info("policy file changed",
		"type", event.Type,
		"path", event.Path,
	)

	if event.Type == PolicyEventDeleted {
		// Keep serving the last good policy until the file reappears.
		return
	}

	if err := vm.ReloadPolicy(context.Background()); err != nil {
		vm.logger.Error("failed to reload policy after file change",
			"error", err,
			"path", event.Path,
		)
	}
}

// Close shuts down the engine and releases resources.
func (vm *VM) Close() error {
	if !vm.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(vm.stopCh)
	vm.wg.Wait()
	return nil
}

// Run evaluates a plan of policy without an engine. It uses the default
// configuration and the standard built-ins.
func Run(ctx context.Context, policy *ir.Policy, plan string, input, data value.Value) (ResultSet, error) {
	return RunWithConfig(ctx, DefaultConfig(), NewBuiltins(), policy, plan, input, data)
}

// RunWithConfig is like Run with an explicit configuration and registry.
func RunWithConfig(ctx context.Context, config *Config, builtins *Builtins, policy *ir.Policy, plan string, input, data value.Value) (ResultSet, error) {
	if policy == nil {
		return nil, ErrNoPolicy
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if builtins == nil {
		builtins = NewBuiltins()
	}
	if config.EvalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.EvalTimeout)
		defer cancel()
	}

	e := newEvaluation(ctx, policy, config, builtins)
	if err := e.runPlan(plan, prepare(input), prepare(data)); err != nil {
		return nil, err
	}
	if e.results == nil {
		return ResultSet{}, nil
	}
	return e.results, nil
}

// prepare returns a frozen value the evaluation may share without copying.
// Caller-owned composites are copied first so they are never frozen or
// modified.
func prepare(v value.Value) value.Value {
	if v == nil || value.IsFrozen(v) {
		return v
	}
	return value.Freeze(value.DeepCopy(v))
}

var _ Engine = (*VM)(nil)
