package tier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrTierUnavailable marks a tier attempt that failed and should fall through.
	ErrTierUnavailable = errors.New("tier unavailable")

	// ErrMalformedResponse is a remote answer that is structurally empty or unusable.
	// It is a tier failure like any other.
	ErrMalformedResponse = fmt.Errorf("%w: malformed remote response", ErrTierUnavailable)

	// ErrExhausted is returned when every tier of an operation failed.
	ErrExhausted = errors.New("all tiers exhausted")
)

// Tier is one strategy for executing an operation.
type Tier[In, Out any] interface {
	Name() string
	Attempt(ctx context.Context, in In) (Out, error)
}

type funcTier[In, Out any] struct {
	name string
	fn   func(ctx context.Context, in In) (Out, error)
}

// New adapts a function into a Tier.
func New[In, Out any](name string, fn func(ctx context.Context, in In) (Out, error)) Tier[In, Out] {
	return &funcTier[In, Out]{name: name, fn: fn}
}

func (t *funcTier[In, Out]) Name() string {
	return t.name
}

func (t *funcTier[In, Out]) Attempt(ctx context.Context, in In) (Out, error) {
	return t.fn(ctx, in)
}

// Failure records one failed attempt.
type Failure struct {
	Tier    string
	Err     error
	Elapsed time.Duration
}

// Outcome describes which tier served a call. Index is -1 when nothing did.
type Outcome struct {
	Operation string
	Tier      string
	Index     int
	Failures  []Failure
}

// Served reports whether any tier produced the result.
func (o Outcome) Served() bool {
	return o.Index >= 0
}

// Observer is notified about every attempt. Implementations must not block.
type Observer interface {
	TierFailed(operation, tier string, err error, elapsed time.Duration)
	TierServed(operation, tier string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) TierFailed(string, string, error, time.Duration) {}
func (nopObserver) TierServed(string, string, time.Duration)        {}

type settings struct {
	timeout  time.Duration
	observer Observer
	tracer   trace.Tracer
}

type Option func(*settings)

// WithTimeout bounds every single tier attempt. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

func WithObserver(o Observer) Option {
	return func(s *settings) {
		if o != nil {
			s.observer = o
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *settings) {
		if t != nil {
			s.tracer = t
		}
	}
}

// Executor runs an operation over a fixed, ordered list of tiers and returns
// the first successful result. Tiers run one after another, never raced, and
// every call starts again from the first tier.
type Executor[In, Out any] struct {
	operation string
	tiers     []Tier[In, Out]
	settings  settings
}

func NewExecutor[In, Out any](operation string, tiers []Tier[In, Out], opts ...Option) *Executor[In, Out] {
	s := settings{
		observer: nopObserver{},
		tracer:   otel.Tracer("outfit-stylist-be/tier"),
	}
	for _, opt := range opts {
		opt(&s)
	}

	return &Executor[In, Out]{
		operation: operation,
		tiers:     append([]Tier[In, Out](nil), tiers...),
		settings:  s,
	}
}

func (e *Executor[In, Out]) Operation() string {
	return e.operation
}

// Tiers returns tier names in attempt order.
func (e *Executor[In, Out]) Tiers() []string {
	names := make([]string, len(e.tiers))
	for i, t := range e.tiers {
		names[i] = t.Name()
	}
	return names
}

// Execute attempts each tier in order. Intermediate failures are absorbed;
// the error is non-nil only when every tier failed, and then wraps ErrExhausted
// together with each tier's failure.
func (e *Executor[In, Out]) Execute(ctx context.Context, in In) (Out, Outcome, error) {
	var zero Out
	outcome := Outcome{Operation: e.operation, Index: -1}

	for i, t := range e.tiers {
		start := time.Now()
		out, err := e.attempt(ctx, t, in)
		elapsed := time.Since(start)

		if err == nil {
			outcome.Tier = t.Name()
			outcome.Index = i
			e.settings.observer.TierServed(e.operation, t.Name(), elapsed)
			return out, outcome, nil
		}

		outcome.Failures = append(outcome.Failures, Failure{Tier: t.Name(), Err: err, Elapsed: elapsed})
		e.settings.observer.TierFailed(e.operation, t.Name(), err, elapsed)
	}

	errs := make([]error, 0, len(outcome.Failures)+1)
	errs = append(errs, fmt.Errorf("%s: %w", e.operation, ErrExhausted))
	for _, f := range outcome.Failures {
		errs = append(errs, f.Err)
	}
	return zero, outcome, errors.Join(errs...)
}

type attemptResult[Out any] struct {
	out Out
	err error
}

func (e *Executor[In, Out]) attempt(ctx context.Context, t Tier[In, Out], in In) (Out, error) {
	var zero Out

	ctx, span := e.settings.tracer.Start(ctx, e.operation+"."+t.Name(),
		trace.WithAttributes(
			attribute.String("tier.operation", e.operation),
			attribute.String("tier.name", t.Name()),
		),
	)
	defer span.End()

	if e.settings.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.settings.timeout)
		defer cancel()
	}

	// The attempt runs in its own goroutine so a tier that ignores its context
	// cannot hold the call past the deadline. A late result is dropped.
	done := make(chan attemptResult[Out], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- attemptResult[Out]{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		out, err := t.Attempt(ctx, in)
		done <- attemptResult[Out]{out: out, err: err}
	}()

	var res attemptResult[Out]
	select {
	case res = <-done:
	case <-ctx.Done():
		res = attemptResult[Out]{err: ctx.Err()}
	}

	if res.err != nil {
		err := unavailable(t.Name(), res.err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return zero, err
	}

	span.SetStatus(codes.Ok, "")
	return res.out, nil
}

func unavailable(name string, err error) error {
	if errors.Is(err, ErrTierUnavailable) {
		return fmt.Errorf("%s: %w", name, err)
	}
	return fmt.Errorf("%s: %w: %w", name, ErrTierUnavailable, err)
}
