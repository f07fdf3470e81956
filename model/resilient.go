package model

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/hupe1980/archon/core"
)

// ResilientOptions configures the Resilient wrapper.
type ResilientOptions struct {
	// BreakerName labels the circuit breaker in its state change callbacks.
	BreakerName string
	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// RequestsPerSecond throttles calls to the underlying model. Zero
	// disables rate limiting.
	RequestsPerSecond float64
	// Burst is the rate limiter burst size.
	Burst int
}

// Resilient wraps a Model with a circuit breaker and an optional rate
// limiter. Provider outages trip the breaker so stalled backends fail fast
// instead of queueing every run behind a dead connection.
type Resilient struct {
	inner   Model
	breaker *gobreaker.CircuitBreaker[*Result]
	limiter *rate.Limiter
}

// NewResilient wraps inner with default thresholds (5 consecutive failures,
// 30s open timeout, no rate limit).
func NewResilient(inner Model, optFns ...func(o *ResilientOptions)) *Resilient {
	opts := ResilientOptions{
		BreakerName:      inner.Info().Provider + "/" + inner.Info().Name,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	breaker := gobreaker.NewCircuitBreaker[*Result](gobreaker.Settings{
		Name:    opts.BreakerName,
		Timeout: opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.FailureThreshold
		},
	})

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Resilient{inner: inner, breaker: breaker, limiter: limiter}
}

// Chat implements Model.
func (r *Resilient) Chat(ctx context.Context, messages []core.Message, opts Options) (*Result, error) {
	return r.call(ctx, func() (*Result, error) {
		return r.inner.Chat(ctx, messages, opts)
	})
}

// ChatWithTools implements FunctionCaller when the wrapped model does.
func (r *Resilient) ChatWithTools(ctx context.Context, messages []core.Message, tools []ToolDefinition, opts Options) (*Result, error) {
	fc, ok := r.inner.(FunctionCaller)
	if !ok {
		return nil, fmt.Errorf("model %s does not support function calling", r.inner.Info().Name)
	}
	return r.call(ctx, func() (*Result, error) {
		return fc.ChatWithTools(ctx, messages, tools, opts)
	})
}

// Info implements Model.
func (r *Resilient) Info() Info { return r.inner.Info() }

func (r *Resilient) call(ctx context.Context, fn func() (*Result, error)) (*Result, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return r.breaker.Execute(fn)
}
