package telemetry

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel/sdk/trace"
)

type pausedKey struct{}

// WithSkipSpan drops every span started below ctx.
func WithSkipSpan(ctx context.Context) context.Context {
	return context.WithValue(ctx, pausedKey{}, true)
}

// CustomSampler picks a sampler by span name.
type CustomSampler struct {
	defaultSampler trace.Sampler
	samplers       map[string]trace.Sampler
}

func NewCustomSampler(defaultSampler trace.Sampler, samplers map[string]trace.Sampler) *CustomSampler {
	return &CustomSampler{
		defaultSampler: defaultSampler,
		samplers:       samplers,
	}
}

func (cs *CustomSampler) ShouldSample(params trace.SamplingParameters) trace.SamplingResult {
	if params.ParentContext.Value(pausedKey{}) != nil {
		return trace.SamplingResult{Decision: trace.Drop}
	}
	if sampler, ok := cs.samplers[params.Name]; ok {
		return sampler.ShouldSample(params)
	}
	return cs.defaultSampler.ShouldSample(params)
}

func (cs *CustomSampler) Description() string {
	return "CustomSampler"
}

// CounterSampler samples every n-th span so that percentage of spans are kept.
type CounterSampler struct {
	counter atomic.Int64
	rate    int64
}

// NewCounterSampler takes a percentage between 0 and 100.
func NewCounterSampler(percentage float64) *CounterSampler {
	return &CounterSampler{rate: max(int64(100.0/percentage), 1)}
}

func (cs *CounterSampler) ShouldSample(params trace.SamplingParameters) trace.SamplingResult {
	count := cs.counter.Add(1)
	if cs.rate == 1 || count%cs.rate == 1 {
		return trace.SamplingResult{Decision: trace.RecordAndSample}
	}
	return trace.SamplingResult{Decision: trace.Drop}
}

func (cs *CounterSampler) Description() string {
	return "CounterSampler"
}
