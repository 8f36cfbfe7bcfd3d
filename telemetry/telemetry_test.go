package telemetry

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.opentelemetry.io/otel/sdk/trace"
)

func TestTelemetry(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Telemetry Suite")
}

func decisions(s trace.Sampler, name string, ctx context.Context, n int) []trace.SamplingDecision {
	var out []trace.SamplingDecision
	for range n {
		out = append(out, s.ShouldSample(trace.SamplingParameters{ParentContext: ctx, Name: name}).Decision)
	}
	return out
}

var _ = Describe("Samplers", func() {
	It("samples every n-th span", func() {
		Expect(decisions(NewCounterSampler(25), "x", context.Background(), 8)).To(Equal([]trace.SamplingDecision{
			trace.RecordAndSample, trace.Drop, trace.Drop, trace.Drop,
			trace.RecordAndSample, trace.Drop, trace.Drop, trace.Drop,
		}))
	})

	It("routes by span name and honours skipped contexts", func() {
		s := NewCustomSampler(trace.AlwaysSample(), Samplers(map[string]string{"pipeline.run": "50%", "bad": "x"}))
		Expect(decisions(s, "pipeline.run", context.Background(), 2)).To(Equal([]trace.SamplingDecision{trace.RecordAndSample, trace.Drop}))
		Expect(decisions(s, "other", context.Background(), 2)).To(HaveEach(trace.RecordAndSample))
		Expect(decisions(s, "other", WithSkipSpan(context.Background()), 1)).To(HaveEach(trace.Drop))
	})

	It("is a no-op without a collector", func() {
		OtelCollectorURL = ""
		GinkgoT().Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
		Expect(InitTracer()(context.Background())).To(Succeed())
	})
})
