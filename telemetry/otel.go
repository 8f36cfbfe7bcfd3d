package telemetry

import (
	"context"
	"crypto/tls"
	"os"
	"strconv"
	"strings"

	"github.com/flanksource/commons/collections"
	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

// Telemetry flag vars
var (
	OtelCollectorURL string
	OtelServiceName  = "reports"
	OtelInsecure     bool
	OtelSampleRates  map[string]string
)

func noop(context.Context) error { return nil }

func exporter(url string) (sdktrace.SpanExporter, error) {
	if url == "stdout" {
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}

	var client otlptrace.Client
	if strings.HasPrefix(url, "http") {
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")),
			otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
		}
		if strings.HasPrefix(url, "http://") || OtelInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		} else {
			opts = append(opts, otlptracehttp.WithTLSClientConfig(&tls.Config{}))
		}
		client = otlptracehttp.NewClient(opts...)
	} else {
		secureOption := otlptracegrpc.WithInsecure()
		if !OtelInsecure {
			secureOption = otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, ""))
		}
		client = otlptracegrpc.NewClient(secureOption, otlptracegrpc.WithEndpoint(url))
	}
	return otlptrace.New(context.Background(), client)
}

// Samplers parses the per span name sample rates.
func Samplers(rates map[string]string) map[string]sdktrace.Sampler {
	samplers := map[string]sdktrace.Sampler{}
	for name, rate := range rates {
		perc, err := strconv.ParseFloat(strings.TrimSuffix(rate, "%"), 64)
		if err != nil || perc <= 0 || perc > 100 {
			logger.Warnf("ignoring invalid sample rate %s=%s", name, rate)
			continue
		}
		samplers[name] = NewCounterSampler(perc)
	}
	return samplers
}

// InitTracer installs a global tracer provider when a collector is
// configured. The returned func flushes and stops the exporter.
func InitTracer() func(context.Context) error {
	OtelCollectorURL = lo.CoalesceOrEmpty(OtelCollectorURL, os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	if OtelCollectorURL == "" {
		return noop
	}

	exp, err := exporter(OtelCollectorURL)
	if err != nil {
		logger.Errorf("failed to create opentelemetry exporter: %v", err)
		return noop
	}
	logger.Infof("Sending traces to %s", OtelCollectorURL)

	resourceAttrs := []attribute.KeyValue{attribute.String("service.name", OtelServiceName)}
	if val, ok := os.LookupEnv("OTEL_LABELS"); ok {
		kv := collections.KeyValueSliceToMap(strings.Split(val, ","))
		for k, v := range kv {
			resourceAttrs = append(resourceAttrs, attribute.String(k, v))
		}
	}

	resources, err := resource.New(context.Background(), resource.WithAttributes(resourceAttrs...))
	if err != nil {
		logger.Errorf("could not set opentelemetry resources: %v", err)
		return noop
	}

	otel.SetTracerProvider(
		sdktrace.NewTracerProvider(
			sdktrace.WithSampler(NewCustomSampler(sdktrace.AlwaysSample(), Samplers(OtelSampleRates))),
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(resources),
		),
	)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return func(ctx context.Context) error {
		logger.Debugf("Shutting down otel exporter")
		return exp.Shutdown(ctx)
	}
}
