package telemetry

import (
	"os"

	"github.com/spf13/pflag"
)

func BindFlags(flags *pflag.FlagSet, serviceName string) {
	flags.StringVar(&OtelCollectorURL, "otel-collector-url", os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"), "OpenTelemetry collector URL, host:port for gRPC, http(s):// for HTTP or stdout")
	flags.StringVar(&OtelServiceName, "otel-service-name", serviceName, "OpenTelemetry service name for the resource")
	flags.BoolVar(&OtelInsecure, "otel-insecure", true, "Set to true to disable TLS for insecure OpenTelemetry collector")
	flags.StringToStringVar(&OtelSampleRates, "otel-sample", nil, "Percentage of spans sampled per span name, e.g. pipeline.run=10")
}
