package telemetry

import (
	"os"
	"strings"
)

// Config holds OpenTelemetry configuration loaded from environment variables.
type Config struct {
	// Enabled indicates whether tracing is on. From OTEL_ENABLED.
	Enabled bool

	// ServiceName is the reported service name. From OTEL_SERVICE_NAME,
	// defaults to "deepsize".
	ServiceName string

	// ServiceVersion is the reported service version. From
	// OTEL_SERVICE_VERSION, defaults to "unknown".
	ServiceVersion string

	// Endpoint is the OTLP collector endpoint. From
	// OTEL_EXPORTER_OTLP_ENDPOINT.
	Endpoint string

	// Protocol is the OTLP protocol, grpc or http/protobuf. From
	// OTEL_EXPORTER_OTLP_PROTOCOL, defaults to "grpc".
	Protocol string

	// Headers carries custom exporter headers such as Authorization. From
	// OTEL_EXPORTER_OTLP_HEADERS, formatted "key1=value1,key2=value2".
	Headers map[string]string

	// Insecure disables transport security. From OTEL_EXPORTER_OTLP_INSECURE.
	Insecure bool

	// Sampler is the sampler type. From OTEL_TRACES_SAMPLER. Supported:
	// always_on, always_off, traceidratio, parentbased_always_on,
	// parentbased_always_off, parentbased_traceidratio. Defaults to
	// always_on.
	Sampler string

	// SamplerArg is the sampler argument, e.g. the ratio for traceidratio.
	// From OTEL_TRACES_SAMPLER_ARG.
	SamplerArg string

	// ResourceAttrs carries additional resource attributes. From
	// OTEL_RESOURCE_ATTRIBUTES, formatted "key1=value1,key2=value2".
	ResourceAttrs map[string]string
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	return &Config{
		Enabled:        strings.ToLower(os.Getenv("OTEL_ENABLED")) == "true",
		ServiceName:    envOr("OTEL_SERVICE_NAME", "deepsize"),
		ServiceVersion: envOr("OTEL_SERVICE_VERSION", "unknown"),
		Endpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Protocol:       envOr("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
		Headers:        parseKeyValues(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Insecure:       strings.ToLower(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")) == "true",
		Sampler:        os.Getenv("OTEL_TRACES_SAMPLER"),
		SamplerArg:     os.Getenv("OTEL_TRACES_SAMPLER_ARG"),
		ResourceAttrs:  parseKeyValues(os.Getenv("OTEL_RESOURCE_ATTRIBUTES")),
	}
}

// envOr returns the environment variable value or a default.
func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseKeyValues parses a comma-separated list of key=value pairs. Values
// may themselves contain '='; only the first one splits.
func parseKeyValues(s string) map[string]string {
	result := make(map[string]string)
	if s == "" {
		return result
	}

	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		idx := strings.Index(pair, "=")
		if idx <= 0 {
			continue
		}

		key := strings.TrimSpace(pair[:idx])
		value := strings.TrimSpace(pair[idx+1:])
		if key != "" {
			result[key] = value
		}
	}

	return result
}
