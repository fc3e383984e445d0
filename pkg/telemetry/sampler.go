package telemetry

import (
	"strconv"

	"go.opentelemetry.io/otel/sdk/trace"
)

// newSampler creates a trace sampler from configuration. Unknown or empty
// sampler names fall back to full sampling.
func newSampler(cfg *Config) trace.Sampler {
	switch cfg.Sampler {
	case "always_off":
		return trace.NeverSample()
	case "traceidratio":
		return trace.TraceIDRatioBased(samplingRatio(cfg.SamplerArg))
	case "parentbased_always_on":
		return trace.ParentBased(trace.AlwaysSample())
	case "parentbased_always_off":
		return trace.ParentBased(trace.NeverSample())
	case "parentbased_traceidratio":
		return trace.ParentBased(trace.TraceIDRatioBased(samplingRatio(cfg.SamplerArg)))
	default:
		return trace.AlwaysSample()
	}
}

// samplingRatio parses a ratio string, clamped to [0, 1]. Unparseable input
// means full sampling.
func samplingRatio(s string) float64 {
	if s == "" {
		return 1.0
	}

	ratio, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 1.0
	}

	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1.0
	}
	return ratio
}
