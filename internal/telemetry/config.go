package telemetry

// Config holds OpenTelemetry tracing configuration. Both starbind
// binaries are one-shot processes, so each process contributes a single
// short trace per invocation.
type Config struct {
	// Enabled turns tracing on; off by default.
	Enabled bool

	// ServiceName is the service name reported to the collector
	// ("starbind" or "starbind-helper").
	ServiceName string

	// ServiceVersion is the build version attached to every trace.
	ServiceVersion string

	// Endpoint is the OTLP gRPC endpoint (host:port).
	Endpoint string

	// Insecure disables TLS on the exporter connection.
	Insecure bool

	// SampleRate is the trace sampling rate in [0.0, 1.0]. Operations
	// are rare enough that the default samples everything.
	SampleRate float64
}

// DefaultConfig returns the tracing defaults: disabled, pointed at a
// local OTLP collector, sampling all traces.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "starbind",
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}
