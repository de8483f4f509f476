package otelx

type OTLPConfig struct {
	ServerURL     string  `json:"server_url"`
	Insecure      bool    `json:"insecure"`
	SamplingRatio float64 `json:"sampling_ratio"`
}

type Config struct {
	ServiceName string `json:"service_name"`
	// Provider is one of "", "stdout" or "otel". The empty provider disables telemetry.
	Provider string     `json:"provider"`
	OTLP     OTLPConfig `json:"otlp"`
}

const (
	ProviderStdout = "stdout"
	ProviderOTLP   = "otel"
)
