// Package config loads the one explicit CoreConfig value every
// component takes fields from by name (spec's "replacing dynamic
// configuration objects" design note). Values come from the
// environment, with an optional YAML override file read first so env
// vars always win — grounded in the teacher's envOrDefault helpers,
// generalized with an int/duration/bool/float variant each, and in
// nupi-ai-plugin-stt-local-whisper's env-over-file precedence.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServiceConfig names this install and its control-plane ports.
type ServiceConfig struct {
	Principal   string
	GRPCPort    string
	HTTPPort    string
	MetricsPort string
}

// STTConfig holds the recognition backend selection and request
// parameters. GoogleBatch reads SampleRateHz and LanguageCode from it.
// The Session Client does not read it: it dials the endpoint URL
// exactly as given and adds no query parameters.
type STTConfig struct {
	Provider       string // "mock", "streaming", "googlebatch"
	Model          string
	LanguageCode   string // BCP-47, or "multi"
	SampleRateHz   int
	InterimResults bool
	AudioEncoding  string
	EndpointingMs  int
}

// SegmentLimits are the backpressure guardrails on a single segment's
// resource usage, grounded verbatim in the teacher's audio.SegmentLimits.
type SegmentLimits struct {
	MaxAudioBytes int64
	MaxDuration   time.Duration
	MaxPartials   int
}

// AudioConfig configures the Audio Pipeline (AP), spec §4.2.
type AudioConfig struct {
	FrameMs            int     // Mode A frame duration, default 20ms -> 320 samples @ 16kHz
	OutputSampleRateHz int     // default 16000
	WindowSec          float64 // Mode B window length, default 3s
	StepSec            float64 // Mode B step, default 2s (1s overlap)
}

// SessionConfig configures the Session Client's keep-alive and
// reconnection policy, spec §4.3.
type SessionConfig struct {
	KeepAliveEnabled     bool
	KeepAliveIntervalMs  int
	SilenceCloseMs       int // silence limit for sessions without keep-alive; the Session Client does not read it
	ReconnectMaxRetries  int
	ReconnectBaseDelayMs int
	OpenTimeoutSec       int
}

// OverlapConfig configures the Overlap Processor (OP), spec §4.5.
type OverlapConfig struct {
	OverlapDurationMs   int
	SimilarityThreshold float64
	MergeTimeGapSec     float64
	MaxCompareLength    int
}

// TimelineConfig configures the Timeline Aligner (TA), spec §4.4 and §3.
type TimelineConfig struct {
	SegmentRetentionSec int
	SeekReopenDelayMs   int
}

// KafkaConfig configures the optional event-export mirror, teacher's
// events.Config generalized to segment/transcript topics.
type KafkaConfig struct {
	Enabled         bool
	Brokers         []string
	TopicSegment    string
	TopicTranscript string
	Principal       string
}

// ObservabilityConfig configures logging format/level and the metrics
// HTTP server address.
type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsAddr string
}

// CredentialConfig configures the Credential Store's storage backend
// and verification endpoint.
type CredentialConfig struct {
	SQLitePath  string // empty => in-memory kvStore
	VerifyURL   string
	ServiceName string
}

// Configuration is the single value constructed at startup and passed
// by reference to every component (spec §9's CoreConfig).
type Configuration struct {
	Service       ServiceConfig
	STT           STTConfig
	SegmentLimits SegmentLimits
	Audio         AudioConfig
	Session       SessionConfig
	Overlap       OverlapConfig
	Timeline      TimelineConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
	Credential    CredentialConfig
}

// defaults returns the configuration with every spec/teacher default
// applied, before env/file overrides.
func defaults() *Configuration {
	return &Configuration{
		Service: ServiceConfig{
			Principal:   "caption-core",
			GRPCPort:    "50051",
			HTTPPort:    "8080",
			MetricsPort: "9090",
		},
		STT: STTConfig{
			Provider:       "mock",
			Model:          "nova-2",
			LanguageCode:   "en-US",
			SampleRateHz:   8000,
			InterimResults: true,
			AudioEncoding:  "LINEAR16",
			EndpointingMs:  300,
		},
		SegmentLimits: SegmentLimits{
			MaxAudioBytes: 5 * 1024 * 1024,
			MaxDuration:   5 * time.Minute,
			MaxPartials:   500,
		},
		Audio: AudioConfig{
			FrameMs:            20,
			OutputSampleRateHz: 16000,
			WindowSec:          3.0,
			StepSec:            2.0,
		},
		Session: SessionConfig{
			KeepAliveEnabled:     true,
			KeepAliveIntervalMs:  5000,
			SilenceCloseMs:       10000,
			ReconnectMaxRetries:  5,
			ReconnectBaseDelayMs: 1000,
			OpenTimeoutSec:       10,
		},
		Overlap: OverlapConfig{
			OverlapDurationMs:   1000,
			SimilarityThreshold: 0.8,
			MergeTimeGapSec:     0.3,
			MaxCompareLength:    100,
		},
		Timeline: TimelineConfig{
			SegmentRetentionSec: 30,
			SeekReopenDelayMs:   200,
		},
		Kafka: KafkaConfig{
			Enabled:         false,
			TopicSegment:    "caption.segment",
			TopicTranscript: "caption.transcript.interim",
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			MetricsAddr: ":9090",
		},
		Credential: CredentialConfig{
			ServiceName: "recognition-service",
		},
	}
}

// fileOverlay is the optional YAML shape; any zero-value field leaves
// the default/env value untouched.
type fileOverlay struct {
	Service struct {
		Principal   string `yaml:"principal"`
		GRPCPort    string `yaml:"grpcPort"`
		HTTPPort    string `yaml:"httpPort"`
		MetricsPort string `yaml:"metricsPort"`
	} `yaml:"service"`
	STT struct {
		Provider     string `yaml:"provider"`
		Model        string `yaml:"model"`
		LanguageCode string `yaml:"languageCode"`
	} `yaml:"stt"`
}

// Load builds a Configuration from (in increasing priority) built-in
// defaults, an optional YAML file named by CAPTION_CONFIG_FILE, then
// environment variables.
func Load() *Configuration {
	cfg := defaults()
	applyFile(cfg, os.Getenv("CAPTION_CONFIG_FILE"))
	applyEnv(cfg)
	return cfg
}

func applyFile(cfg *Configuration, path string) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var ov fileOverlay
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return
	}
	if ov.Service.Principal != "" {
		cfg.Service.Principal = ov.Service.Principal
	}
	if ov.Service.GRPCPort != "" {
		cfg.Service.GRPCPort = ov.Service.GRPCPort
	}
	if ov.Service.HTTPPort != "" {
		cfg.Service.HTTPPort = ov.Service.HTTPPort
	}
	if ov.Service.MetricsPort != "" {
		cfg.Service.MetricsPort = ov.Service.MetricsPort
	}
	if ov.STT.Provider != "" {
		cfg.STT.Provider = ov.STT.Provider
	}
	if ov.STT.Model != "" {
		cfg.STT.Model = ov.STT.Model
	}
	if ov.STT.LanguageCode != "" {
		cfg.STT.LanguageCode = ov.STT.LanguageCode
	}
}

func applyEnv(cfg *Configuration) {
	cfg.Service.Principal = envOrDefault("SERVICE_PRINCIPAL", cfg.Service.Principal)
	cfg.Service.GRPCPort = envOrDefault("GRPC_PORT", cfg.Service.GRPCPort)
	cfg.Service.HTTPPort = envOrDefault("HTTP_PORT", cfg.Service.HTTPPort)
	cfg.Service.MetricsPort = envOrDefault("METRICS_PORT", cfg.Service.MetricsPort)

	cfg.STT.Provider = envOrDefault("STT_PROVIDER", cfg.STT.Provider)
	cfg.STT.Model = envOrDefault("STT_MODEL", cfg.STT.Model)
	cfg.STT.LanguageCode = envOrDefault("STT_LANGUAGE_CODE", cfg.STT.LanguageCode)
	cfg.STT.SampleRateHz = envOrDefaultInt("STT_SAMPLE_RATE_HZ", cfg.STT.SampleRateHz)
	cfg.STT.InterimResults = envOrDefaultBool("STT_INTERIM_RESULTS", cfg.STT.InterimResults)
	cfg.STT.AudioEncoding = envOrDefault("STT_AUDIO_ENCODING", cfg.STT.AudioEncoding)
	cfg.STT.EndpointingMs = envOrDefaultInt("STT_ENDPOINTING_MS", cfg.STT.EndpointingMs)

	cfg.SegmentLimits.MaxAudioBytes = envOrDefaultInt64("SEGMENT_MAX_AUDIO_BYTES", cfg.SegmentLimits.MaxAudioBytes)
	cfg.SegmentLimits.MaxDuration = envOrDefaultDuration("SEGMENT_MAX_DURATION", cfg.SegmentLimits.MaxDuration)
	cfg.SegmentLimits.MaxPartials = envOrDefaultInt("SEGMENT_MAX_PARTIALS", cfg.SegmentLimits.MaxPartials)

	cfg.Audio.FrameMs = envOrDefaultInt("AUDIO_FRAME_MS", cfg.Audio.FrameMs)
	cfg.Audio.OutputSampleRateHz = envOrDefaultInt("AUDIO_OUTPUT_SAMPLE_RATE_HZ", cfg.Audio.OutputSampleRateHz)
	cfg.Audio.WindowSec = envOrDefaultFloat("AUDIO_WINDOW_SEC", cfg.Audio.WindowSec)
	cfg.Audio.StepSec = envOrDefaultFloat("AUDIO_STEP_SEC", cfg.Audio.StepSec)

	cfg.Session.KeepAliveEnabled = envOrDefaultBool("SESSION_KEEPALIVE_ENABLED", cfg.Session.KeepAliveEnabled)
	cfg.Session.KeepAliveIntervalMs = envOrDefaultInt("SESSION_KEEPALIVE_INTERVAL_MS", cfg.Session.KeepAliveIntervalMs)
	cfg.Session.SilenceCloseMs = envOrDefaultInt("SESSION_SILENCE_CLOSE_MS", cfg.Session.SilenceCloseMs)
	cfg.Session.ReconnectMaxRetries = envOrDefaultInt("SESSION_RECONNECT_MAX_RETRIES", cfg.Session.ReconnectMaxRetries)
	cfg.Session.ReconnectBaseDelayMs = envOrDefaultInt("SESSION_RECONNECT_BASE_DELAY_MS", cfg.Session.ReconnectBaseDelayMs)
	cfg.Session.OpenTimeoutSec = envOrDefaultInt("SESSION_OPEN_TIMEOUT_SEC", cfg.Session.OpenTimeoutSec)

	cfg.Overlap.OverlapDurationMs = envOrDefaultInt("OVERLAP_DURATION_MS", cfg.Overlap.OverlapDurationMs)
	cfg.Overlap.SimilarityThreshold = envOrDefaultFloat("OVERLAP_SIMILARITY_THRESHOLD", cfg.Overlap.SimilarityThreshold)
	cfg.Overlap.MergeTimeGapSec = envOrDefaultFloat("OVERLAP_MERGE_TIME_GAP_SEC", cfg.Overlap.MergeTimeGapSec)
	cfg.Overlap.MaxCompareLength = envOrDefaultInt("OVERLAP_MAX_COMPARE_LENGTH", cfg.Overlap.MaxCompareLength)

	cfg.Timeline.SegmentRetentionSec = envOrDefaultInt("TIMELINE_SEGMENT_RETENTION_SEC", cfg.Timeline.SegmentRetentionSec)
	cfg.Timeline.SeekReopenDelayMs = envOrDefaultInt("TIMELINE_SEEK_REOPEN_DELAY_MS", cfg.Timeline.SeekReopenDelayMs)

	cfg.Kafka.Enabled = envOrDefaultBool("KAFKA_ENABLED", cfg.Kafka.Enabled)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	cfg.Kafka.TopicSegment = envOrDefault("KAFKA_TOPIC_SEGMENT", cfg.Kafka.TopicSegment)
	cfg.Kafka.TopicTranscript = envOrDefault("KAFKA_TOPIC_TRANSCRIPT", cfg.Kafka.TopicTranscript)
	cfg.Kafka.Principal = envOrDefault("KAFKA_PRINCIPAL", cfg.Service.Principal)

	cfg.Observability.LogLevel = envOrDefault("LOG_LEVEL", cfg.Observability.LogLevel)
	cfg.Observability.LogFormat = envOrDefault("LOG_FORMAT", cfg.Observability.LogFormat)
	cfg.Observability.MetricsAddr = envOrDefault("METRICS_ADDR", cfg.Observability.MetricsAddr)

	cfg.Credential.SQLitePath = envOrDefault("CREDENTIAL_SQLITE_PATH", cfg.Credential.SQLitePath)
	cfg.Credential.VerifyURL = envOrDefault("CREDENTIAL_VERIFY_URL", cfg.Credential.VerifyURL)
	cfg.Credential.ServiceName = envOrDefault("CREDENTIAL_SERVICE_NAME", cfg.Credential.ServiceName)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
