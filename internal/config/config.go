package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type Config struct {
	RuntimeName string          `yaml:"runtime_name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	Backend     BackendConfig   `yaml:"backend"`
	Synthesis   SynthesisConfig `yaml:"synthesis"`
	FFmpeg      FFmpegConfig    `yaml:"ffmpeg"`
	JobStore    JobStoreConfig  `yaml:"job_store"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

// BackendProfile holds the per-backend chunking limits. Chunks handed to
// the backend never exceed MaxWords words or MaxChars characters, and
// adjacent audio chunks are blended over CrossfadeMS milliseconds.
type BackendProfile struct {
	MaxWords    int `yaml:"max_words"`
	MaxChars    int `yaml:"max_chars"`
	CrossfadeMS int `yaml:"crossfade_ms"`
}

type BackendConfig struct {
	Name             string         `yaml:"name"`
	Mode             string         `yaml:"mode"` // mock, http, exec
	URL              string         `yaml:"url"`
	Command          string         `yaml:"command"`
	Voice            string         `yaml:"voice"`
	RequestTimeoutMS int            `yaml:"request_timeout_ms"`
	SampleRate       int            `yaml:"sample_rate"`
	Profile          BackendProfile `yaml:"profile"`
}

type SynthesisConfig struct {
	Concurrency   int    `yaml:"max_concurrency"`
	DefaultFormat string `yaml:"default_format"`
}

type FFmpegConfig struct {
	Path      string `yaml:"path"`
	ExtraArgs string `yaml:"extra_args"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

type JobStoreConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
	MaxJobs       int    `yaml:"max_jobs"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

// Built-in chunking profiles for known synthesis backends. A profile is
// selected by backend name; explicit profile values in the config file or
// environment win over the built-in ones.
var builtinProfiles = map[string]BackendProfile{
	"kokoro":    {MaxWords: 200, MaxChars: 1200, CrossfadeMS: 30},
	"voxcpm":    {MaxWords: 150, MaxChars: 800, CrossfadeMS: 50},
	"vibevoice": {MaxWords: 100, MaxChars: 500, CrossfadeMS: 100},
}

// ProfileFor returns the built-in profile for a backend name, falling back
// to the kokoro profile for unknown backends.
func ProfileFor(backend string) BackendProfile {
	if p, ok := builtinProfiles[backend]; ok {
		return p
	}
	return builtinProfiles["kokoro"]
}

func Default() Config {
	return Config{
		RuntimeName: "voxweld",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8765,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Enabled:        false,
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Backend: BackendConfig{
			Name:             "kokoro",
			Mode:             "http",
			URL:              "http://localhost:8880",
			Voice:            "af_bella",
			RequestTimeoutMS: 120000,
			SampleRate:       24000,
			Profile:          ProfileFor("kokoro"),
		},
		Synthesis: SynthesisConfig{
			Concurrency:   4,
			DefaultFormat: "mp3",
		},
		FFmpeg: FFmpegConfig{
			Path:      "ffmpeg",
			TimeoutMS: 30000,
		},
		JobStore: JobStoreConfig{
			Enabled:       false,
			Path:          "./data/voxweld-jobs.db",
			RetentionDays: 30,
			MaxJobs:       10000,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		// Re-resolve the built-in profile when the file switches backends,
		// so explicit profile values in the file override the right base.
		var probe struct {
			Backend struct {
				Name string `yaml:"name"`
			} `yaml:"backend"`
		}
		if err := yaml.Unmarshal(data, &probe); err == nil && probe.Backend.Name != "" {
			cfg.Backend.Name = probe.Backend.Name
			cfg.Backend.Profile = ProfileFor(probe.Backend.Name)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "VOXWELD_RUNTIME_NAME")
	overrideString(&cfg.Environment, "VOXWELD_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "VOXWELD_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "VOXWELD_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "VOXWELD_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "VOXWELD_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "VOXWELD_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "VOXWELD_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Enabled, "VOXWELD_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "VOXWELD_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "VOXWELD_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "VOXWELD_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "VOXWELD_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "VOXWELD_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "VOXWELD_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "VOXWELD_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "VOXWELD_BUS_CONNECT_TIMEOUT_MS")
	if name, ok := os.LookupEnv("VOXWELD_BACKEND"); ok && strings.TrimSpace(name) != "" {
		cfg.Backend.Name = name
		cfg.Backend.Profile = ProfileFor(name)
	}
	overrideString(&cfg.Backend.Mode, "VOXWELD_BACKEND_MODE")
	overrideString(&cfg.Backend.URL, "VOXWELD_BACKEND_URL")
	overrideString(&cfg.Backend.Command, "VOXWELD_BACKEND_COMMAND")
	overrideString(&cfg.Backend.Voice, "VOXWELD_BACKEND_VOICE")
	overrideInt(&cfg.Backend.RequestTimeoutMS, "VOXWELD_BACKEND_REQUEST_TIMEOUT_MS")
	overrideInt(&cfg.Backend.SampleRate, "VOXWELD_BACKEND_SAMPLE_RATE")
	overrideInt(&cfg.Backend.Profile.MaxWords, "VOXWELD_BACKEND_MAX_WORDS")
	overrideInt(&cfg.Backend.Profile.MaxChars, "VOXWELD_BACKEND_MAX_CHARS")
	overrideInt(&cfg.Backend.Profile.CrossfadeMS, "VOXWELD_BACKEND_CROSSFADE_MS")
	overrideInt(&cfg.Synthesis.Concurrency, "VOXWELD_SYNTHESIS_MAX_CONCURRENCY")
	overrideString(&cfg.Synthesis.DefaultFormat, "VOXWELD_SYNTHESIS_DEFAULT_FORMAT")
	overrideString(&cfg.FFmpeg.Path, "VOXWELD_FFMPEG_PATH")
	overrideString(&cfg.FFmpeg.ExtraArgs, "VOXWELD_FFMPEG_EXTRA_ARGS")
	overrideInt(&cfg.FFmpeg.TimeoutMS, "VOXWELD_FFMPEG_TIMEOUT_MS")
	overrideBool(&cfg.JobStore.Enabled, "VOXWELD_JOB_STORE_ENABLED")
	overrideString(&cfg.JobStore.Path, "VOXWELD_JOB_STORE_PATH")
	overrideInt(&cfg.JobStore.RetentionDays, "VOXWELD_JOB_STORE_RETENTION_DAYS")
	overrideInt(&cfg.JobStore.MaxJobs, "VOXWELD_JOB_STORE_MAX_JOBS")
	overrideBool(&cfg.JobStore.VacuumOnStart, "VOXWELD_JOB_STORE_VACUUM_ON_START")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	switch cfg.Backend.Mode {
	case "mock", "http", "exec":
	default:
		return errors.New("backend.mode must be one of mock|http|exec")
	}
	if cfg.Backend.Mode == "http" && cfg.Backend.URL == "" {
		return errors.New("backend.url must be set when mode=http")
	}
	if cfg.Backend.Mode == "exec" && cfg.Backend.Command == "" {
		return errors.New("backend.command must be set when mode=exec")
	}
	if cfg.Backend.RequestTimeoutMS <= 0 {
		return errors.New("backend.request_timeout_ms must be positive")
	}
	if cfg.Backend.SampleRate <= 0 {
		return errors.New("backend.sample_rate must be positive")
	}
	if cfg.Backend.Profile.MaxWords <= 0 {
		return errors.New("backend.profile.max_words must be positive")
	}
	if cfg.Backend.Profile.MaxChars <= 0 {
		return errors.New("backend.profile.max_chars must be positive")
	}
	if cfg.Backend.Profile.CrossfadeMS < 0 {
		return errors.New("backend.profile.crossfade_ms must be >= 0")
	}
	if cfg.Synthesis.Concurrency <= 0 {
		return errors.New("synthesis.max_concurrency must be >= 1")
	}
	if cfg.FFmpeg.Path == "" {
		return errors.New("ffmpeg.path must not be empty")
	}
	if cfg.FFmpeg.TimeoutMS <= 0 {
		return errors.New("ffmpeg.timeout_ms must be positive")
	}
	if cfg.JobStore.Enabled {
		if cfg.JobStore.Path == "" {
			return errors.New("job_store.path must not be empty when the job store is enabled")
		}
		if cfg.JobStore.RetentionDays < 0 {
			return errors.New("job_store.retention_days must be >= 0")
		}
	}
	return nil
}
