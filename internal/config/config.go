// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, database selection, LLM defaults, session locking, rate limiting
// and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-narrator-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects the database driver and its connection target.
type DBConfig struct {
	Driver string // DB_DRIVER: sqlite|postgres|mysql
	Path   string // DB_PATH (sqlite)
	DSN    string // DB_DSN (postgres/mysql)
}

// Target returns the sqlite path or the DSN, depending on Driver.
func (d DBConfig) Target() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	return d.DSN
}

// LLMConfig holds engine-wide defaults for provider calls. Per-configuration
// values stored in the database take precedence.
type LLMConfig struct {
	Timeout            time.Duration // LLM_TIMEOUT
	DefaultTemperature float64       // LLM_DEFAULT_TEMPERATURE
	DefaultMaxTokens   int           // LLM_DEFAULT_MAX_TOKENS
}

// EngineConfig tunes the interaction engine.
type EngineConfig struct {
	HistoryWindow int // HISTORY_WINDOW: prior interactions sent to the LLM
	MaxInputRunes int // MAX_INPUT_RUNES
}

// RedisConfig points at the Redis used for session locks. An empty Addr
// means locks stay in-process.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LockConfig bounds the per-session turn lock.
type LockConfig struct {
	TTL  time.Duration // SESSION_LOCK_TTL: lease of a distributed lock
	Wait time.Duration // SESSION_LOCK_WAIT: how long a turn waits for the lock
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DB DBConfig

	// Engine
	LLM    LLMConfig
	Engine EngineConfig
	Redis  RedisConfig
	Lock   LockConfig
	// WSEnabled mounts the websocket session stream.
	WSEnabled bool

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Storage
		DB: DBConfig{
			Driver: strings.ToLower(strings.TrimSpace(getenv("DB_DRIVER", "sqlite"))),
			Path:   getenv("DB_PATH", "narrator.db"),
			DSN:    getenv("DB_DSN", ""),
		},

		// Engine
		LLM: LLMConfig{
			Timeout:            getdur("LLM_TIMEOUT", 60*time.Second),
			DefaultTemperature: getfloat("LLM_DEFAULT_TEMPERATURE", 0.7),
			DefaultMaxTokens:   getint("LLM_DEFAULT_MAX_TOKENS", 1024),
		},
		Engine: EngineConfig{
			HistoryWindow: getint("HISTORY_WINDOW", 8),
			MaxInputRunes: getint("MAX_INPUT_RUNES", 2000),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getint("REDIS_DB", 0),
		},
		Lock: LockConfig{
			TTL:  getdur("SESSION_LOCK_TTL", 2*time.Minute),
			Wait: getdur("SESSION_LOCK_WAIT", 10*time.Second),
		},
		WSEnabled: getbool("WS_ENABLED", true),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-narrator-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres", "mysql":
		if strings.TrimSpace(cfg.DB.DSN) == "" {
			return cfg, errors.New("DB_DSN must be set for " + cfg.DB.Driver)
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres, mysql")
	}
	if cfg.LLM.Timeout <= 0 {
		return cfg, errors.New("LLM_TIMEOUT must be > 0")
	}
	if cfg.LLM.DefaultTemperature < 0 || cfg.LLM.DefaultTemperature > 2 {
		return cfg, errors.New("LLM_DEFAULT_TEMPERATURE must be in [0,2]")
	}
	if cfg.LLM.DefaultMaxTokens < 1 {
		return cfg, errors.New("LLM_DEFAULT_MAX_TOKENS must be >= 1")
	}
	if cfg.Engine.HistoryWindow < 1 {
		return cfg, errors.New("HISTORY_WINDOW must be >= 1")
	}
	if cfg.Engine.MaxInputRunes < 1 {
		return cfg, errors.New("MAX_INPUT_RUNES must be >= 1")
	}
	if cfg.Redis.DB < 0 {
		return cfg, errors.New("REDIS_DB must be >= 0")
	}
	if cfg.Lock.TTL <= 0 || cfg.Lock.Wait <= 0 {
		return cfg, errors.New("SESSION_LOCK_TTL and SESSION_LOCK_WAIT must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
