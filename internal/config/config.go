// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes provider credentials
// (Stripe, the model endpoint, Kit), server timeouts, logging, rate limiting,
// the optional token claim store, and observability.
//
// The resulting Config is built once at process start and passed into every
// constructor; nothing else in the module reads the environment.
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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "fdd-analyzer")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// StripeConfig holds payment provider credentials and client bounds.
type StripeConfig struct {
	SecretKey string        // STRIPE_SECRET_KEY
	APIURL    string        // STRIPE_API_URL (empty = Stripe default)
	Timeout   time.Duration // STRIPE_TIMEOUT
	SiteURL   string        // SITE_URL, base for checkout redirects
}

// LLMConfig holds the language-model endpoint settings. The endpoint speaks
// the OpenAI chat-completions wire format.
type LLMConfig struct {
	APIKey  string        // ANTHROPIC_API_KEY
	BaseURL string        // LLM_BASE_URL
	Model   string        // LLM_MODEL
	Timeout time.Duration // LLM_TIMEOUT
}

// KitConfig holds the mailing-list provider settings.
type KitConfig struct {
	FormID    string        // KIT_FORM_ID
	APISecret string        // KIT_API_SECRET
	APIURL    string        // KIT_API_URL
	Timeout   time.Duration // KIT_TIMEOUT

	// SourceTags maps a signup source (e.g. "calculator") to a Kit tag id.
	// Sources with an empty tag are not tagged.
	SourceTags map[string]string
}

// LedgerConfig selects the optional exclusive claim store that serializes
// verify/consume per token.
type LedgerConfig struct {
	Driver        string        // TOKEN_LEDGER: none|sqlite|redis
	DBPath        string        // LEDGER_DB_PATH
	RedisAddr     string        // REDIS_ADDR
	RedisPassword string        // REDIS_PASSWORD
	TTL           time.Duration // LEDGER_TTL (redis key expiry)
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 90s; must outlast LLM_TIMEOUT
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogHeaders     bool   // access log with scrubbed request headers
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes
	GzipEnabled    bool   // gzip response compression

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Providers
	Stripe StripeConfig
	LLM    LLMConfig
	Kit    KitConfig

	// Token protocol
	Ledger                LedgerConfig
	AnalyzeConsumes       bool // ANALYZE_CONSUMES: analyze stamps the token itself
	NegotiateRequireToken bool // NEGOTIATE_REQUIRE_TOKEN

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
		WriteTimeout:      getdur("WRITE_TIMEOUT", 90*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		LogHeaders:     getbool("LOG_HEADERS", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),
		GzipEnabled:    getbool("GZIP_ENABLED", true),

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

		Stripe: StripeConfig{
			SecretKey: getenv("STRIPE_SECRET_KEY", ""),
			APIURL:    getenv("STRIPE_API_URL", ""),
			Timeout:   getdur("STRIPE_TIMEOUT", 10*time.Second),
			SiteURL:   strings.TrimRight(getenv("SITE_URL", "https://www.franchisegradesystems.com"), "/"),
		},
		LLM: LLMConfig{
			APIKey:  getenv("ANTHROPIC_API_KEY", ""),
			BaseURL: strings.TrimRight(getenv("LLM_BASE_URL", "https://api.anthropic.com/v1"), "/"),
			Model:   getenv("LLM_MODEL", "claude-sonnet-4-20250514"),
			Timeout: getdur("LLM_TIMEOUT", 60*time.Second),
		},
		Kit: KitConfig{
			FormID:    getenv("KIT_FORM_ID", ""),
			APISecret: getenv("KIT_API_SECRET", ""),
			APIURL:    strings.TrimRight(getenv("KIT_API_URL", "https://api.convertkit.com"), "/"),
			Timeout:   getdur("KIT_TIMEOUT", 10*time.Second),
			SourceTags: sourceTags(
				getenv("KIT_TAG_LEAD_MAGNET", ""),
				getenv("KIT_TAG_CALCULATOR", ""),
				getenv("KIT_TAG_DECISION_ENGINE", ""),
				getenv("KIT_SOURCE_TAGS", ""),
			),
		},

		Ledger: LedgerConfig{
			Driver:        strings.ToLower(getenv("TOKEN_LEDGER", "none")),
			DBPath:        getenv("LEDGER_DB_PATH", "ledger.db"),
			RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			TTL:           getdur("LEDGER_TTL", 30*24*time.Hour),
		},
		AnalyzeConsumes:       getbool("ANALYZE_CONSUMES", true),
		NegotiateRequireToken: getbool("NEGOTIATE_REQUIRE_TOKEN", false),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "fdd-analyzer"),
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
	if cfg.Ledger.Driver == "" {
		cfg.Ledger.Driver = "none"
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
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.Stripe.Timeout <= 0 || cfg.LLM.Timeout <= 0 || cfg.Kit.Timeout <= 0 {
		return cfg, errors.New("provider timeouts must be positive durations")
	}
	if !strings.HasPrefix(cfg.Stripe.SiteURL, "http://") && !strings.HasPrefix(cfg.Stripe.SiteURL, "https://") {
		return cfg, errors.New("SITE_URL must be an absolute http(s) URL")
	}
	switch cfg.Ledger.Driver {
	case "none":
	case "sqlite":
		if strings.TrimSpace(cfg.Ledger.DBPath) == "" {
			return cfg, errors.New("LEDGER_DB_PATH must not be empty when TOKEN_LEDGER=sqlite")
		}
	case "redis":
		if strings.TrimSpace(cfg.Ledger.RedisAddr) == "" {
			return cfg, errors.New("REDIS_ADDR must not be empty when TOKEN_LEDGER=redis")
		}
		if cfg.Ledger.TTL <= 0 {
			return cfg, errors.New("LEDGER_TTL must be > 0")
		}
	default:
		return cfg, errors.New("TOKEN_LEDGER must be one of: none, sqlite, redis")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// sourceTags builds the signup-source → tag-id table. The three named tag
// ids cover the built-in sources; extra is a "source=tag,source=tag" list
// applied last so it can add sources or override the defaults.
func sourceTags(leadMagnet, calculator, decisionEngine, extra string) map[string]string {
	m := map[string]string{
		"red-flags-guide": leadMagnet,
		"calculator":      calculator,
		"scorecard":       calculator,
		"decision-engine": decisionEngine,
		"comparison":      decisionEngine,
		"negotiation":     decisionEngine,
		"validation":      decisionEngine,
	}
	for _, pair := range splitCSV(extra) {
		k, v, ok := strings.Cut(pair, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" {
			continue
		}
		m[k] = v
	}
	return m
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
