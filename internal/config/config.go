package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/riskibarqy/match-tracker/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CORSAllowedOrigins []string
	SwaggerEnabled     bool
	LogLevel           logging.Level
	InternalJobToken   string

	// SQLitePath selects the persistence mode: empty means cache-only,
	// nothing is written to disk.
	SQLitePath string

	FootballDataBaseURL         string
	FootballDataToken           string
	FootballDataTimeout         time.Duration
	FootballDataRetryDelay      time.Duration
	FootballDataCircuitEnabled  bool
	FootballDataCircuitFailures int
	FootballDataCircuitOpenWait time.Duration
	FootballDataCircuitHalfOpen int

	CompetitionCodes []string
	LookbackWindow   time.Duration
	ScorersLimit     int
	RefreshInterval  time.Duration
	RefreshCallPause time.Duration
	CacheTTL         time.Duration

	SummaryAPIBaseURL string
	SummaryAPIKey     string
	SummaryModel      string
	SummaryMaxTokens  int
	SummaryTimeout    time.Duration

	UptraceEnabled bool
	UptraceDSN     string

	BetterStackEnabled  bool
	BetterStackEndpoint string
	BetterStackToken    string
	BetterStackTimeout  time.Duration
	BetterStackMinLevel logging.Level

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	PprofEnabled bool
	PprofAddr    string
}

func Load() (Config, error) {
	// Local development convenience; the file is absent in deployments.
	_ = godotenv.Load()

	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}
	swaggerEnabled, err := strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}

	footballTimeout, err := time.ParseDuration(getEnv("FOOTBALL_DATA_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALL_DATA_TIMEOUT: %w", err)
	}
	if footballTimeout <= 0 {
		return Config{}, fmt.Errorf("FOOTBALL_DATA_TIMEOUT must be > 0")
	}
	footballRetryDelay, err := time.ParseDuration(getEnv("FOOTBALL_DATA_RETRY_DELAY", "2s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALL_DATA_RETRY_DELAY: %w", err)
	}
	if footballRetryDelay <= 0 {
		return Config{}, fmt.Errorf("FOOTBALL_DATA_RETRY_DELAY must be > 0")
	}
	footballCircuitEnabled, err := strconv.ParseBool(getEnv("FOOTBALL_DATA_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALL_DATA_CIRCUIT_ENABLED: %w", err)
	}
	footballCircuitFailures, err := getEnvAsInt("FOOTBALL_DATA_CIRCUIT_FAILURE_COUNT", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALL_DATA_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if footballCircuitFailures < 1 {
		return Config{}, fmt.Errorf("FOOTBALL_DATA_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	footballCircuitOpenWait, err := time.ParseDuration(getEnv("FOOTBALL_DATA_CIRCUIT_OPEN_TIMEOUT", "1m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALL_DATA_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if footballCircuitOpenWait <= 0 {
		return Config{}, fmt.Errorf("FOOTBALL_DATA_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	footballCircuitHalfOpen, err := getEnvAsInt("FOOTBALL_DATA_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALL_DATA_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if footballCircuitHalfOpen < 1 {
		return Config{}, fmt.Errorf("FOOTBALL_DATA_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	competitionCodes := splitCSV(getEnv("COMPETITION_CODES", "PL,PD,BL1,SA,FL1,CL"))
	if len(competitionCodes) == 0 {
		return Config{}, fmt.Errorf("COMPETITION_CODES cannot be empty")
	}

	lookbackWindow, err := time.ParseDuration(getEnv("LOOKBACK_WINDOW", "168h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LOOKBACK_WINDOW: %w", err)
	}
	if lookbackWindow <= 0 {
		return Config{}, fmt.Errorf("LOOKBACK_WINDOW must be > 0")
	}

	scorersLimit, err := getEnvAsInt("SCORERS_LIMIT", 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse SCORERS_LIMIT: %w", err)
	}
	if scorersLimit < 1 {
		return Config{}, fmt.Errorf("SCORERS_LIMIT must be >= 1")
	}

	refreshInterval, err := time.ParseDuration(getEnv("REFRESH_INTERVAL", "30m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_INTERVAL: %w", err)
	}
	if refreshInterval <= 0 {
		return Config{}, fmt.Errorf("REFRESH_INTERVAL must be > 0")
	}

	refreshCallPause, err := time.ParseDuration(getEnv("REFRESH_CALL_PAUSE", "6s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_CALL_PAUSE: %w", err)
	}
	if refreshCallPause <= 0 {
		return Config{}, fmt.Errorf("REFRESH_CALL_PAUSE must be > 0")
	}

	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "30m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	summaryMaxTokens, err := getEnvAsInt("SUMMARY_MAX_TOKENS", 1000)
	if err != nil {
		return Config{}, fmt.Errorf("parse SUMMARY_MAX_TOKENS: %w", err)
	}
	if summaryMaxTokens < 1 {
		return Config{}, fmt.Errorf("SUMMARY_MAX_TOKENS must be >= 1")
	}
	summaryTimeout, err := time.ParseDuration(getEnv("SUMMARY_TIMEOUT", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SUMMARY_TIMEOUT: %w", err)
	}
	if summaryTimeout <= 0 {
		return Config{}, fmt.Errorf("SUMMARY_TIMEOUT must be > 0")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	betterStackEnabled, err := strconv.ParseBool(getEnv("BETTERSTACK_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BETTERSTACK_ENABLED: %w", err)
	}
	betterStackEndpoint := strings.TrimSpace(getEnv("BETTERSTACK_ENDPOINT", ""))
	if betterStackEnabled && betterStackEndpoint == "" {
		return Config{}, fmt.Errorf("BETTERSTACK_ENDPOINT is required when BETTERSTACK_ENABLED=true")
	}
	betterStackTimeout, err := time.ParseDuration(getEnv("BETTERSTACK_TIMEOUT", "3s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BETTERSTACK_TIMEOUT: %w", err)
	}
	if betterStackTimeout <= 0 {
		return Config{}, fmt.Errorf("BETTERSTACK_TIMEOUT must be > 0")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	footballToken := strings.TrimSpace(getEnv("FOOTBALL_DATA_TOKEN", ""))
	if footballToken == "" {
		return Config{}, fmt.Errorf("FOOTBALL_DATA_TOKEN is required")
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "match-tracker-api"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:        readTimeout,
		WriteTimeout:       writeTimeout,
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		SwaggerEnabled:     swaggerEnabled,
		LogLevel:           parseLogLevel(getEnv("LOG_LEVEL", "info")),
		InternalJobToken:   strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),

		SQLitePath: strings.TrimSpace(getEnv("SQLITE_PATH", "")),

		FootballDataBaseURL:         getEnv("FOOTBALL_DATA_BASE_URL", "https://api.football-data.org/v4"),
		FootballDataToken:           footballToken,
		FootballDataTimeout:         footballTimeout,
		FootballDataRetryDelay:      footballRetryDelay,
		FootballDataCircuitEnabled:  footballCircuitEnabled,
		FootballDataCircuitFailures: footballCircuitFailures,
		FootballDataCircuitOpenWait: footballCircuitOpenWait,
		FootballDataCircuitHalfOpen: footballCircuitHalfOpen,

		CompetitionCodes: competitionCodes,
		LookbackWindow:   lookbackWindow,
		ScorersLimit:     scorersLimit,
		RefreshInterval:  refreshInterval,
		RefreshCallPause: refreshCallPause,
		CacheTTL:         cacheTTL,

		SummaryAPIBaseURL: getEnv("SUMMARY_API_BASE_URL", "https://api.anthropic.com"),
		SummaryAPIKey:     strings.TrimSpace(getEnv("SUMMARY_API_KEY", "")),
		SummaryModel:      getEnv("SUMMARY_MODEL", "claude-3-5-sonnet-20241022"),
		SummaryMaxTokens:  summaryMaxTokens,
		SummaryTimeout:    summaryTimeout,

		UptraceEnabled: uptraceEnabled,
		UptraceDSN:     uptraceDSN,

		BetterStackEnabled:  betterStackEnabled,
		BetterStackEndpoint: betterStackEndpoint,
		BetterStackToken:    strings.TrimSpace(getEnv("BETTERSTACK_TOKEN", "")),
		BetterStackTimeout:  betterStackTimeout,
		BetterStackMinLevel: parseLogLevel(getEnv("BETTERSTACK_MIN_LEVEL", "error")),

		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,

		PprofEnabled: pprofEnabled,
		PprofAddr:    pprofAddr,
	}

	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

// CacheOnly reports whether the service runs without a SQLite store.
func (c Config) CacheOnly() bool {
	return c.SQLitePath == ""
}

// SummaryEnabled reports whether summary generation is configured.
func (c Config) SummaryEnabled() bool {
	return c.SummaryAPIKey != ""
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
