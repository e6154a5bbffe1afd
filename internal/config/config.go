package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Store        StoreConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Resilience   ResilienceConfig
	Ledger       LedgerConfig
	Audit        AuditConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Driver          string
	ProbeCollection string
	ProbeID         string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters. IdentitySecret guards the
// session endpoint called by the identity provider bridge; when
// IdentitySecretHash is set the bcrypt hash is checked instead.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	IdentitySecret        string
	IdentitySecretHash    string
}

// ResilienceConfig tunes retries and reconnection.
type ResilienceConfig struct {
	RetryAttempts        int
	RetryBaseDelay       time.Duration
	ReconnectMaxAttempts int
	ReconnectSchedule    []time.Duration
	ProbeTimeout         time.Duration
	WatchTarget          string
	WatchInterval        time.Duration
	NotificationCapacity int
}

// LedgerConfig holds ledger policy switches.
type LedgerConfig struct {
	ReverseBalanceOnDelete bool
	DefaultLocale          string
}

// Audit sinks.
const (
	AuditSinkDirect = "direct"
	AuditSinkQueue  = "queue"
)

// AuditConfig selects how audit entries are persisted.
type AuditConfig struct {
	Sink        string
	EventBuffer int
	Queue       string
	Concurrency int
}

// NotificationConfig holds outbound notification settings.
type NotificationConfig struct {
	WebhookURL           string
	NegativeBalanceAlert bool
}

// Load reads configuration from the given env files (".env" when none) and
// the environment, applying defaults where possible.
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load(paths...)

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	schedule, err := getEnvAsDurations("RECONNECT_SCHEDULE", []time.Duration{
		time.Second, 2 * time.Second, 5 * time.Second, 10 * time.Second, 30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid RECONNECT_SCHEDULE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "agency-ledger"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Store: StoreConfig{
			Driver:          strings.ToLower(getEnv("STORE_DRIVER", DriverMemory)),
			ProbeCollection: getEnv("STORE_PROBE_COLLECTION", "_health"),
			ProbeID:         getEnv("STORE_PROBE_ID", "probe"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "ledger"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			IdentitySecret:        getEnv("AUTH_IDENTITY_SECRET", "dev-identity"),
			IdentitySecretHash:    getEnv("AUTH_IDENTITY_SECRET_HASH", ""),
		},
		Resilience: ResilienceConfig{
			RetryAttempts:        getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			RetryBaseDelay:       getEnvAsDuration("RETRY_BASE_DELAY", time.Second),
			ReconnectMaxAttempts: getEnvAsInt("RECONNECT_MAX_ATTEMPTS", 5),
			ReconnectSchedule:    schedule,
			ProbeTimeout:         getEnvAsDuration("RECONNECT_PROBE_TIMEOUT", 5*time.Second),
			WatchTarget:          os.Getenv("NETWORK_WATCH_TARGET"),
			WatchInterval:        getEnvAsDuration("NETWORK_WATCH_INTERVAL", 5*time.Second),
			NotificationCapacity: getEnvAsInt("NOTIFICATION_CAPACITY", 50),
		},
		Ledger: LedgerConfig{
			ReverseBalanceOnDelete: getEnvAsBool("LEDGER_REVERSE_BALANCE_ON_DELETE", false),
			DefaultLocale:          getEnv("LEDGER_DEFAULT_LOCALE", "en"),
		},
		Audit: AuditConfig{
			Sink:        strings.ToLower(getEnv("AUDIT_SINK", AuditSinkDirect)),
			EventBuffer: getEnvAsInt("AUDIT_EVENT_BUFFER", 256),
			Queue:       getEnv("AUDIT_QUEUE", "audit"),
			Concurrency: getEnvAsInt("AUDIT_WORKER_CONCURRENCY", 5),
		},
		Notification: NotificationConfig{
			WebhookURL:           getEnv("NOTIFY_WEBHOOK_URL", ""),
			NegativeBalanceAlert: getEnvAsBool("NOTIFY_NEGATIVE_BALANCE", true),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverPostgres, DriverRedis:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Store.Driver == DriverPostgres && c.Postgres.DSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required for the postgres store")
	}
	switch c.Audit.Sink {
	case AuditSinkDirect, AuditSinkQueue:
	default:
		return fmt.Errorf("unsupported AUDIT_SINK %q", c.Audit.Sink)
	}
	if c.Audit.Sink == AuditSinkQueue && c.Store.Driver == DriverMemory {
		return fmt.Errorf("AUDIT_SINK=queue needs a shared store driver, not %q", c.Store.Driver)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the JWT lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvAsDurations parses a comma separated list such as "1s,2s,5s".
func getEnvAsDurations(key string, fallback []time.Duration) ([]time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parts := strings.Split(val, ",")
	out := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		d, err := time.ParseDuration(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
