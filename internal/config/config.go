package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Repository backends
const (
	RepositoryFile     = "file"
	RepositoryPostgres = "postgres"
	RepositorySQLite   = "sqlite"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Lifecycle LifecycleConfig
	Scheduler SchedulerConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port          string
	Host          string
	Env           string
	SessionSecret string
}

type DatabaseConfig struct {
	Type     string // file, postgres or sqlite
	URL      string // Full database URL or sqlite DSN
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type StorageConfig struct {
	DataDir string
}

type RedisConfig struct {
	Addr        string // empty keeps reservation locks in process: one instance only
	Password    string
	DB          int
	LockTTL     time.Duration
	LockMaxWait time.Duration
}

type LifecycleConfig struct {
	EnforceReservationWindow bool
	EnforcePaymentWindow     bool
	EnforceValidationWindow  bool
	CertificationLead        time.Duration
	ReservationTTL           time.Duration
	EventDuration            time.Duration
	BusinessZone             *time.Location
}

type SchedulerConfig struct {
	Enabled       bool
	SweepInterval time.Duration
}

type LogConfig struct {
	Format string // text or json
	Level  string
}

func Load() (*Config, error) {
	// Load .env files if they exist (try .env.local first, then .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	zone, err := ParseBusinessZone(getEnv("BUSINESS_TZ_OFFSET", "-03:00"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port:          getEnv("PORT", "8080"),
			Host:          getEnv("HOST", "localhost"),
			Env:           getEnv("ENV", "development"),
			SessionSecret: getEnv("SESSION_SECRET", "your-secret-key-change-in-production"),
		},
		Database: parseDatabaseConfig(),
		Storage: StorageConfig{
			DataDir: getEnv("DATA_DIR", "data"),
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", ""),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			LockTTL:     getEnvAsDuration("REDIS_LOCK_TTL", 10*time.Second),
			LockMaxWait: getEnvAsDuration("REDIS_LOCK_MAX_WAIT", 5*time.Second),
		},
		Lifecycle: LifecycleConfig{
			EnforceReservationWindow: getEnvAsBool("ENFORCE_RESERVATION_WINDOW", true),
			EnforcePaymentWindow:     getEnvAsBool("ENFORCE_PAYMENT_WINDOW", true),
			EnforceValidationWindow:  getEnvAsBool("ENFORCE_VALIDATION_WINDOW", true),
			CertificationLead:        getEnvAsDuration("CERTIFICATION_LEAD", 5*time.Hour),
			ReservationTTL:           getEnvAsDuration("RESERVATION_TTL", 24*time.Hour),
			EventDuration:            getEnvAsDuration("EVENT_DURATION", 2*time.Hour),
			BusinessZone:             zone,
		},
		Scheduler: SchedulerConfig{
			Enabled:       getEnvAsBool("SWEEP_ENABLED", true),
			SweepInterval: getEnvAsDuration("SWEEP_INTERVAL", time.Minute),
		},
		Log: LogConfig{
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the service graph cannot be built from.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case RepositoryFile, RepositoryPostgres, RepositorySQLite:
	default:
		return fmt.Errorf("unknown REPOSITORY_TYPE %q", c.Database.Type)
	}
	if c.Lifecycle.ReservationTTL <= 0 {
		return fmt.Errorf("RESERVATION_TTL must be positive")
	}
	if c.Lifecycle.CertificationLead < 0 || c.Lifecycle.EventDuration < 0 {
		return fmt.Errorf("CERTIFICATION_LEAD and EVENT_DURATION must not be negative")
	}
	if c.Scheduler.Enabled && c.Scheduler.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.Log.Format)
	}
	return nil
}

// ParseBusinessZone accepts a fixed offset such as "-03:00" or an IANA zone
// name such as "America/Argentina/Buenos_Aires".
func ParseBusinessZone(value string) (*time.Location, error) {
	if value == "" || strings.EqualFold(value, "UTC") {
		return time.UTC, nil
	}
	if value[0] == '+' || value[0] == '-' {
		t, err := time.Parse("-07:00", value)
		if err != nil {
			return nil, fmt.Errorf("invalid BUSINESS_TZ_OFFSET %q: %w", value, err)
		}
		_, offset := t.Zone()
		return time.FixedZone("UTC"+value, offset), nil
	}
	loc, err := time.LoadLocation(value)
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_TZ_OFFSET %q: %w", value, err)
	}
	return loc, nil
}

func parseDatabaseConfig() DatabaseConfig {
	repoType := strings.ToLower(getEnv("REPOSITORY_TYPE", RepositoryFile))

	var config DatabaseConfig
	databaseURL := getEnv("DATABASE_URL", "")
	switch {
	case repoType == RepositorySQLite:
		config = DatabaseConfig{URL: getEnv("SQLITE_DSN", databaseURL)}
	case databaseURL != "":
		config = parseDatabaseURL(databaseURL)
	default:
		// Fall back to individual environment variables
		config = DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "event_ticketing"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		}
	}

	config.Type = repoType
	config.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", 25)
	config.MaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", 5)
	config.ConnMaxLifetime = getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	config.AutoMigrate = getEnvAsBool("DB_AUTO_MIGRATE", true)
	return config
}

func parseDatabaseURL(databaseURL string) DatabaseConfig {
	config := DatabaseConfig{
		URL: databaseURL,
	}

	// Parse the URL
	u, err := url.Parse(databaseURL)
	if err != nil {
		// If parsing fails, return the URL as-is
		return config
	}

	// Extract components
	config.Host = u.Hostname()
	if u.Port() != "" {
		config.Port, _ = strconv.Atoi(u.Port())
	} else {
		config.Port = 5432 // Default PostgreSQL port
	}

	if u.User != nil {
		config.User = u.User.Username()
		config.Password, _ = u.User.Password()
	}

	// Remove leading slash from path to get database name
	config.DBName = strings.TrimPrefix(u.Path, "/")

	// Parse query parameters for SSL mode
	query := u.Query()
	config.SSLMode = query.Get("sslmode")
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
