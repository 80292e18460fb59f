package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultEnvFile = ".env"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	CORS        CORSConfig
	Log         LogConfig
	Sync        SyncConfig
	Interpreter InterpreterConfig
	Store       StoreConfig
	Metrics     MetricsConfig
}

type DatabaseConfig struct {
	Enabled      bool
	AutoMigrate  bool
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled         bool
	Host            string
	Port            int
	Password        string
	DB              int
	SnapshotKey     string
	RevisionChannel string
	SnapshotTTL     time.Duration
}

// AuthConfig validates bearer tokens minted by the external identity provider.
type AuthConfig struct {
	Enabled   bool
	JWTSecret string
	Issuer    string
	Audience  string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SyncConfig drives the remote sync adapter.
type SyncConfig struct {
	Enabled       bool
	RemoteURL     string
	RemoteToken   string
	Interval      time.Duration
	Cron          string
	Timeout       time.Duration
	OnStart       bool
	WorkerRetries int
}

// Schedule returns the cron spec for periodic refreshes.
func (c SyncConfig) Schedule() string {
	if spec := strings.TrimSpace(c.Cron); spec != "" {
		return spec
	}
	return fmt.Sprintf("@every %s", c.Interval)
}

// InterpreterConfig points at the mutation interpreter service.
type InterpreterConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Configured reports whether chat requests can be interpreted.
func (c InterpreterConfig) Configured() bool {
	return strings.TrimSpace(c.URL) != ""
}

// StoreConfig controls persistence of the client event store.
type StoreConfig struct {
	SnapshotPath string
	WriteThrough bool
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	return LoadFile(defaultEnvFile)
}

// LoadFile reads configuration from the environment and the given env file if present.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		path = defaultEnvFile
	}
	_ = godotenv.Load(path)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Enabled:      v.GetBool("DB_ENABLED"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:         v.GetBool("REDIS_ENABLED"),
		Host:            v.GetString("REDIS_HOST"),
		Port:            v.GetInt("REDIS_PORT"),
		Password:        v.GetString("REDIS_PASSWORD"),
		DB:              v.GetInt("REDIS_DB"),
		SnapshotKey:     v.GetString("REDIS_SNAPSHOT_KEY"),
		RevisionChannel: v.GetString("REDIS_REVISION_CHANNEL"),
		SnapshotTTL:     parseDuration(v.GetString("REDIS_SNAPSHOT_TTL"), 24*time.Hour),
	}

	cfg.Auth = AuthConfig{
		Enabled:   v.GetBool("AUTH_ENABLED"),
		JWTSecret: v.GetString("AUTH_JWT_SECRET"),
		Issuer:    v.GetString("AUTH_ISSUER"),
		Audience:  v.GetString("AUTH_AUDIENCE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Sync = SyncConfig{
		Enabled:       v.GetBool("SYNC_ENABLED"),
		RemoteURL:     v.GetString("REMOTE_EVENTS_URL"),
		RemoteToken:   v.GetString("REMOTE_EVENTS_TOKEN"),
		Interval:      parseDuration(v.GetString("SYNC_INTERVAL"), time.Minute),
		Cron:          v.GetString("SYNC_CRON"),
		Timeout:       parseDuration(v.GetString("SYNC_TIMEOUT"), 10*time.Second),
		OnStart:       v.GetBool("SYNC_ON_START"),
		WorkerRetries: v.GetInt("SYNC_WORKER_RETRIES"),
	}

	cfg.Interpreter = InterpreterConfig{
		URL:     v.GetString("INTERPRETER_URL"),
		APIKey:  v.GetString("INTERPRETER_API_KEY"),
		Timeout: parseDuration(v.GetString("INTERPRETER_TIMEOUT"), 30*time.Second),
	}

	cfg.Store = StoreConfig{
		SnapshotPath: v.GetString("STORE_SNAPSHOT_PATH"),
		WriteThrough: v.GetBool("CHAT_WRITE_THROUGH"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.Sync.Enabled && strings.TrimSpace(c.Sync.RemoteURL) == "" {
		return errors.New("SYNC_ENABLED requires REMOTE_EVENTS_URL")
	}
	if c.Sync.Interval <= 0 && strings.TrimSpace(c.Sync.Cron) == "" {
		return errors.New("SYNC_INTERVAL must be positive")
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return errors.New("AUTH_ENABLED requires AUTH_JWT_SECRET")
	}
	if c.Store.WriteThrough && !c.Database.Enabled {
		return errors.New("CHAT_WRITE_THROUGH requires DB_ENABLED")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "chatcal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_SNAPSHOT_KEY", "chatcal:store:snapshot")
	v.SetDefault("REDIS_REVISION_CHANNEL", "chatcal:store:revisions")
	v.SetDefault("REDIS_SNAPSHOT_TTL", "24h")

	v.SetDefault("AUTH_ENABLED", false)
	v.SetDefault("AUTH_JWT_SECRET", "")
	v.SetDefault("AUTH_ISSUER", "")
	v.SetDefault("AUTH_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SYNC_ENABLED", false)
	v.SetDefault("REMOTE_EVENTS_URL", "")
	v.SetDefault("REMOTE_EVENTS_TOKEN", "")
	v.SetDefault("SYNC_INTERVAL", "1m")
	v.SetDefault("SYNC_CRON", "")
	v.SetDefault("SYNC_TIMEOUT", "10s")
	v.SetDefault("SYNC_ON_START", true)
	v.SetDefault("SYNC_WORKER_RETRIES", 3)

	v.SetDefault("INTERPRETER_URL", "")
	v.SetDefault("INTERPRETER_API_KEY", "")
	v.SetDefault("INTERPRETER_TIMEOUT", "30s")

	v.SetDefault("STORE_SNAPSHOT_PATH", "./data/events.json")
	v.SetDefault("CHAT_WRITE_THROUGH", false)
	v.SetDefault("ENABLE_METRICS", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
