package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Data      DataConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Cache     CacheConfig
	Commands  CommandsConfig
	History   HistoryConfig
	Generator GeneratorConfig
}

// DataConfig locates the JSON document store on disk.
type DataConfig struct {
	Dir string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig tunes the optional redis read-through cache for timetable views.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// CommandsConfig tunes idempotent command replay detection.
type CommandsConfig struct {
	IdempotencyTTL      time.Duration
	IdempotencyCapacity int
}

// HistoryConfig governs retention of publish-time snapshots.
type HistoryConfig struct {
	RetentionTTL    time.Duration
	CleanupInterval time.Duration
}

// GeneratorConfig toggles the best-effort bulk timetable generator.
type GeneratorConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Data = DataConfig{Dir: v.GetString("DATA_DIR")}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_TIMETABLE_CACHE"),
		TTL:     parseDuration(v.GetString("TIMETABLE_CACHE_TTL"), 30*time.Second),
	}

	cfg.Commands = CommandsConfig{
		IdempotencyTTL:      parseDuration(v.GetString("COMMAND_IDEMPOTENCY_TTL"), 10*time.Minute),
		IdempotencyCapacity: v.GetInt("COMMAND_IDEMPOTENCY_CAPACITY"),
	}

	cfg.History = HistoryConfig{
		RetentionTTL:    parseDuration(v.GetString("HISTORY_RETENTION_TTL"), 90*24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("HISTORY_CLEANUP_INTERVAL"), 12*time.Hour),
	}

	cfg.Generator = GeneratorConfig{
		Enabled: v.GetBool("ENABLE_GENERATOR"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DATA_DIR", "./data")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_TIMETABLE_CACHE", false)
	v.SetDefault("TIMETABLE_CACHE_TTL", "30s")

	v.SetDefault("COMMAND_IDEMPOTENCY_TTL", "10m")
	v.SetDefault("COMMAND_IDEMPOTENCY_CAPACITY", 1024)

	v.SetDefault("HISTORY_RETENTION_TTL", "2160h")
	v.SetDefault("HISTORY_CLEANUP_INTERVAL", "12h")

	v.SetDefault("ENABLE_GENERATOR", false)
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
