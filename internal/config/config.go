// Package config loads and manages application configuration.
// Uses viper for YAML files with environment variable overrides.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	MySQL  MySQLConfig  `mapstructure:"mysql"`
	Redis  RedisConfig  `mapstructure:"redis"`
	JWT    JWTConfig    `mapstructure:"jwt"`
	Log    LogConfig    `mapstructure:"log"`
	AI     AIConfig     `mapstructure:"ai"`
	OTP    OTPConfig    `mapstructure:"otp"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int      `mapstructure:"port"` // listen port, default 8080
	Mode string   `mapstructure:"mode"` // debug / release
	CORS []string `mapstructure:"cors"` // allowed origins
}

// MySQLConfig holds database connection settings.
type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	Charset      string `mapstructure:"charset"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxLifetime  int    `mapstructure:"max_lifetime"` // seconds
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret        string        `mapstructure:"secret"` // at least 32 characters
	AccessExpire  time.Duration `mapstructure:"access_expire"`
	RefreshExpire time.Duration `mapstructure:"refresh_expire"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug/info/warn/error
	Format string `mapstructure:"format"` // json/text
}

// AIConfig holds the external model gateway settings.
type AIConfig struct {
	// GeminiAPIKey authenticates against the Gemini API. When empty
	// the assistant runs in degraded mode: every turn is persisted as
	// a status notice.
	GeminiAPIKey string `mapstructure:"gemini_api_key"`

	// Model is the Gemini model name.
	Model string `mapstructure:"model"`

	// Endpoint is the API base URL. Overridable so tests can point the
	// gateway at a local server.
	Endpoint string `mapstructure:"endpoint"`

	// Timeout bounds a single generate call.
	Timeout time.Duration `mapstructure:"timeout"`

	// MaxOutputTokens caps the generation budget per turn.
	MaxOutputTokens int `mapstructure:"max_output_tokens"`
}

// OTPConfig holds one-time password settings.
type OTPConfig struct {
	Expire         time.Duration `mapstructure:"expire"`          // code validity window
	ResendInterval time.Duration `mapstructure:"resend_interval"` // per-phone throttle
	MaxAttempts    int           `mapstructure:"max_attempts"`
}

// Load reads configuration from the given directory, falling back to
// defaults and environment variables when the file is absent.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	// Environment variables override file values; MYSQL_HOST maps to
	// mysql.host and so on.
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVariables(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing file is fine: defaults plus env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func bindEnvVariables(v *viper.Viper) {
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	v.BindEnv("mysql.host", "MYSQL_HOST")
	v.BindEnv("mysql.port", "MYSQL_PORT")
	v.BindEnv("mysql.username", "MYSQL_USERNAME")
	v.BindEnv("mysql.password", "MYSQL_PASSWORD")
	v.BindEnv("mysql.database", "MYSQL_DATABASE")

	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.username", "REDIS_USERNAME")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	v.BindEnv("jwt.secret", "JWT_SECRET")

	v.BindEnv("ai.gemini_api_key", "GEMINI_API_KEY")
	v.BindEnv("ai.model", "GEMINI_MODEL")
	v.BindEnv("ai.endpoint", "GEMINI_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetDefault("mysql.host", "localhost")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.charset", "utf8mb4")
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.max_open_conns", 100)
	v.SetDefault("mysql.max_lifetime", 3600)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 100)

	v.SetDefault("jwt.access_expire", "24h")
	v.SetDefault("jwt.refresh_expire", "168h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("ai.model", "gemini-1.5-flash")
	v.SetDefault("ai.endpoint", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("ai.timeout", "8s")
	v.SetDefault("ai.max_output_tokens", 512)

	v.SetDefault("otp.expire", "10m")
	v.SetDefault("otp.resend_interval", "1m")
	v.SetDefault("otp.max_attempts", 3)
}
