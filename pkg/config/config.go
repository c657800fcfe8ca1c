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

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	SMTP         SMTPConfig
	Turnstile    TurnstileConfig
	Analytics    AnalyticsConfig
	AutoApproval AutoApprovalConfig
	Reports      ReportsConfig
	Links        LinksConfig
}

type DatabaseConfig struct {
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
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	// LinkTokenTTL bounds the one-time approver deep-link tokens.
	LinkTokenTTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SMTPConfig configures outbound reservation mail.
type SMTPConfig struct {
	Host         string
	Port         int
	Username     string
	Password     string
	From         string
	DispatchersN int
}

// TurnstileConfig holds the Cloudflare Turnstile server secret. An empty
// secret disables verification (local development).
type TurnstileConfig struct {
	Secret  string
	Timeout time.Duration
}

// AnalyticsConfig tunes rollup caching.
type AnalyticsConfig struct {
	WeeklyCacheTTL time.Duration
}

// AutoApprovalConfig gates the automated decision collaborator.
type AutoApprovalConfig struct {
	Enabled          bool
	Endpoint         string
	APIKey           string
	SystemAdminEmail string
	Timeout          time.Duration
}

// ReportsConfig drives the periodic daily-report and cache-purge jobs.
type ReportsConfig struct {
	DailyReportCron string
	CachePurgeCron  string
	Recipients      []string
}

// LinksConfig carries the public URLs embedded in notification emails.
type LinksConfig struct {
	AdminBaseURL string
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

	cfg.Database = DatabaseConfig{
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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:       v.GetString("JWT_SECRET"),
		Expiration:   parseDuration(v.GetString("JWT_EXPIRATION"), time.Hour),
		LinkTokenTTL: parseDuration(v.GetString("JWT_LINK_TOKEN_TTL"), 72*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.SMTP = SMTPConfig{
		Host:         v.GetString("SMTP_HOST"),
		Port:         v.GetInt("SMTP_PORT"),
		Username:     v.GetString("SMTP_USERNAME"),
		Password:     v.GetString("SMTP_PASSWORD"),
		From:         v.GetString("SMTP_FROM"),
		DispatchersN: v.GetInt("SMTP_DISPATCHERS"),
	}

	cfg.Turnstile = TurnstileConfig{
		Secret:  v.GetString("TURNSTILE_SECRET"),
		Timeout: parseDuration(v.GetString("TURNSTILE_TIMEOUT"), 5*time.Second),
	}

	cfg.Analytics = AnalyticsConfig{
		WeeklyCacheTTL: parseDuration(v.GetString("ANALYTICS_WEEKLY_CACHE_TTL"), 14*24*time.Hour),
	}

	cfg.AutoApproval = AutoApprovalConfig{
		Enabled:          v.GetBool("ENABLE_AUTO_APPROVAL"),
		Endpoint:         v.GetString("AUTO_APPROVAL_ENDPOINT"),
		APIKey:           v.GetString("AUTO_APPROVAL_API_KEY"),
		SystemAdminEmail: v.GetString("AUTO_APPROVAL_SYSTEM_ADMIN"),
		Timeout:          parseDuration(v.GetString("AUTO_APPROVAL_TIMEOUT"), 15*time.Second),
	}

	cfg.Reports = ReportsConfig{
		DailyReportCron: v.GetString("DAILY_REPORT_CRON"),
		CachePurgeCron:  v.GetString("CACHE_PURGE_CRON"),
		Recipients:      splitAndTrim(v.GetString("DAILY_REPORT_RECIPIENTS")),
	}

	cfg.Links = LinksConfig{
		AdminBaseURL: v.GetString("ADMIN_BASE_URL"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "uc_reservation")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "1h")
	v.SetDefault("JWT_LINK_TOKEN_TTL", "72h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "reservation@hfiuc.org")
	v.SetDefault("SMTP_DISPATCHERS", 2)

	v.SetDefault("TURNSTILE_SECRET", "")
	v.SetDefault("TURNSTILE_TIMEOUT", "5s")

	v.SetDefault("ANALYTICS_WEEKLY_CACHE_TTL", "336h")

	v.SetDefault("ENABLE_AUTO_APPROVAL", false)
	v.SetDefault("AUTO_APPROVAL_ENDPOINT", "")
	v.SetDefault("AUTO_APPROVAL_API_KEY", "")
	v.SetDefault("AUTO_APPROVAL_SYSTEM_ADMIN", "")
	v.SetDefault("AUTO_APPROVAL_TIMEOUT", "15s")

	v.SetDefault("DAILY_REPORT_CRON", "0 20 * * *")
	v.SetDefault("CACHE_PURGE_CRON", "0 0 1 * *")
	v.SetDefault("DAILY_REPORT_RECIPIENTS", "")

	v.SetDefault("ADMIN_BASE_URL", "http://localhost:5173")
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
