package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string   `mapstructure:"PORT"`
	Env                string   `mapstructure:"ENV"`
	DatabaseURL        string   `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32    `mapstructure:"DB_MIN_CONNS"`
	SecretKey          string   `mapstructure:"SECRET_KEY"`
	SessionTTLHours    int      `mapstructure:"SESSION_TTL_HOURS"`
	CORSOrigins        []string `mapstructure:"CORS_ORIGINS"`
	ClinicTimezone     string   `mapstructure:"CLINIC_TIMEZONE"`
	RateLimitRPS       float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int      `mapstructure:"RATE_LIMIT_BURST"`
	ShiftMaxOpenHours  int      `mapstructure:"SHIFT_MAX_OPEN_HOURS"`
	ShiftAutoCloseCron string   `mapstructure:"SHIFT_AUTO_CLOSE_CRON"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("SESSION_TTL_HOURS", 12)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("CLINIC_TIMEZONE", "Asia/Dhaka")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("SHIFT_MAX_OPEN_HOURS", 24)
	v.SetDefault("SHIFT_AUTO_CLOSE_CRON", "*/30 * * * *")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("SECRET_KEY")
	v.BindEnv("SESSION_TTL_HOURS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("CLINIC_TIMEZONE")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("SHIFT_MAX_OPEN_HOURS")
	v.BindEnv("SHIFT_AUTO_CLOSE_CRON")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() && cfg.SecretKey == "" {
		log.Println("WARNING: SECRET_KEY not set; using an insecure development key.")
		log.Println("WARNING: Set SECRET_KEY before deploying this configuration.")
		cfg.SecretKey = "dev-secret-key-do-not-use-in-production"
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// a real SECRET_KEY must be present so session tokens cannot be forged.
func (c *Config) Validate() error {
	if !c.IsDev() {
		if c.SecretKey == "" {
			return fmt.Errorf("SECRET_KEY is required when ENV=%q", c.Env)
		}
		if len(c.SecretKey) < 32 {
			return fmt.Errorf("SECRET_KEY must be at least 32 characters, got %d", len(c.SecretKey))
		}
	}
	if c.SessionTTLHours <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive, got %d", c.SessionTTLHours)
	}
	if c.ShiftMaxOpenHours <= 0 {
		return fmt.Errorf("SHIFT_MAX_OPEN_HOURS must be positive, got %d", c.ShiftMaxOpenHours)
	}
	if c.ClinicTimezone == "" {
		return fmt.Errorf("CLINIC_TIMEZONE is required")
	}
	return nil
}
