// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	BackendAPIURL   string `mapstructure:"BACKEND_API_URL"`
	BackendAPIToken string `mapstructure:"BACKEND_API_TOKEN"`

	SocialGatewayURL   string `mapstructure:"SOCIAL_GATEWAY_URL"`
	SocialGatewayToken string `mapstructure:"SOCIAL_GATEWAY_TOKEN"`

	RedisURL string `mapstructure:"REDIS_URL"`

	MinioEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket    string `mapstructure:"MINIO_BUCKET"`
	MinioPublicURL string `mapstructure:"MINIO_PUBLIC_URL"`
	MinioUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`

	ReconcileIntervalSeconds int `mapstructure:"RECONCILE_INTERVAL_SECONDS"`
	AutosaveIntervalSeconds  int `mapstructure:"AUTOSAVE_INTERVAL_SECONDS"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	TracingOTLPEndpoint string  `mapstructure:"TRACING_OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional; environment variables may carry
	// everything.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("PORT", "8390")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("BACKEND_API_URL", "http://localhost:8400")
	viper.SetDefault("BACKEND_API_TOKEN", "")
	viper.SetDefault("SOCIAL_GATEWAY_URL", "http://localhost:8410")
	viper.SetDefault("SOCIAL_GATEWAY_TOKEN", "")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	viper.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	viper.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	viper.SetDefault("MINIO_BUCKET", "feedbird-media")
	viper.SetDefault("MINIO_PUBLIC_URL", "")
	viper.SetDefault("MINIO_USE_SSL", false)
	viper.SetDefault("RECONCILE_INTERVAL_SECONDS", 60)
	viper.SetDefault("AUTOSAVE_INTERVAL_SECONDS", 30)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("TRACING_OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.BackendAPIURL == "" {
		return errors.New("BACKEND_API_URL is required")
	}
	if c.ReconcileIntervalSeconds <= 0 {
		return errors.New("RECONCILE_INTERVAL_SECONDS must be positive")
	}

	isProduction := c.Env == "production" || c.Env == "prod"

	if isProduction {
		if c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.BackendAPIToken == "" {
			return errors.New("BACKEND_API_TOKEN is required in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else {
		if len(c.JWTSecret) < 32 {
			log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
		}
	}

	return nil
}

// ReconcileInterval returns the reconciler cadence as a duration.
func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalSeconds) * time.Second
}

// AutosaveInterval returns the snapshot autosave cadence as a duration.
func (c *Config) AutosaveInterval() time.Duration {
	return time.Duration(c.AutosaveIntervalSeconds) * time.Second
}
