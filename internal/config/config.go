/**
 * @description
 * This file handles configuration management for the dashboard-service.
 * It uses the 'viper' library to load configuration from environment
 * variables. The two auth-service credentials are hard requirements: the
 * service refuses to start without them.
 */
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	ServerPort           string `mapstructure:"SERVER_PORT"`
	DatabaseURL          string `mapstructure:"DATABASE_URL"`
	RedisURL             string `mapstructure:"REDIS_URL"`
	RabbitMQURL          string `mapstructure:"RABBITMQ_URL"`
	AuthAPIBaseURL       string `mapstructure:"AUTH_API_BASE_URL"`
	AuthAPIKey           string `mapstructure:"AUTH_API_KEY"`
	AuthJWKSURL          string `mapstructure:"AUTH_JWKS_URL"`
	LoginRedirectURL     string `mapstructure:"LOGIN_REDIRECT_URL"`
	FixturesDir          string `mapstructure:"FIXTURES_DIR"`
	ExchangeRatesURL     string `mapstructure:"EXCHANGE_RATES_URL"`
	RatesRefreshSchedule string `mapstructure:"RATES_REFRESH_SCHEDULE"`
	RatesCacheTTLMinutes int    `mapstructure:"RATES_CACHE_TTL_MINUTES"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOGIN_REDIRECT_URL", "/login")
	viper.SetDefault("FIXTURES_DIR", "data")
	viper.SetDefault("EXCHANGE_RATES_URL", "https://open.er-api.com/v6/latest/USD")
	viper.SetDefault("RATES_REFRESH_SCHEDULE", "*/30 * * * *") // Every 30 minutes.
	viper.SetDefault("RATES_CACHE_TTL_MINUTES", 45)
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("AUTH_API_BASE_URL")
	_ = viper.BindEnv("AUTH_API_KEY")
	_ = viper.BindEnv("AUTH_JWKS_URL")
	_ = viper.BindEnv("LOGIN_REDIRECT_URL")
	_ = viper.BindEnv("FIXTURES_DIR")
	_ = viper.BindEnv("EXCHANGE_RATES_URL")
	_ = viper.BindEnv("RATES_REFRESH_SCHEDULE")
	_ = viper.BindEnv("RATES_CACHE_TTL_MINUTES")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// The auth-service credentials have no workable default. Everything else
	// degrades (no Redis means no cache, no MQ means no events), but without
	// these two the confirmation flow cannot make a single call.
	if strings.TrimSpace(config.AuthAPIBaseURL) == "" {
		return nil, fmt.Errorf("required configuration AUTH_API_BASE_URL is not set")
	}
	if strings.TrimSpace(config.AuthAPIKey) == "" {
		return nil, fmt.Errorf("required configuration AUTH_API_KEY is not set")
	}

	if config.RatesCacheTTLMinutes <= 0 {
		config.RatesCacheTTLMinutes = 45
	}

	return &config, nil
}
