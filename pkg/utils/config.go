package utils

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Queue    QueueConfig
	Hold     HoldConfig
	Payment  PaymentConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type QueueConfig struct {
	URL string
}

type HoldConfig struct {
	TTL time.Duration
}

type PaymentConfig struct {
	ProviderTimeout time.Duration
	WebhookSecret   string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SEATMAP_CACHE_TTL_SECONDS", 60)
	viper.SetDefault("HOLD_TTL_SECONDS", 300)
	viper.SetDefault("PROVIDER_TIMEOUT_SECONDS", 10)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASS"),
			DB:       viper.GetInt("REDIS_DB"),
			CacheTTL: time.Duration(viper.GetInt("SEATMAP_CACHE_TTL_SECONDS")) * time.Second,
		},
		Queue: QueueConfig{
			URL: viper.GetString("AMQP_URL"),
		},
		Hold: HoldConfig{
			TTL: time.Duration(viper.GetInt("HOLD_TTL_SECONDS")) * time.Second,
		},
		Payment: PaymentConfig{
			ProviderTimeout: time.Duration(viper.GetInt("PROVIDER_TIMEOUT_SECONDS")) * time.Second,
			WebhookSecret:   viper.GetString("PAYMENT_WEBHOOK_SECRET"),
		},
	}

	return config, nil
}
