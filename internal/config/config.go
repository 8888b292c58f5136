package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Payment  PaymentConfig
	Booking  BookingConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers           []string
	NotificationTopic string
	Enabled           bool
}

type PaymentConfig struct {
	StripeSecretKey string
	SharedSecret    string
	Currency        string
}

type BookingConfig struct {
	// HoldTTL is how long a pending ticket keeps its seats before the
	// reaper releases them. Explicit policy for the hold-expiry gap.
	HoldTTL        time.Duration
	ReaperInterval time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Username: getEnv("DB_USERNAME", "eventuser"),
			Password: getEnv("DB_PASSWORD", "eventpass"),
			Database: getEnv("DB_NAME", "eventsure"),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: KafkaConfig{
			Brokers:           []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			NotificationTopic: getEnv("KAFKA_TOPIC_NOTIFICATIONS", "user-notifications"),
			Enabled:           getEnvBool("KAFKA_ENABLED", true),
		},
		Payment: PaymentConfig{
			StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			SharedSecret:    getEnv("PAYMENT_SHARED_SECRET", ""),
			Currency:        getEnv("PAYMENT_CURRENCY", "inr"),
		},
		Booking: BookingConfig{
			HoldTTL:        time.Duration(getEnvInt("HOLD_TTL_MINUTES", 15)) * time.Minute,
			ReaperInterval: time.Duration(getEnvInt("REAPER_INTERVAL_MINUTES", 1)) * time.Minute,
		},
	}
}

// DSN builds the Postgres connection string for pgdriver.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
