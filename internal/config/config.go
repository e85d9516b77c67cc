package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	ServerPort string

	JWTSecret string

	RedisURL string

	LogLevel string

	// Client side (civicctl)
	APIBaseURL string
	APIToken   string
	APITimeout time.Duration
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}
	return FromEnv(), nil
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() *Config {
	timeoutSeconds, err := strconv.Atoi(os.Getenv("API_TIMEOUT_SECONDS"))
	if err != nil || timeoutSeconds <= 0 {
		timeoutSeconds = 15
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "civicvoice"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		ServerPort: getEnv("SERVER_PORT", "8080"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		RedisURL: os.Getenv("REDIS_URL"),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		APIToken:   os.Getenv("API_TOKEN"),
		APITimeout: time.Duration(timeoutSeconds) * time.Second,
	}
}

// ValidateServer checks the settings the backend cannot start without.
func (c *Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DBUser == "" {
		return fmt.Errorf("DB_USER is required")
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
