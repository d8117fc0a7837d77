package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Log      LogConfig
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Port int `env:"SERVER_PORT" envDefault:"8080"`
}

// DatabaseConfig holds the database configuration. An empty host selects the
// in-memory repository, which keeps local runs and tests free of Postgres.
type DatabaseConfig struct {
	Host       string `env:"DB_HOST"`
	Port       int    `env:"DB_PORT" envDefault:"5432"`
	Username   string `env:"DB_USERNAME" envDefault:"postgres"`
	Password   string `env:"DB_PASSWORD" envDefault:"password"`
	DBName     string `env:"DB_NAME" envDefault:"pokercashout"`
	SSLMode    string `env:"DB_SSLMODE" envDefault:"disable"`
	TestDBName string `env:"TEST_DB_NAME" envDefault:"pokercashout_test"`
}

// AuthConfig holds the authentication configuration
type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET" envDefault:"your-secret-key-here"`
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.DBName, c.SSLMode,
	)
}

// LoadConfig loads the configuration from the environment, reading a local
// .env file first when one exists.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}
