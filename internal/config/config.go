package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	DatabaseDriver  string
	DatabaseURL     string
	MongoDBURI      string
	MongoDBPassword string
	MongoDBDatabase string

	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string

	CorsAllowedOrigins []string
	MetricsEnabled     bool
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8080"),
		Environment:       getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		DatabaseDriver:    strings.ToLower(getEnvWithDefault("DATABASE_DRIVER", DriverSQLite)),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		MongoDBURI:        os.Getenv("MONGODB_URI"),
		MongoDBPassword:   os.Getenv("MONGODB_PASSWORD"),
		MongoDBDatabase:   os.Getenv("MONGODB_DATABASE"),
		SupabaseURL:       os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:   os.Getenv("SUPABASE_URL_ANON_KEY"),
		SupabaseJWTSecret: os.Getenv("SUPABASE_JWT_SECRET"),
	}

	origins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if origins == "" {
		origins = getEnvWithDefault("FRONTEND_URL", "http://localhost:3000")
	}
	cfg.CorsAllowedOrigins = splitList(origins)

	metricsEnabled, err := strconv.ParseBool(getEnvWithDefault("METRICS_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("METRICS_ENABLED must be a boolean: %w", err)
	}
	cfg.MetricsEnabled = metricsEnabled

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseAnonKey == "" {
		return fmt.Errorf("SUPABASE_URL_ANON_KEY is required")
	}

	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabaseURL == "" {
			c.DatabaseURL = "file:eventease.db?cache=shared"
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s driver", c.DatabaseDriver)
		}
	case DriverMongo:
		if c.MongoDBURI == "" {
			return fmt.Errorf("MONGODB_URI is required for the %s driver", c.DatabaseDriver)
		}
		if strings.Contains(c.MongoDBURI, "<password>") && c.MongoDBPassword == "" {
			return fmt.Errorf("MONGODB_PASSWORD is required")
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER must be one of %s, %s, %s; got %q",
			DriverSQLite, DriverPostgres, DriverMongo, c.DatabaseDriver)
	}
	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
