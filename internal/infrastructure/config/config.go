package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agegraph/typegraph/internal/entities"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Log      LogConfig
	Graph    GraphConfig
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host        string
	Port        int
	MetricsPort int // Port for Prometheus metrics HTTP server
}

// CacheConfig represents type definition cache configuration
type CacheConfig struct {
	Enabled        bool
	MaxMemoryBytes int64 // Maximum memory usage in bytes (e.g., 16777216 = 16MB)
	TTLMinutes     int   // Time-to-live for cache entries in minutes
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// LogConfig represents logger configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

// Fallbacks for unset or non-positive graph settings
const (
	DefaultListPageLimit = 100
	DefaultDecodeWorkers = 8
)

// GraphConfig represents limits applied to graph queries
type GraphConfig struct {
	ListPageLimit int // Upper bound for a single listing page
	DecodeWorkers int // Concurrent row decoders per listing

	// Name used by the migrate graph commands when none is given. Optional.
	DefaultGraph string
}

// findProjectRoot finds the project root directory by looking for go.mod
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Walk up the directory tree until we find go.mod
	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in any parent directory")
		}
		dir = parent
	}
}

// InitConfig initializes viper configuration
// env: environment name (dev, test, prod)
func InitConfig(env string) error {
	if env == "" {
		env = "dev"
	}

	// .env.<env> lives next to go.mod
	projectRoot, err := findProjectRoot()
	if err != nil {
		return fmt.Errorf("failed to find project root: %w", err)
	}

	viper.SetConfigName(fmt.Sprintf(".env.%s", env))
	viper.SetConfigType("env")
	viper.AddConfigPath(projectRoot)

	// Config file is optional
	_ = viper.ReadInConfig()

	// Environment variables take precedence over config file
	viper.AutomaticEnv()

	// Server and database defaults; DB_PASSWORD has none
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", 50051)
	viper.SetDefault("METRICS_PORT", 9090)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_USER", "typegraph")
	viper.SetDefault("DB_NAME", "typegraph_"+env)
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 20)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)

	// Type definition cache
	viper.SetDefault("CACHE_ENABLED", true)
	viper.SetDefault("CACHE_MAX_MEMORY_BYTES", 16*1024*1024) // 16MB
	viper.SetDefault("CACHE_TTL_MINUTES", 5)

	// JSON logs except in dev
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	if env == "dev" {
		viper.SetDefault("LOG_FORMAT", "console")
	}

	// Graph query limits
	viper.SetDefault("GRAPH_LIST_PAGE_LIMIT", DefaultListPageLimit)
	viper.SetDefault("GRAPH_DECODE_WORKERS", DefaultDecodeWorkers)

	return nil
}

// Load loads configuration from viper
func Load() (*Config, error) {
	dbPassword := viper.GetString("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required (set via environment variable or .env file)")
	}

	config := &Config{
		Server: ServerConfig{
			Host:        viper.GetString("SERVER_HOST"),
			Port:        viper.GetInt("SERVER_PORT"),
			MetricsPort: viper.GetInt("METRICS_PORT"),
		},
		Database: DatabaseConfig{
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetInt("DB_PORT"),
			User:         viper.GetString("DB_USER"),
			Password:     dbPassword,
			Database:     viper.GetString("DB_NAME"),
			SSLMode:      viper.GetString("DB_SSLMODE"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Cache: CacheConfig{
			Enabled:        viper.GetBool("CACHE_ENABLED"),
			MaxMemoryBytes: viper.GetInt64("CACHE_MAX_MEMORY_BYTES"),
			TTLMinutes:     viper.GetInt("CACHE_TTL_MINUTES"),
		},
		Log: LogConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
		},
		Graph: GraphConfig{
			ListPageLimit: viper.GetInt("GRAPH_LIST_PAGE_LIMIT"),
			DecodeWorkers: viper.GetInt("GRAPH_DECODE_WORKERS"),
			DefaultGraph:  viper.GetString("GRAPH_DEFAULT"),
		},
	}

	// Non-positive limits fall back to the defaults
	if config.Graph.ListPageLimit <= 0 {
		config.Graph.ListPageLimit = DefaultListPageLimit
	}
	if config.Graph.DecodeWorkers <= 0 {
		config.Graph.DecodeWorkers = DefaultDecodeWorkers
	}
	// The default graph is embedded in cypher calls
	if config.Graph.DefaultGraph != "" {
		if err := entities.ValidateGraphID(config.Graph.DefaultGraph); err != nil {
			return nil, fmt.Errorf("GRAPH_DEFAULT: %w", err)
		}
	}

	return config, nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
}
