package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Neo4j    Neo4jConfig    `json:"neo4j"`
	Kafka    KafkaConfig    `json:"kafka"`
	Import   ImportConfig   `json:"import"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	HTTPPort     int           `json:"http_port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig holds Postgres configuration for evidence and run records.
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	Database       string        `json:"database"`
	Username       string        `json:"username"`
	Password       string        `json:"password"`
	SSLMode        string        `json:"ssl_mode"`
	MaxConnections int           `json:"max_connections"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	MigrationsPath string        `json:"migrations_path"`
}

// Neo4jConfig holds graph persistence configuration.
type Neo4jConfig struct {
	URI               string        `json:"uri"`
	Username          string        `json:"username"`
	Password          string        `json:"password"`
	Database          string        `json:"database"`
	MaxConnections    int           `json:"max_connections"`
	ConnectionTimeout time.Duration `json:"connection_timeout"`
}

// KafkaConfig holds event publishing configuration.
type KafkaConfig struct {
	Brokers        []string      `json:"brokers"`
	AnalysisTopic  string        `json:"analysis_topic"`
	WriteTimeout   time.Duration `json:"write_timeout"`
	RequiredAcks   int           `json:"required_acks"`
	AllowAutoTopic bool          `json:"allow_auto_topic"`
}

// ImportConfig holds pipeline tuning values.
type ImportConfig struct {
	MaxFileBytes      int64 `json:"max_file_bytes"`
	MaxBatchFiles     int   `json:"max_batch_files"`
	HighRiskThreshold int   `json:"high_risk_threshold"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			HTTPPort:     getEnvInt("HTTP_PORT", 8084),
			ReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:           getEnvString("DB_HOST", "localhost"),
			Port:           getEnvInt("DB_PORT", 5432),
			Database:       getEnvString("DB_NAME", "casetrace_smart_import"),
			Username:       getEnvString("DB_USER", "postgres"),
			Password:       getEnvString("DB_PASSWORD", "password"),
			SSLMode:        getEnvString("DB_SSL_MODE", "disable"),
			MaxConnections: getEnvInt("DB_MAX_CONNECTIONS", 25),
			ConnectTimeout: getEnvDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
			MigrationsPath: getEnvString("DB_MIGRATIONS_PATH", "file://migrations"),
		},
		Neo4j: Neo4jConfig{
			URI:               getEnvString("NEO4J_URI", "bolt://localhost:7687"),
			Username:          getEnvString("NEO4J_USERNAME", "neo4j"),
			Password:          getEnvString("NEO4J_PASSWORD", "password"),
			Database:          getEnvString("NEO4J_DATABASE", "neo4j"),
			MaxConnections:    getEnvInt("NEO4J_MAX_CONNECTIONS", 10),
			ConnectionTimeout: getEnvDuration("NEO4J_CONNECTION_TIMEOUT", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:        getEnvStringSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			AnalysisTopic:  getEnvString("KAFKA_ANALYSIS_TOPIC", "imports.analysis"),
			WriteTimeout:   getEnvDuration("KAFKA_WRITE_TIMEOUT", 10*time.Second),
			RequiredAcks:   getEnvInt("KAFKA_REQUIRED_ACKS", 1),
			AllowAutoTopic: getEnvBool("KAFKA_ALLOW_AUTO_TOPIC", true),
		},
		Import: ImportConfig{
			MaxFileBytes:      getEnvInt64("IMPORT_MAX_FILE_BYTES", 25<<20),
			MaxBatchFiles:     getEnvInt("IMPORT_MAX_BATCH_FILES", 50),
			HighRiskThreshold: getEnvInt("IMPORT_HIGH_RISK_THRESHOLD", 70),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
	}

	return config, config.Validate()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Neo4j.URI == "" {
		return fmt.Errorf("Neo4j URI is required")
	}

	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("Kafka brokers are required")
	}

	if c.Import.MaxFileBytes <= 0 {
		return fmt.Errorf("max file size must be positive")
	}

	if c.Import.HighRiskThreshold < 0 || c.Import.HighRiskThreshold > 100 {
		return fmt.Errorf("high risk threshold must be between 0 and 100")
	}

	return nil
}

// DatabaseDSN returns the Postgres connection string.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.Username,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
