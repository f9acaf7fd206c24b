// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverDynamo   = "dynamodb"
	DriverElastic  = "elasticsearch"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	MySQL    MySQLConfig
	Dynamo   DynamoConfig
	Elastic  ElasticConfig
	Intake   IntakeConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`

	// MaxBodyBytes caps the size of a submission body (default: 64KB)
	MaxBodyBytes int64 `env:"SERVER_MAX_BODY_BYTES" default:"65536"`
}

// StorageConfig selects the storage collaborator.
type StorageConfig struct {
	// Driver is one of postgres, mysql, dynamodb, elasticsearch, memory (default: postgres)
	Driver string `env:"STORAGE_DRIVER" default:"postgres"`

	// ConnectTimeout bounds the startup connectivity check (default: 10s)
	ConnectTimeout time.Duration `env:"STORAGE_CONNECT_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required for the postgres driver)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// MySQLConfig holds MySQL connection settings.
type MySQLConfig struct {
	// DSN is a go-sql-driver DSN, e.g. user:pass@tcp(localhost:3306)/employees
	DSN string `env:"MYSQL_DSN"`

	// MaxOpenConns caps open connections (default: 20)
	MaxOpenConns int `env:"MYSQL_MAX_OPEN_CONNS" default:"20"`

	// MaxIdleConns caps idle connections (default: 4)
	MaxIdleConns int `env:"MYSQL_MAX_IDLE_CONNS" default:"4"`

	// ConnMaxLifetime is the maximum lifetime of a connection (default: 1h)
	ConnMaxLifetime time.Duration `env:"MYSQL_CONN_MAX_LIFETIME" default:"1h"`
}

// DynamoConfig holds DynamoDB settings.
type DynamoConfig struct {
	// Region overrides the SDK's region resolution
	Region string `env:"DYNAMODB_REGION" envAlt:"AWS_REGION"`

	// Endpoint points the client at DynamoDB Local or LocalStack
	Endpoint string `env:"DYNAMODB_ENDPOINT"`

	// EmployeesTable holds one item per employee (default: employees)
	EmployeesTable string `env:"DYNAMODB_EMPLOYEES_TABLE" default:"employees"`

	// UniqueTable holds one item per claimed unique value (default: employee_unique_constraints)
	UniqueTable string `env:"DYNAMODB_UNIQUE_TABLE" default:"employee_unique_constraints"`
}

// ElasticConfig holds Elasticsearch settings.
type ElasticConfig struct {
	// URL is the cluster address (default: http://localhost:9200)
	URL string `env:"ELASTIC_URL" default:"http://localhost:9200"`

	// Sniff enables cluster node discovery (default: false)
	Sniff bool `env:"ELASTIC_SNIFF" default:"false"`

	// EmployeesIndex holds one document per employee id (default: employees)
	EmployeesIndex string `env:"ELASTIC_EMPLOYEES_INDEX" default:"employees"`

	// EmailsIndex holds one document per claimed email (default: employee_emails)
	EmailsIndex string `env:"ELASTIC_EMAILS_INDEX" default:"employee_emails"`
}

// IntakeConfig holds submission processing settings.
type IntakeConfig struct {
	// TimeZone decides which calendar day is "today" for date of joining (default: Local)
	TimeZone string `env:"INTAKE_TIME_ZONE" envAlt:"TZ" default:"Local"`

	// MaxConcurrent is the maximum number of parallel store writes (default: 20)
	MaxConcurrent int `env:"INTAKE_MAX_CONCURRENT" default:"20"`

	// MaxWaitTime is how long a submission waits for a write slot (default: 5s)
	MaxWaitTime time.Duration `env:"INTAKE_MAX_WAIT_TIME" default:"5s"`

	// SubmitTimeout bounds the storage work of one submission (default: 10s)
	SubmitTimeout time.Duration `env:"INTAKE_SUBMIT_TIMEOUT" default:"10s"`
}

// Location resolves TimeZone.
func (c *IntakeConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.TimeZone)
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// SubmitLimit is requests per minute for submission endpoints (default: 20)
	SubmitLimit int `env:"RATE_LIMIT_SUBMIT" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// AllowedOrigins lists origins allowed to call the JSON API cross-origin
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
