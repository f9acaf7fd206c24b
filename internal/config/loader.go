package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// LookupFunc resolves an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Load reads configuration from the process environment, applies defaults
// and validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom is Load with a custom variable source.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MapLookup adapts a map to LookupFunc.
func MapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

var durationType = reflect.TypeOf(time.Duration(0))

// loadStruct populates struct fields from env, descending into nested structs.
func loadStruct(v reflect.Value, lookup LookupFunc) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal, lookup); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		value := firstSet(lookup, envName, field.Tag.Get("envAlt"))
		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

func firstSet(lookup LookupFunc, names ...string) string {
	for _, name := range names {
		if name == "" {
			continue
		}
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// setField parses value into field according to the field's kind.
func setField(field reflect.Value, value string) error {
	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))

	case field.Kind() == reflect.String:
		field.SetString(value)

	case field.Kind() == reflect.Int || field.Kind() == reflect.Int64:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case field.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String:
		field.Set(reflect.ValueOf(splitList(value)))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Type())
	}

	return nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Storage validation
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			errs = append(errs, "DATABASE_URL is required when STORAGE_DRIVER=postgres")
		}
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.Database.MinConns < 0 {
			errs = append(errs, "DB_MIN_CONNS must be non-negative")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.Database.MaxConns, c.Database.MinConns))
		}
	case DriverMySQL:
		if c.MySQL.DSN == "" {
			errs = append(errs, "MYSQL_DSN is required when STORAGE_DRIVER=mysql")
		}
		if c.MySQL.MaxOpenConns <= 0 {
			errs = append(errs, "MYSQL_MAX_OPEN_CONNS must be positive")
		}
	case DriverDynamo:
		if c.Dynamo.EmployeesTable == "" || c.Dynamo.UniqueTable == "" {
			errs = append(errs, "DYNAMODB_EMPLOYEES_TABLE and DYNAMODB_UNIQUE_TABLE must be set")
		}
		if c.Dynamo.EmployeesTable == c.Dynamo.UniqueTable {
			errs = append(errs, "DYNAMODB_EMPLOYEES_TABLE and DYNAMODB_UNIQUE_TABLE must differ")
		}
	case DriverElastic:
		if c.Elastic.URL == "" {
			errs = append(errs, "ELASTIC_URL is required when STORAGE_DRIVER=elasticsearch")
		}
		if c.Elastic.EmployeesIndex == c.Elastic.EmailsIndex {
			errs = append(errs, "ELASTIC_EMPLOYEES_INDEX and ELASTIC_EMAILS_INDEX must differ")
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Sprintf("STORAGE_DRIVER (%q) must be one of: %s",
			c.Storage.Driver, strings.Join(Drivers(), ", ")))
	}
	if c.Storage.ConnectTimeout <= 0 {
		errs = append(errs, "STORAGE_CONNECT_TIMEOUT must be positive")
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, "SERVER_MAX_BODY_BYTES must be positive")
	}

	// Intake validation
	if _, err := c.Intake.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("INTAKE_TIME_ZONE (%q) is not a known time zone", c.Intake.TimeZone))
	}
	if c.Intake.MaxConcurrent <= 0 {
		errs = append(errs, "INTAKE_MAX_CONCURRENT must be positive")
	}
	if c.Intake.MaxWaitTime <= 0 {
		errs = append(errs, "INTAKE_MAX_WAIT_TIME must be positive")
	}
	if c.Intake.SubmitTimeout <= 0 {
		errs = append(errs, "INTAKE_SUBMIT_TIMEOUT must be positive")
	}

	// Rate limit validation
	if c.Rate.Enabled && (c.Rate.RequestsPerMinute <= 0 || c.Rate.SubmitLimit <= 0) {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE and RATE_LIMIT_SUBMIT must be positive when rate limiting is enabled")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Drivers lists the supported storage drivers.
func Drivers() []string {
	return []string{DriverPostgres, DriverMySQL, DriverDynamo, DriverElastic, DriverMemory}
}

// String returns a safe string representation of the config for logging.
// Connection strings are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Storage: {Driver: %q}, ", c.Storage.Driver)
	switch c.Storage.Driver {
	case DriverPostgres:
		fmt.Fprintf(&b, "Database: {URL: %s, MaxConns: %d, MinConns: %d}, ",
			mask(c.Database.URL), c.Database.MaxConns, c.Database.MinConns)
	case DriverMySQL:
		fmt.Fprintf(&b, "MySQL: {DSN: %s, MaxOpenConns: %d}, ", mask(c.MySQL.DSN), c.MySQL.MaxOpenConns)
	case DriverDynamo:
		fmt.Fprintf(&b, "Dynamo: {Region: %q, Endpoint: %q, EmployeesTable: %q, UniqueTable: %q}, ",
			c.Dynamo.Region, c.Dynamo.Endpoint, c.Dynamo.EmployeesTable, c.Dynamo.UniqueTable)
	case DriverElastic:
		fmt.Fprintf(&b, "Elastic: {URL: %s, EmployeesIndex: %q, EmailsIndex: %q}, ",
			mask(c.Elastic.URL), c.Elastic.EmployeesIndex, c.Elastic.EmailsIndex)
	}
	fmt.Fprintf(&b, "Intake: {TimeZone: %q, MaxConcurrent: %d, SubmitTimeout: %s}, ",
		c.Intake.TimeZone, c.Intake.MaxConcurrent, c.Intake.SubmitTimeout)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d, SubmitLimit: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute, c.Rate.SubmitLimit)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}

func mask(s string) string {
	if s == "" {
		return `""`
	}
	return "[MASKED]"
}
