package config

import (
	"strings"
	"testing"
	"time"
)

func load(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	return LoadFrom(MapLookup(env))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, map[string]string{"DATABASE_URL": "postgres://localhost/test"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Storage.Driver != DriverPostgres {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, DriverPostgres)
	}
	if cfg.Intake.MaxConcurrent != 20 {
		t.Errorf("Intake.MaxConcurrent = %d, want %d", cfg.Intake.MaxConcurrent, 20)
	}
	if cfg.Intake.SubmitTimeout != 10*time.Second {
		t.Errorf("Intake.SubmitTimeout = %v, want %v", cfg.Intake.SubmitTimeout, 10*time.Second)
	}
	if cfg.Dynamo.UniqueTable != "employee_unique_constraints" {
		t.Errorf("Dynamo.UniqueTable = %q", cfg.Dynamo.UniqueTable)
	}
	if cfg.Elastic.EmailsIndex != "employee_emails" {
		t.Errorf("Elastic.EmailsIndex = %q", cfg.Elastic.EmailsIndex)
	}
	if cfg.Rate.RequestsPerMinute != 100 {
		t.Errorf("Rate.RequestsPerMinute = %d, want %d", cfg.Rate.RequestsPerMinute, 100)
	}
	if len(cfg.Security.AllowedOrigins) != 2 {
		t.Errorf("Security.AllowedOrigins = %v, want 2 defaults", cfg.Security.AllowedOrigins)
	}
}

func TestLoad_FromProcessEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("SERVER_PORT", "9191")
	t.Setenv("INTAKE_TIME_ZONE", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191", cfg.Server.Port)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	cfg, err := load(t, map[string]string{
		"DATABASE_URL":          "postgres://localhost/test",
		"SERVER_PORT":           "9090",
		"INTAKE_MAX_CONCURRENT": "5",
		"INTAKE_MAX_WAIT_TIME":  "250ms",
		"LOG_LEVEL":             "debug",
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Intake.MaxConcurrent != 5 {
		t.Errorf("Intake.MaxConcurrent = %d, want %d", cfg.Intake.MaxConcurrent, 5)
	}
	if cfg.Intake.MaxWaitTime != 250*time.Millisecond {
		t.Errorf("Intake.MaxWaitTime = %v, want 250ms", cfg.Intake.MaxWaitTime)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	cfg, err := load(t, map[string]string{
		"DB_URL": "postgres://localhost/alttest",
		"PORT":   "3001",
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.URL != "postgres://localhost/alttest" {
		t.Errorf("Database.URL = %q, want %q", cfg.Database.URL, "postgres://localhost/alttest")
	}
	if cfg.Server.Port != 3001 {
		t.Errorf("Server.Port = %d, want 3001", cfg.Server.Port)
	}
}

func TestLoad_PrimaryWinsOverAlt(t *testing.T) {
	cfg, err := load(t, map[string]string{
		"DATABASE_URL": "postgres://primary",
		"DB_URL":       "postgres://alt",
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.URL != "postgres://primary" {
		t.Errorf("Database.URL = %q, want primary", cfg.Database.URL)
	}
}

func TestLoad_DriverRequirements(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"postgres needs url", map[string]string{}, "DATABASE_URL is required"},
		{"mysql needs dsn", map[string]string{"STORAGE_DRIVER": "mysql"}, "MYSQL_DSN is required"},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "sqlite"}, "STORAGE_DRIVER"},
		{"elastic indexes differ", map[string]string{
			"STORAGE_DRIVER":          "elasticsearch",
			"ELASTIC_EMPLOYEES_INDEX": "same",
			"ELASTIC_EMAILS_INDEX":    "same",
		}, "must differ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.env)
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_DriversWithoutURL(t *testing.T) {
	for _, driver := range []string{DriverMemory, DriverDynamo, DriverElastic} {
		if _, err := load(t, map[string]string{"STORAGE_DRIVER": driver}); err != nil {
			t.Errorf("driver %s: Load() error = %v", driver, err)
		}
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := load(t, map[string]string{
		"STORAGE_DRIVER":        "memory",
		"INTAKE_SUBMIT_TIMEOUT": "soon",
	})
	if err == nil || !strings.Contains(err.Error(), "INTAKE_SUBMIT_TIMEOUT") {
		t.Errorf("error = %v, want invalid duration for INTAKE_SUBMIT_TIMEOUT", err)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	cfg, err := load(t, map[string]string{
		"STORAGE_DRIVER":       "memory",
		"TRUSTED_PROXIES":      "10.0.0.0/8, 172.16.0.0/12 ,,192.168.0.0/16",
		"CORS_ALLOWED_ORIGINS": "https://hr.example.com",
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if len(cfg.Security.TrustedProxies) != len(want) {
		t.Fatalf("TrustedProxies = %v, want %v", cfg.Security.TrustedProxies, want)
	}
	for i := range want {
		if cfg.Security.TrustedProxies[i] != want[i] {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.Security.TrustedProxies[i], want[i])
		}
	}
	if len(cfg.Security.AllowedOrigins) != 1 || cfg.Security.AllowedOrigins[0] != "https://hr.example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.Security.AllowedOrigins)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	_, err := load(t, map[string]string{
		"STORAGE_DRIVER":   "memory",
		"SERVER_PORT":      "70000",
		"LOG_LEVEL":        "loud",
		"INTAKE_TIME_ZONE": "Mars/Olympus",
	})
	if err == nil {
		t.Fatal("Load() should fail")
	}
	for _, want := range []string{"SERVER_PORT", "LOG_LEVEL", "INTAKE_TIME_ZONE"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestValidate_MaxConnsLessThanMinConns(t *testing.T) {
	_, err := load(t, map[string]string{
		"DATABASE_URL": "postgres://localhost/test",
		"DB_MAX_CONNS": "2",
		"DB_MIN_CONNS": "5",
	})
	if err == nil || !strings.Contains(err.Error(), "DB_MAX_CONNS") {
		t.Errorf("error = %v, want DB_MAX_CONNS complaint", err)
	}
}

func TestIntakeLocation(t *testing.T) {
	c := IntakeConfig{TimeZone: "UTC"}
	loc, err := c.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("Location() = %v, %v; want UTC", loc, err)
	}

	c.TimeZone = ""
	if loc, _ := c.Location(); loc != time.Local {
		t.Errorf("empty TimeZone = %v, want Local", loc)
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"", 3000, ":3000"},
		{"127.0.0.1", 443, "127.0.0.1:443"},
	}
	for _, tt := range tests {
		c := ServerConfig{Host: tt.host, Port: tt.port}
		if got := c.Addr(); got != tt.want {
			t.Errorf("Addr() = %q, want %q", got, tt.want)
		}
	}
}

func TestConfigString_MasksSecrets(t *testing.T) {
	cfg, err := load(t, map[string]string{"DATABASE_URL": "postgres://user:secret@db/employees"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s := cfg.String()
	if strings.Contains(s, "secret") {
		t.Errorf("String() leaks credentials: %s", s)
	}
	if !strings.Contains(s, "[MASKED]") {
		t.Errorf("String() = %s, want masked URL", s)
	}

	cfg.Storage.Driver = DriverMySQL
	cfg.MySQL.DSN = "root:hunter2@tcp(db:3306)/employees"
	if strings.Contains(cfg.String(), "hunter2") {
		t.Error("String() leaks MySQL DSN")
	}
}
