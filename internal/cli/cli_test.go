package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/intake/internal/api"
	"github.com/JonMunkholm/intake/internal/core"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("INTAKE_TIME_ZONE", "UTC")
	t.Setenv("LOG_LEVEL", "error")

	cmd := New()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// =============================================================================
// submit
// =============================================================================

func TestSubmit_Accepted(t *testing.T) {
	out, err := run(t, "submit",
		"--employee-id", "7",
		"--name", "Ada Lovelace",
		"--email", "Ada@Example.com",
		"--phone", "5551234567",
		"--department", "Engineering",
		"--date-of-joining", "2024-01-02",
		"--role", "Engineer",
	)
	require.NoError(t, err)

	var resp api.SubmitResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Employee)
	assert.Equal(t, "Ada@Example.com", resp.Employee.Email)
}

func TestSubmit_Rejected(t *testing.T) {
	out, err := run(t, "submit", "--employee-id", "abc")
	require.Error(t, err)

	var resp api.SubmitResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Errors)
}

// =============================================================================
// lookup / migrate
// =============================================================================

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"missing record", []string{"lookup", "42"}, core.ErrNotFound},
		{"bad id", []string{"lookup", "x1"}, core.ErrInvalidEmployeeID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLookup_RequiresArg(t *testing.T) {
	_, err := run(t, "lookup")
	assert.Error(t, err)
}

func TestMigrate_Memory(t *testing.T) {
	_, err := run(t, "migrate")
	assert.NoError(t, err)
}

func TestRoot_BadConfig(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "cassandra")
	cmd := New()
	cmd.SetArgs([]string{"migrate"})
	cmd.SetOut(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

// =============================================================================
// Report
// =============================================================================

func TestReport(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOut  string
	}{
		{"nil", nil, 0, ""},
		{"not found", fmt.Errorf("lookup employee 4: %w", core.ErrNotFound), 1, "(Code: EMP004)"},
		{"unmapped", errors.New("something odd"), 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Equal(t, tt.wantCode, Report(&out, tt.err))
			if tt.wantOut == "" {
				assert.Empty(t, out.String())
				return
			}
			assert.Contains(t, out.String(), tt.wantOut)
		})
	}
}
