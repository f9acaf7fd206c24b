package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/intake/internal/api"
	"github.com/JonMunkholm/intake/internal/config"
	"github.com/JonMunkholm/intake/internal/core"
	"github.com/JonMunkholm/intake/internal/store/memory"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, env map[string]string) (*Server, *memory.Store) {
	t.Helper()
	vars := map[string]string{
		"STORAGE_DRIVER":     "memory",
		"INTAKE_TIME_ZONE":   "UTC",
		"RATE_LIMIT_ENABLED": "false",
	}
	for k, v := range env {
		vars[k] = v
	}
	cfg, err := config.LoadFrom(config.MapLookup(vars))
	require.NoError(t, err)

	store := memory.New()
	svc := core.NewService(store,
		core.WithValidator(core.NewValidator(
			core.WithClock(func() time.Time { return fixedNow }),
			core.WithLocation(time.UTC),
		)),
	)
	s := NewServer(svc, cfg)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s, store
}

func do(s *Server, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

const adaJSON = `{"employeeId":"1","name":"Ada Lovelace","email":"ada@example.com",
"phone":"5551234567","department":"Engineering","dateOfJoining":"2024-01-02","role":"Engineer"}`

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

func decodeSubmit(t *testing.T, rec *httptest.ResponseRecorder) api.SubmitResponse {
	t.Helper()
	var resp api.SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// =============================================================================
// POST /api/employees
// =============================================================================

func TestSubmit_Accepted(t *testing.T) {
	s, store := newTestServer(t, nil)

	rec := do(s, http.MethodPost, "/api/employees", adaJSON, jsonHeaders)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeSubmit(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, core.OutcomeAccepted, resp.Outcome)
	assert.Equal(t, "Employee added successfully!", resp.Message)
	assert.NotEmpty(t, resp.SubmissionID)
	require.NotNil(t, resp.Employee)
	assert.Equal(t, int64(1), resp.Employee.EmployeeID)
	assert.Equal(t, 1, store.Len())
}

func TestSubmit_Conflict(t *testing.T) {
	s, _ := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, do(s, http.MethodPost, "/api/employees", adaJSON, jsonHeaders).Code)

	dup := strings.Replace(adaJSON, "ada@example.com", "other@example.com", 1)
	rec := do(s, http.MethodPost, "/api/employees", dup, jsonHeaders)
	assert.Equal(t, http.StatusConflict, rec.Code)

	resp := decodeSubmit(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "Employee ID or Email already exists", resp.Message)
	assert.Equal(t, "EMP001", resp.Code)
}

func TestSubmit_Rejected(t *testing.T) {
	s, store := newTestServer(t, nil)

	bad := strings.Replace(adaJSON, "ada@example.com", "not-an-email", 1)
	rec := do(s, http.MethodPost, "/api/employees", bad, jsonHeaders)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeSubmit(t, rec)
	assert.Equal(t, core.OutcomeRejected, resp.Outcome)
	assert.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors, core.FieldEmail)
	assert.Equal(t, 0, store.Len())
}

func TestSubmit_MalformedBody(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(s, http.MethodPost, "/api/employees", `{"employeeId":`, jsonHeaders)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "REQ004", resp.Code)
}

func TestSubmit_BodyTooLarge(t *testing.T) {
	s, _ := newTestServer(t, map[string]string{"SERVER_MAX_BODY_BYTES": "32"})

	rec := do(s, http.MethodPost, "/api/employees", adaJSON, jsonHeaders)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// GET /api/employees/{employeeID}
// =============================================================================

func TestGetEmployee(t *testing.T) {
	s, _ := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, do(s, http.MethodPost, "/api/employees", adaJSON, jsonHeaders).Code)

	rec := do(s, http.MethodGet, "/api/employees/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var emp api.EmployeeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &emp))
	assert.Equal(t, "Ada Lovelace", emp.Name)
	assert.Equal(t, "2024-01-02", emp.DateOfJoining)

	tests := []struct {
		path string
		want int
		code string
	}{
		{"/api/employees/2", http.StatusNotFound, "EMP004"},
		{"/api/employees/abc", http.StatusBadRequest, "EMP005"},
	}
	for _, tt := range tests {
		rec := do(s, http.MethodGet, tt.path, "", nil)
		assert.Equal(t, tt.want, rec.Code, tt.path)

		var resp api.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, tt.code, resp.Code, tt.path)
	}
}

// =============================================================================
// Rules / normalize
// =============================================================================

func TestRules(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(s, http.MethodGet, "/api/rules", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.RulesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Fields, 7)
	assert.Equal(t, "2024-06-15", resp.Today)
	assert.Equal(t, []string{"HR", "Engineering", "Marketing"}, resp.Departments)
}

func TestNormalize(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(s, http.MethodPost, "/api/normalize", `{"field":"phone","previous":"","value":"(555) 123-4567"}`, jsonHeaders)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.NormalizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "5551234567", resp.Value)

	rec = do(s, http.MethodPost, "/api/normalize", `{"field":"salary","value":"1"}`, jsonHeaders)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// HTML form
// =============================================================================

func adaForm() url.Values {
	return url.Values{
		core.FieldEmployeeID:    {"1"},
		core.FieldName:          {"Ada Lovelace"},
		core.FieldEmail:         {"ada@example.com"},
		core.FieldPhone:         {"5551234567"},
		core.FieldDepartment:    {"Engineering"},
		core.FieldDateOfJoining: {"2024-01-02"},
		core.FieldRole:          {"Engineer"},
	}
}

var formHeaders = map[string]string{"Content-Type": "application/x-www-form-urlencoded"}

func TestForm_Get(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(s, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `name="employeeId"`)
	assert.Contains(t, rec.Body.String(), `max="2024-06-15"`)
}

func TestForm_SubmitAcceptedResets(t *testing.T) {
	s, store := newTestServer(t, nil)

	rec := do(s, http.MethodPost, "/", adaForm().Encode(), formHeaders)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Employee added successfully!")
	assert.NotContains(t, body, `value="ada@example.com"`)
	assert.Equal(t, 1, store.Len())
}

func TestForm_SubmitRejectedKeepsValues(t *testing.T) {
	s, _ := newTestServer(t, nil)

	form := adaForm()
	form.Set(core.FieldDateOfJoining, "2024-06-16")
	rec := do(s, http.MethodPost, "/", form.Encode(), formHeaders)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Please correct the highlighted fields")
	assert.Contains(t, body, "Date of joining cannot be in the future")
	assert.Contains(t, body, `value="ada@example.com"`)
}

// =============================================================================
// Health / middleware
// =============================================================================

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(s, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "memory", resp.Storage)
	assert.Equal(t, 20, resp.Writes.MaxConcurrent)
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(s, http.MethodGet, "/", "", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t, map[string]string{"CORS_ALLOWED_ORIGINS": "https://hr.example.com"})

	rec := do(s, http.MethodOptions, "/api/employees", "", map[string]string{
		"Origin":                        "https://hr.example.com",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, "https://hr.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(s, http.MethodGet, "/api/rules", "", map[string]string{"Origin": "https://evil.example.com"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubmitRateLimit(t *testing.T) {
	s, _ := newTestServer(t, map[string]string{
		"RATE_LIMIT_ENABLED": "true",
		"RATE_LIMIT_SUBMIT":  "2",
	})

	for i := 0; i < 2; i++ {
		rec := do(s, http.MethodPost, "/api/employees", `{}`, jsonHeaders)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec := do(s, http.MethodPost, "/api/employees", `{}`, jsonHeaders)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "RATE001", resp.Code)

	// Reads are not counted against the submission limit.
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/api/rules", "", nil).Code)
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.Stop()

	assert.True(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("1.1.1.1"))
	assert.False(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("2.2.2.2"))

	rl.Stop()
	rl.Stop()
}
