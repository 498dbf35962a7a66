package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type journeyClient struct {
	t     *testing.T
	base  string
	http  *http.Client
	token string
}

func (c *journeyClient) do(method, path string, body any, headers map[string]string) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+"/api/v1"+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.Header.Get("Content-Type") == "application/json" {
		_ = json.NewDecoder(resp.Body).Decode(&env)
	}
	return resp.StatusCode, env
}

func (c *journeyClient) login(identifier, password string) string {
	c.t.Helper()
	anon := *c
	anon.token = ""
	status, env := anon.do(http.MethodPost, "/auth/login", map[string]string{
		"identifier": identifier,
		"password":   password,
	}, nil)
	require.Equal(c.t, http.StatusOK, status)
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(c.t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(c.t, out.AccessToken)
	return out.AccessToken
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestEmployeeJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig()
	cfg.DatabaseURL = dbURL
	cfg.JWTSecret = "journey-secret"
	cfg.RunMigrations = true
	cfg.RunSeed = true
	cfg.SeedAdminEmail = "admin@journey.local"
	cfg.SeedAdminPassword = "ChangeMe123!"
	cfg.SeedAdminFirstName = "Journey"
	cfg.SeedAdminLastName = "Admin"
	cfg.IdempotencyTTL = time.Hour

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	admin := &journeyClient{t: t, base: ts.URL, http: ts.Client()}
	admin.token = admin.login(cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	email := fmt.Sprintf("journey-%d@example.com", time.Now().UnixNano())
	status, env := admin.do(http.MethodPost, "/accounts", map[string]string{
		"firstName":  "Ada",
		"lastName":   "Obi",
		"email":      email,
		"hireDate":   "2025-03-01",
		"department": "Engineering",
		"position":   "Engineer",
	}, nil)
	require.Equal(t, http.StatusCreated, status)
	activation := decode[struct {
		Account struct {
			ID                   string `json:"id"`
			LoginID              string `json:"loginId"`
			MustChangeCredential bool   `json:"mustChangeCredential"`
		} `json:"account"`
		TemporaryCredential string `json:"temporaryCredential"`
	}](t, env)
	assert.True(t, activation.Account.MustChangeCredential)
	assert.Regexp(t, `^OIADOB2025\d{4}$`, activation.Account.LoginID)

	employee := &journeyClient{t: t, base: ts.URL, http: ts.Client()}
	employee.token = employee.login(activation.Account.LoginID, activation.TemporaryCredential)

	status, _ = employee.do(http.MethodPost, "/auth/change-credential", map[string]string{
		"currentCredential": activation.TemporaryCredential,
		"newCredential":     "Journey-Secret-42",
	}, nil)
	require.Equal(t, http.StatusOK, status)
	employee.token = employee.login(email, "Journey-Secret-42")

	status, _ = employee.do(http.MethodPost, "/attendance/check-in", map[string]string{"note": "on site"}, nil)
	require.Equal(t, http.StatusCreated, status)
	status, _ = employee.do(http.MethodPost, "/attendance/check-in", nil, nil)
	assert.Equal(t, http.StatusConflict, status)
	status, _ = employee.do(http.MethodPost, "/attendance/check-out", nil, nil)
	require.Equal(t, http.StatusOK, status)

	start := time.Now().UTC().AddDate(0, 1, 0)
	leavePayload := map[string]string{
		"category":  "annual",
		"startDate": start.Format(time.DateOnly),
		"endDate":   start.AddDate(0, 0, 2).Format(time.DateOnly),
		"reason":    "family trip",
	}
	idem := map[string]string{"Idempotency-Key": "journey-leave-" + activation.Account.ID}
	status, env = employee.do(http.MethodPost, "/leave/requests", leavePayload, idem)
	require.Equal(t, http.StatusCreated, status)
	submitted := decode[struct {
		ID     string `json:"id"`
		Days   int    `json:"days"`
		Status string `json:"status"`
	}](t, env)
	assert.Equal(t, 3, submitted.Days)
	assert.Equal(t, "pending", submitted.Status)

	status, env = employee.do(http.MethodPost, "/leave/requests", leavePayload, idem)
	require.Equal(t, http.StatusCreated, status)
	replayed := decode[struct {
		ID string `json:"id"`
	}](t, env)
	assert.Equal(t, submitted.ID, replayed.ID)

	status, _ = employee.do(http.MethodPost, "/leave/requests/"+submitted.ID+"/approve", nil, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = admin.do(http.MethodPost, "/leave/requests/"+submitted.ID+"/approve", map[string]string{"note": "enjoy"}, nil)
	require.Equal(t, http.StatusOK, status)
	approved := decode[struct {
		Status string `json:"status"`
	}](t, env)
	assert.Equal(t, "approved", approved.Status)

	status, _ = admin.do(http.MethodPost, "/leave/requests/"+submitted.ID+"/reject", nil, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = admin.do(http.MethodPost, "/payroll", map[string]any{
		"accountId":  activation.Account.ID,
		"month":      6,
		"year":       2025,
		"baseSalary": "5000",
		"allowances": "500",
		"deductions": "200",
		"tax":        "300",
		"netSalary":  "5000",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	status, env = employee.do(http.MethodGet, "/payroll/me/latest", nil, nil)
	require.Equal(t, http.StatusOK, status)
	latest := decode[struct {
		Month     int    `json:"month"`
		NetSalary string `json:"netSalary"`
	}](t, env)
	assert.Equal(t, 6, latest.Month)
	assert.Equal(t, "5000", latest.NetSalary)

	status, env = employee.do(http.MethodGet, "/notifications", nil, nil)
	require.Equal(t, http.StatusOK, status)
	inbox := decode[struct {
		Unread int `json:"unread"`
	}](t, env)
	assert.Equal(t, 2, inbox.Unread)

	status, _ = employee.do(http.MethodGet, "/audit/events", nil, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = admin.do(http.MethodGet, "/audit/events?action=leave.approve", nil, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = admin.do(http.MethodPost, "/accounts/"+activation.Account.ID+"/deactivate", nil, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = employee.do(http.MethodGet, "/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
