package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/auth"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/model"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/server"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/service/rerank"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/testutil"
)

// newTestServer builds a server without a database. Only requests that
// reject or complete before touching storage are exercised here; full
// request paths are covered by the service integration tests.
func newTestServer(t *testing.T, apiKeyHash string) (http.Handler, *auth.JWTManager) {
	t.Helper()

	jwtMgr, err := auth.NewJWTManager("", "", time.Hour)
	require.NoError(t, err)

	srv := server.New(server.ServerConfig{
		JWTMgr:              jwtMgr,
		RerankSvc:           rerank.New(nil, rerank.DefaultConfidence(), testutil.TestLogger()),
		Logger:              testutil.TestLogger(),
		Port:                0,
		ReadTimeout:         5 * time.Second,
		WriteTimeout:        5 * time.Second,
		Version:             "test",
		APIKeyHash:          apiKeyHash,
		MaxRequestBodyBytes: 1 << 20,
	})
	return srv.Handler(), jwtMgr
}

func TestAuthRequired(t *testing.T) {
	handler, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/v1/feedback", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, model.ErrCodeUnauthorized, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)
}

func TestAuthRejectsBadToken(t *testing.T) {
	handler, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/v1/feedback/summary", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsBadScheme(t *testing.T) {
	handler, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/v1/feedback/summary", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthTokenNotConfigured(t *testing.T) {
	handler, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/auth/token",
		strings.NewReader(`{"api_key":"some-key"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthTokenExchange(t *testing.T) {
	hash, err := auth.HashAPIKey("officer-key")
	require.NoError(t, err)
	handler, jwtMgr := newTestServer(t, hash)

	req := httptest.NewRequest(http.MethodPost, "/auth/token",
		strings.NewReader(`{"api_key":"officer-key"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.AuthTokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)

	claims, err := jwtMgr.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "officer", claims.Subject)
}

func TestAuthTokenWrongKey(t *testing.T) {
	hash, err := auth.HashAPIKey("officer-key")
	require.NoError(t, err)
	handler, _ := newTestServer(t, hash)

	req := httptest.NewRequest(http.MethodPost, "/auth/token",
		strings.NewReader(`{"api_key":"wrong-key"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitFeedbackValidation(t *testing.T) {
	handler, jwtMgr := newTestServer(t, "")
	token, _, err := jwtMgr.IssueToken("officer")
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
	}{
		{"missing reference", `{"decision":"APPROVE"}`},
		{"unknown decision", `{"reference":"2025/0001/01/HOU","decision":"pending"}`},
		{"empty decision", `{"reference":"2025/0001/01/HOU","decision":""}`},
		{"unknown field", `{"reference":"2025/0001/01/HOU","decision":"APPROVE","extra":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/feedback", strings.NewReader(tt.body))
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRerankValidation(t *testing.T) {
	handler, jwtMgr := newTestServer(t, "")
	token, _, err := jwtMgr.IssueToken("officer")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/rerank/policies",
		strings.NewReader(`{"reference":"2025/0001/01/HOU","policies":[{"id":""}]}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, model.ErrCodeValidation, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "policies[0]")
}

func TestCreateRunValidation(t *testing.T) {
	handler, jwtMgr := newTestServer(t, "")
	token, _, err := jwtMgr.IssueToken("officer")
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
	}{
		{"missing reference", `{"raw_decision":"APPROVE"}`},
		{"blank reference", `{"reference":"   ","raw_decision":"APPROVE"}`},
		{"negative duration", `{"reference":"2025/0001/01/HOU","duration_ms":-5}`},
		{"unknown field", `{"reference":"2025/0001/01/HOU","extra":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/runs", strings.NewReader(tt.body))
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRerankCasesValidation(t *testing.T) {
	handler, jwtMgr := newTestServer(t, "")
	token, _, err := jwtMgr.IssueToken("officer")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/rerank/cases",
		strings.NewReader(`{"cases":[{"reference":""}]}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, model.ErrCodeValidation, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "cases[0]")
}

func TestRerankCasesEmpty(t *testing.T) {
	handler, jwtMgr := newTestServer(t, "")
	token, _, err := jwtMgr.IssueToken("officer")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/rerank/cases",
		strings.NewReader(`{"cases":[]}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.RerankCasesResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Cases)
}

func TestRequestIDPropagation(t *testing.T) {
	handler, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/v1/feedback", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))

	var resp model.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "req-42", resp.Error.RequestID)
}

func TestRequestIDGenerated(t *testing.T) {
	handler, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/v1/feedback", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
