package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quizplatform/internal/config"
	"quizplatform/internal/database"
	"quizplatform/internal/domain"
	"quizplatform/internal/modules/auth"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type suite struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
}

type apiResponse struct {
	OK           bool           `json:"ok"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	User         map[string]any `json:"user"`
	Results      []struct {
		ClientAttemptID string `json:"client_attempt_id"`
		Status          string `json:"status"`
		AttemptID       *int64 `json:"attempt_id"`
	} `json:"results"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func setupSuite(t *testing.T) *suite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(fmt.Sprintf("file:router_%s?mode=memory&cache=shared", name), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	cfg := &config.Config{
		AppEnv:              "test",
		AccessTTL:           15 * time.Minute,
		RefreshTTL:          24 * time.Hour,
		TokenHashPepper:     "pepper",
		APIRateLimit:        5,
		APIRateWindow:       time.Minute,
		LoginRateLimit:      5,
		LoginRateWindow:     15 * time.Minute,
		OfflineSyncMaxBatch: 10,
	}

	s := &suite{
		t:      t,
		router: NewRouter(Deps{DB: db, Redis: rdb, Config: cfg, Log: zap.NewNop()}),
		db:     db,
	}
	return s
}

func (s *suite) createUser(email string, role domain.UserRole) *domain.User {
	s.t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(s.t, err)
	u := &domain.User{Email: email, PasswordHash: hash, Name: "Test", Role: role, IsActive: true}
	require.NoError(s.t, s.db.Create(u).Error)
	return u
}

func (s *suite) request(method, path, bearer string, body any) (int, apiResponse) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out apiResponse
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func (s *suite) login(email string) apiResponse {
	s.t.Helper()
	code, res := s.request(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": "password123"})
	require.Equal(s.t, http.StatusOK, code)
	require.True(s.t, res.OK)
	return res
}

func TestRouter_LoginRefreshReuseFlow(t *testing.T) {
	s := setupSuite(t)
	s.createUser("student@example.com", domain.RoleUser)

	first := s.login("student@example.com")
	assert.Equal(t, "Bearer", first.TokenType)
	assert.NotEmpty(t, first.AccessToken)

	code, me := s.request(http.MethodGet, "/api/v1/auth/me", first.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "student@example.com", me.User["email"])

	code, second := s.request(http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": first.RefreshToken})
	require.Equal(t, http.StatusOK, code)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	code, reused := s.request(http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": first.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, reused.OK)
	assert.Equal(t, "AUTH_TOKEN_REUSED", reused.Error.Code)

	code, res := s.request(http.MethodGet, "/api/v1/auth/me", second.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "TOKEN_REVOKED", res.Error.Code)

	code, res = s.request(http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": second.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "TOKEN_REVOKED", res.Error.Code)
}

func TestRouter_LoginErrors(t *testing.T) {
	s := setupSuite(t)
	blocked := s.createUser("blocked@example.com", domain.RoleUser)
	require.NoError(t, s.db.Model(blocked).Update("is_blocked", true).Error)

	code, res := s.request(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "nobody@example.com", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "AUTH_INVALID_CREDENTIALS", res.Error.Code)

	code, res = s.request(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "blocked@example.com", "password": "password123"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "AUTH_USER_BLOCKED", res.Error.Code)

	code, res = s.request(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
}

func TestRouter_RefreshTokenIsNotABearer(t *testing.T) {
	s := setupSuite(t)
	s.createUser("student@example.com", domain.RoleUser)
	pair := s.login("student@example.com")

	code, res := s.request(http.MethodGet, "/api/v1/auth/me", pair.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "WRONG_TOKEN_TYPE", res.Error.Code)
}

func TestRouter_LogoutIsIdempotent(t *testing.T) {
	s := setupSuite(t)
	s.createUser("student@example.com", domain.RoleUser)
	pair := s.login("student@example.com")

	body := gin.H{"refresh_token": pair.RefreshToken}
	code, _ := s.request(http.MethodPost, "/api/v1/auth/logout", pair.AccessToken, body)
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = s.request(http.MethodPost, "/api/v1/auth/logout", pair.AccessToken, body)
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = s.request(http.MethodPost, "/api/v1/auth/logout", "", nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, res := s.request(http.MethodPost, "/api/v1/auth/refresh", "", body)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "TOKEN_REVOKED", res.Error.Code)
}

func TestRouter_BearerOnlyLogoutEndsSession(t *testing.T) {
	s := setupSuite(t)
	s.createUser("student@example.com", domain.RoleUser)
	pair := s.login("student@example.com")

	code, _ := s.request(http.MethodPost, "/api/v1/auth/logout", pair.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, res := s.request(http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": pair.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "TOKEN_REVOKED", res.Error.Code)

	code, res = s.request(http.MethodGet, "/api/v1/auth/me", pair.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "TOKEN_REVOKED", res.Error.Code)
}

func TestRouter_OfflineSyncReplay(t *testing.T) {
	s := setupSuite(t)
	s.createUser("student@example.com", domain.RoleUser)
	pair := s.login("student@example.com")

	q := &domain.Question{TestID: 3}
	require.NoError(t, s.db.Create(q).Error)
	a := &domain.Answer{QuestionID: q.ID, IsCorrect: true}
	require.NoError(t, s.db.Create(a).Error)

	body := gin.H{"attempts": []gin.H{{
		"client_attempt_id": "mobile-offline-1",
		"test_id":           3,
		"language_id":       1,
		"answers":           []gin.H{{"question_id": q.ID, "answer_id": a.ID}},
	}}}

	code, first := s.request(http.MethodPost, "/api/v1/me/attempts/offline-sync", pair.AccessToken, body)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, first.Results, 1)
	assert.Equal(t, "synced", first.Results[0].Status)

	code, second := s.request(http.MethodPost, "/api/v1/me/attempts/offline-sync", pair.AccessToken, body)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "duplicate", second.Results[0].Status)
	assert.Equal(t, *first.Results[0].AttemptID, *second.Results[0].AttemptID)

	var attempts int64
	require.NoError(t, s.db.Model(&domain.TestAttempt{}).Count(&attempts).Error)
	assert.Equal(t, int64(1), attempts)

	code, res := s.request(http.MethodPost, "/api/v1/me/attempts/offline-sync", pair.AccessToken, gin.H{"attempts": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
}

func TestRouter_RateLimitOnMutatingRoutes(t *testing.T) {
	s := setupSuite(t)
	s.createUser("student@example.com", domain.RoleUser)
	pair := s.login("student@example.com")

	for i := 0; i < 5; i++ {
		code, _ := s.request(http.MethodPatch, "/api/v1/auth/me", pair.AccessToken, gin.H{"name": "Renamed"})
		require.Equal(t, http.StatusOK, code, "request %d", i+1)
	}

	code, res := s.request(http.MethodPatch, "/api/v1/auth/me", pair.AccessToken, gin.H{"name": "Renamed"})
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "RATE_LIMITED", res.Error.Code)

	// Reads are not limited, and the token itself is untouched.
	code, _ = s.request(http.MethodGet, "/api/v1/auth/me", pair.AccessToken, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestRouter_AdminRevokeTokens(t *testing.T) {
	s := setupSuite(t)
	target := s.createUser("student@example.com", domain.RoleUser)
	s.createUser("admin@example.com", domain.RoleAdmin)

	victim := s.login("student@example.com")
	admin := s.login("admin@example.com")

	path := fmt.Sprintf("/api/v1/admin/users/%d/revoke-tokens", target.ID)

	code, res := s.request(http.MethodPost, path, victim.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", res.Error.Code)

	code, _ = s.request(http.MethodPost, path, admin.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, res = s.request(http.MethodGet, "/api/v1/auth/me", victim.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "TOKEN_REVOKED", res.Error.Code)

	code, res = s.request(http.MethodPost, "/api/v1/admin/users/99999/revoke-tokens", admin.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "USER_NOT_FOUND", res.Error.Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := setupSuite(t)

	code, res := s.request(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, res.OK)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
