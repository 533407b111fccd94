package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodcourt/backend/internal/hash"
	"github.com/foodcourt/backend/internal/models"
	"github.com/foodcourt/backend/internal/mykafka"
	"github.com/foodcourt/backend/internal/service/token"
)

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.RefreshToken{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func newAuthHandler(t *testing.T) (*AuthHandler, *gorm.DB) {
	db := initTestDB(t)
	tokens := &token.TokenService{
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
	return &AuthHandler{DB: db, Tokens: tokens, Producer: &mykafka.Producer{}}, db
}

func doJSONRequest(t *testing.T, method, path string, payload any) (*httptest.ResponseRecorder, echo.Context) {
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	e := echo.New()
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

func TestRegister(t *testing.T) {
	h, db := newAuthHandler(t)

	payload := map[string]string{
		"username": "test_user",
		"email":    "test@example.com",
		"password": "password",
	}
	rec, c := doJSONRequest(t, http.MethodPost, "/api/auth/register", payload)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "test_user", resp["username"])
	require.Equal(t, "user", resp["role"])

	var stored models.User
	require.NoError(t, db.Where("email = ?", "test@example.com").First(&stored).Error)
	require.NotEqual(t, "password", stored.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, _ := newAuthHandler(t)

	payload := map[string]string{
		"username": "test_user",
		"email":    "test@example.com",
		"password": "password",
	}
	_, c := doJSONRequest(t, http.MethodPost, "/api/auth/register", payload)
	require.NoError(t, h.Register(c))

	payload["username"] = "another_user"
	_, c = doJSONRequest(t, http.MethodPost, "/api/auth/register", payload)
	err := h.Register(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusConflict, he.Code)
}

func TestRegisterMissingFields(t *testing.T) {
	h, _ := newAuthHandler(t)

	_, c := doJSONRequest(t, http.MethodPost, "/api/auth/register", map[string]string{"username": "x"})
	err := h.Register(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestLogin(t *testing.T) {
	h, db := newAuthHandler(t)

	pwHash, err := hash.HashPassword("password")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{
		Username:     "test_user",
		Email:        "test@example.com",
		PasswordHash: pwHash,
		Role:         "user",
	}).Error)

	rec, c := doJSONRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "test@example.com",
		"password": "password",
	})
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["access_token"])
	require.NotEmpty(t, resp["refresh_token"])

	_, c = doJSONRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "test@example.com",
		"password": "wrong",
	})
	err = h.Login(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRefreshRotation(t *testing.T) {
	h, db := newAuthHandler(t)

	pwHash, err := hash.HashPassword("password")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{
		Username:     "test_user",
		Email:        "test@example.com",
		PasswordHash: pwHash,
		Role:         "user",
	}).Error)

	rec, c := doJSONRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "test@example.com",
		"password": "password",
	})
	require.NoError(t, h.Login(c))

	var loginResp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	oldRefresh := loginResp["refresh_token"]

	rec, c = doJSONRequest(t, http.MethodPost, "/api/auth/refresh", map[string]string{"refresh_token": oldRefresh})
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var refreshResp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshResp))
	require.NotEmpty(t, refreshResp["access_token"])

	// The old refresh token is revoked; a second rotation must fail.
	_, c = doJSONRequest(t, http.MethodPost, "/api/auth/refresh", map[string]string{"refresh_token": oldRefresh})
	err = h.Refresh(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}
