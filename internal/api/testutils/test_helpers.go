package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/codeasch/poker-cashout/internal/api"
	"github.com/codeasch/poker-cashout/internal/models"
	"github.com/codeasch/poker-cashout/internal/repository"
	"github.com/codeasch/poker-cashout/internal/service"
)

const testJWTSecret = "test-secret-key"

// TestContext holds all dependencies for tests
type TestContext struct {
	Router      *gin.Engine
	Repository  repository.Repository
	Service     service.Service
	JWTSecret   []byte
	TestUserID  string
	TestUserJWT string
}

// SetupTestContext creates a new test context backed by the in-memory
// repository, so the suite runs without a database.
func SetupTestContext(t *testing.T) *TestContext {
	repo := repository.NewMemoryRepository()
	svc := service.NewDefaultService(repo, testJWTSecret)
	handler := api.NewHandler(svc, []byte(testJWTSecret))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.SetupRoutes(router)

	testUserID, token := CreateTestUser(t, repo, "testuser@example.com")

	return &TestContext{
		Router:      router,
		Repository:  repo,
		Service:     svc,
		JWTSecret:   []byte(testJWTSecret),
		TestUserID:  testUserID,
		TestUserJWT: token,
	}
}

// CreateTestUser inserts a user directly and returns its id and a valid JWT.
func CreateTestUser(t *testing.T, repo repository.Repository, email string) (string, string) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("testpassword"), bcrypt.DefaultCost)

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    email,
		Name:     "Test User",
		Password: string(hashedPassword),
	}

	err := repo.CreateUser(context.Background(), user)
	assert.NoError(t, err, "Failed to create test user")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})

	tokenString, err := token.SignedString([]byte(testJWTSecret))
	assert.NoError(t, err, "Failed to generate JWT token")

	return user.ID, tokenString
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}
