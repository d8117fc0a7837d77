package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeasch/poker-cashout/internal/api/testutils"
	"github.com/codeasch/poker-cashout/internal/models"
)

func TestSignUp(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	// Test case 1: Successful signup
	signUpReq := models.SignUpRequest{
		Email:    "newuser@example.com",
		Password: "securepassword",
		Name:     "New User",
	}

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/signup", signUpReq, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	var response models.AuthResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "success", response.Status)
	assert.NotEmpty(t, response.UserID)
	assert.Equal(t, signUpReq.Email, response.Email)

	// Test case 2: Duplicate email
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/signup", signUpReq, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Test case 3: Invalid request (short password)
	invalidReq := models.SignUpRequest{
		Email:    "short@example.com",
		Password: "short",
		Name:     "Short",
	}
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/signup", invalidReq, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	signUpReq := models.SignUpRequest{
		Email:    "login@example.com",
		Password: "securepassword",
		Name:     "Login User",
	}
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/signup", signUpReq, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	// Test case 1: Successful login returns a token
	loginReq := models.LoginRequest{
		Email:    "login@example.com",
		Password: "securepassword",
	}
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/login", loginReq, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response models.AuthResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.NotEmpty(t, response.Token)

	// Test case 2: Wrong password
	loginReq.Password = "wrongpassword"
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/login", loginReq, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Test case 3: Unknown email
	loginReq = models.LoginRequest{Email: "nobody@example.com", Password: "whatever"}
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/login", loginReq, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	// No token
	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/sessions", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Malformed header
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/sessions", nil,
		map[string]string{"Authorization": "nonsense"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Bearer scheme with no token
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/sessions", nil,
		map[string]string{"Authorization": "Bearer "})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/sessions", nil,
		testutils.AuthHeaders("not.a.token"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid token
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/sessions", nil,
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusOK, w.Code)
}
