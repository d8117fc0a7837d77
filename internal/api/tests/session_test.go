package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeasch/poker-cashout/internal/api/testutils"
	"github.com/codeasch/poker-cashout/internal/models"
)

func createSession(t *testing.T, testCtx *testutils.TestContext, name string) *models.Session {
	t.Helper()

	req := models.CreateSessionRequest{Name: name, Currency: "$"}
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/sessions",
		req,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusCreated, w.Code)

	var response models.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotNil(t, response.Session)
	return response.Session
}

func TestCreateSession(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	session := createSession(t, testCtx, "Friday Game")
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, models.SessionOpen, session.Status)

	// Stock settings apply when the request carries none.
	assert.Equal(t, int64(100), session.Settings.VarianceToleranceCents)
	assert.Equal(t, []int64{2000, 4000, 10000}, session.Settings.QuickBuyInOptions)

	// Test case 2: settings overrides
	tolerance := int64(500)
	req := models.CreateSessionRequest{
		Name:     "High Stakes",
		Currency: "€",
		Settings: &models.SessionSettingsRequest{
			VarianceToleranceCents: &tolerance,
			QuickBuyInOptions:      []int64{10000, 50000},
		},
	}
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/sessions", req,
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusCreated, w.Code)

	var response models.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(500), response.Session.Settings.VarianceToleranceCents)
	assert.Equal(t, []int64{10000, 50000}, response.Session.Settings.QuickBuyInOptions)

	// Test case 3: missing required fields
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/sessions",
		models.CreateSessionRequest{Name: "No Currency"},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAndListSessions(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	first := createSession(t, testCtx, "First")
	createSession(t, testCtx, "Second")

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/sessions", nil,
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	var list models.SessionListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Sessions, 2)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/sessions/"+first.ID, nil,
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	var got models.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, first.ID, got.Session.ID)
	assert.Equal(t, "First", got.Session.Name)

	// Unknown id
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/sessions/non-existent", nil,
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionOwnershipEnforced(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	session := createSession(t, testCtx, "Private Game")

	_, otherToken := testutils.CreateTestUser(t, testCtx.Repository, "other@example.com")

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/sessions/"+session.ID, nil,
		testutils.AuthHeaders(otherToken))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/sessions/"+session.ID, nil,
		testutils.AuthHeaders(otherToken))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The other user's listing does not include it.
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/sessions", nil,
		testutils.AuthHeaders(otherToken))
	assert.Equal(t, http.StatusOK, w.Code)
	var list models.SessionListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Sessions, 0)
}

func TestDeleteSession(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	session := createSession(t, testCtx, "Short Lived")

	w := testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/sessions/"+session.ID, nil,
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/sessions/"+session.ID, nil,
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/sessions/non-existent", nil,
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddAndRemovePlayers(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	session := createSession(t, testCtx, "Player Game")

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost,
		"/api/sessions/"+session.ID+"/players",
		models.AddPlayerRequest{Name: "Alice", Color: "#ff0000"},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusCreated, w.Code)

	var added models.PlayerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &added))
	require.NotEmpty(t, added.PlayerID)
	player := added.Session.Players[added.PlayerID]
	assert.Equal(t, "Alice", player.Name)
	assert.True(t, player.Active)

	// Empty name after trimming
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost,
		"/api/sessions/"+session.ID+"/players",
		models.AddPlayerRequest{Name: "   "},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Rename
	w = testutils.PerformRequest(testCtx.Router, http.MethodPatch,
		"/api/sessions/"+session.ID+"/players/"+added.PlayerID,
		models.UpdatePlayerRequest{Name: "Alicia"},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Alicia", updated.Session.Players[added.PlayerID].Name)

	// Remove with no financial history succeeds
	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete,
		"/api/sessions/"+session.ID+"/players/"+added.PlayerID, nil,
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	var removed models.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &removed))
	assert.NotContains(t, removed.Session.Players, added.PlayerID)
}

func TestRemovePlayerWithHistoryRejected(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	session := createSession(t, testCtx, "Sticky Game")

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost,
		"/api/sessions/"+session.ID+"/players",
		models.AddPlayerRequest{Name: "Alice"},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	var added models.PlayerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &added))

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost,
		"/api/sessions/"+session.ID+"/buyins",
		models.BuyInRequest{PlayerID: added.PlayerID, AmountCents: 2000},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusCreated, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete,
		"/api/sessions/"+session.ID+"/players/"+added.PlayerID, nil,
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusConflict, w.Code)

	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "INVALID_OPERATION", errResp.Code)
}
