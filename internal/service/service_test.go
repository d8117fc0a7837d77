package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeasch/poker-cashout/internal/models"
	"github.com/codeasch/poker-cashout/internal/repository"
)

func setupService(t *testing.T) (Service, string) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	svc := NewDefaultService(repo, "test-secret")

	resp, err := svc.SignUp(context.Background(), models.SignUpRequest{
		Email:    "owner@example.com",
		Password: "testpassword",
		Name:     "Owner",
	})
	require.NoError(t, err)
	return svc, resp.UserID
}

func TestSignUpAndLogin(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	// Duplicate email
	_, err := svc.SignUp(ctx, models.SignUpRequest{
		Email:    "owner@example.com",
		Password: "otherpassword",
		Name:     "Imposter",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	resp, err := svc.Login(ctx, models.LoginRequest{Email: "owner@example.com", Password: "testpassword"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "owner@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCommandsAgainstMissingOrForeignSessions(t *testing.T) {
	svc, ownerID := setupService(t)
	ctx := context.Background()

	_, err := svc.GetSession(ctx, ownerID, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	session, err := svc.CreateSession(ctx, ownerID, models.CreateSessionRequest{Name: "Game", Currency: "$"})
	require.NoError(t, err)

	other, err := svc.SignUp(ctx, models.SignUpRequest{
		Email:    "other@example.com",
		Password: "testpassword",
		Name:     "Other",
	})
	require.NoError(t, err)

	_, err = svc.GetSession(ctx, other.UserID, session.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, _, err = svc.AddPlayer(ctx, other.UserID, session.ID, models.AddPlayerRequest{Name: "Mallory"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGetSettlementBeforeFinalize(t *testing.T) {
	svc, ownerID := setupService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, ownerID, models.CreateSessionRequest{Name: "Game", Currency: "$"})
	require.NoError(t, err)

	_, err = svc.GetSettlement(ctx, ownerID, session.ID)
	assert.ErrorIs(t, err, ErrNotFinalized)
}

// Concurrent buy-ins against one session must all land: commands are
// serialized per session and each one replaces the stored value atomically.
func TestConcurrentBuyInsAllRecorded(t *testing.T) {
	svc, ownerID := setupService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, ownerID, models.CreateSessionRequest{Name: "Busy Game", Currency: "$"})
	require.NoError(t, err)
	_, playerID, err := svc.AddPlayer(ctx, ownerID, session.ID, models.AddPlayerRequest{Name: "Alice"})
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.RecordBuyIn(ctx, ownerID, session.ID, models.BuyInRequest{
				PlayerID:    playerID,
				AmountCents: 100,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := svc.GetSession(ctx, ownerID, session.ID)
	require.NoError(t, err)
	assert.Len(t, got.BuyIns, workers)

	nets, err := svc.ComputeNets(ctx, ownerID, session.ID)
	require.NoError(t, err)
	require.Len(t, nets, 1)
	assert.Equal(t, int64(100*workers), nets[0].BuyInsCents)
}

func TestFinalizeFlowThroughService(t *testing.T) {
	svc, ownerID := setupService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, ownerID, models.CreateSessionRequest{Name: "Game", Currency: "$"})
	require.NoError(t, err)
	_, alice, err := svc.AddPlayer(ctx, ownerID, session.ID, models.AddPlayerRequest{Name: "Alice"})
	require.NoError(t, err)
	_, bob, err := svc.AddPlayer(ctx, ownerID, session.ID, models.AddPlayerRequest{Name: "Bob"})
	require.NoError(t, err)

	_, err = svc.RecordBuyIn(ctx, ownerID, session.ID, models.BuyInRequest{PlayerID: alice, AmountCents: 5000})
	require.NoError(t, err)
	_, err = svc.RecordBuyIn(ctx, ownerID, session.ID, models.BuyInRequest{PlayerID: bob, AmountCents: 3000})
	require.NoError(t, err)

	closed, err := svc.FinalizeSession(ctx, ownerID, session.ID, map[string]int64{alice: 2000, bob: 6000})
	require.NoError(t, err)
	assert.Equal(t, models.SessionClosed, closed.Status)

	// The snapshot is stored; the query serves it back unchanged.
	snap, err := svc.GetSettlement(ctx, ownerID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, closed.Settlement, snap)

	// Export produces a parseable document of the closed session.
	data, err := svc.ExportSession(ctx, ownerID, session.ID)
	require.NoError(t, err)
	assert.Contains(t, string(data), closed.ID)
}
