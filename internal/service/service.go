package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/codeasch/poker-cashout/internal/ledger"
	"github.com/codeasch/poker-cashout/internal/models"
	"github.com/codeasch/poker-cashout/internal/money"
	"github.com/codeasch/poker-cashout/internal/repository"
	"github.com/codeasch/poker-cashout/internal/settlement"
)

// Service-level failures the API layer maps to HTTP statuses.
var (
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrForbidden          = errors.New("you don't have access to this session")
	ErrNotFinalized       = errors.New("session has not been finalized")
	ErrInvalidImport      = errors.New("invalid import data")
)

// Service defines all the business logic operations
type Service interface {
	// Authentication
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)

	// Session management
	CreateSession(ctx context.Context, userID string, req models.CreateSessionRequest) (*models.Session, error)
	GetSession(ctx context.Context, userID, sessionID string) (*models.Session, error)
	ListSessions(ctx context.Context, userID string) ([]models.Session, error)
	DeleteSession(ctx context.Context, userID, sessionID string) error

	// Player management
	AddPlayer(ctx context.Context, userID, sessionID string, req models.AddPlayerRequest) (*models.Session, string, error)
	UpdatePlayer(ctx context.Context, userID, sessionID, playerID string, req models.UpdatePlayerRequest) (*models.Session, error)
	RemovePlayer(ctx context.Context, userID, sessionID, playerID string) (*models.Session, error)

	// Ledger commands
	RecordBuyIn(ctx context.Context, userID, sessionID string, req models.BuyInRequest) (*models.Session, error)
	UndoLastBuyIn(ctx context.Context, userID, sessionID, playerID string) (*models.Session, error)
	CashOutPlayer(ctx context.Context, userID, sessionID string, req models.CashOutRequest) (*models.Session, error)
	EditCashOut(ctx context.Context, userID, sessionID, cashOutID string, newAmountCents int64) (*models.Session, error)
	RejoinPlayer(ctx context.Context, userID, sessionID, playerID string) (*models.Session, error)
	FinalizeSession(ctx context.Context, userID, sessionID string, finalStacksCents map[string]int64) (*models.Session, error)
	MarkTransactionPaid(ctx context.Context, userID, sessionID string, index int, paid bool) (*models.Session, error)

	// Settlement queries
	ComputeNets(ctx context.Context, userID, sessionID string) ([]models.PlayerNet, error)
	ComputeVariance(ctx context.Context, userID, sessionID string) (int64, bool, error)
	GetSettlement(ctx context.Context, userID, sessionID string) (*models.SettlementSnapshot, error)

	// Import/export
	ExportSession(ctx context.Context, userID, sessionID string) ([]byte, error)
	ImportSession(ctx context.Context, userID string, raw []byte) (*models.Session, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	engine        *ledger.Engine
	jwtSecret     []byte
	tokenDuration time.Duration

	// Commands against the same session run one at a time; each command
	// replaces the stored session atomically.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, jwtSecret string) Service {
	return &DefaultService{
		repo:          repo,
		engine:        ledger.NewEngine(),
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 24 * time.Hour, // 24 hours token validity
		locks:         map[string]*sync.Mutex{},
	}
}

// Authentication methods
func (s *DefaultService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error) {
	// Check if user already exists
	existingUser, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking user existence: %w", err)
	}

	if existingUser != nil {
		return nil, ErrEmailTaken
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    req.Email,
		Name:     req.Name,
		Password: string(hashedPassword),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return &models.AuthResponse{
		Status: "success",
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}, nil
}

func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		return nil, ErrInvalidCredentials
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

// Session management
func (s *DefaultService) CreateSession(
	ctx context.Context,
	userID string,
	req models.CreateSessionRequest,
) (*models.Session, error) {
	settings := applySettingsOverrides(req.Settings)

	session, err := s.engine.NewSession(req.Name, req.Currency, settings)
	if err != nil {
		return nil, err
	}
	session.CreatedBy = userID

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	log.Info().Str("session", session.ID).Str("owner", userID).Msg("session created")
	return session, nil
}

func applySettingsOverrides(req *models.SessionSettingsRequest) *models.SessionSettings {
	settings := ledger.DefaultSettings()
	if req == nil {
		return &settings
	}
	if req.VarianceToleranceCents != nil {
		settings.VarianceToleranceCents = *req.VarianceToleranceCents
	}
	if len(req.QuickBuyInOptions) > 0 {
		settings.QuickBuyInOptions = append([]int64(nil), req.QuickBuyInOptions...)
	}
	if req.AllowInactiveBuyIns != nil {
		settings.AllowInactiveBuyIns = *req.AllowInactiveBuyIns
	}
	return &settings
}

func (s *DefaultService) GetSession(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	return s.loadOwned(ctx, userID, sessionID)
}

func (s *DefaultService) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	sessions, err := s.repo.GetUserSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	return sessions, nil
}

func (s *DefaultService) DeleteSession(ctx context.Context, userID, sessionID string) error {
	unlock := s.lockSession(sessionID)
	defer unlock()

	if _, err := s.loadOwned(ctx, userID, sessionID); err != nil {
		return err
	}

	if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

// Player management
func (s *DefaultService) AddPlayer(
	ctx context.Context,
	userID, sessionID string,
	req models.AddPlayerRequest,
) (*models.Session, string, error) {
	var playerID string
	session, err := s.mutate(ctx, userID, sessionID, func(sess *models.Session) (*models.Session, error) {
		next, id, err := s.engine.AddPlayer(sess, req.Name, req.Color)
		playerID = id
		return next, err
	})
	if err != nil {
		return nil, "", err
	}
	return session, playerID, nil
}

func (s *DefaultService) UpdatePlayer(
	ctx context.Context,
	userID, sessionID, playerID string,
	req models.UpdatePlayerRequest,
) (*models.Session, error) {
	return s.mutate(ctx, userID, sessionID, func(sess *models.Session) (*models.Session, error) {
		return s.engine.UpdatePlayer(sess, playerID, req.Name, req.Color)
	})
}

func (s *DefaultService) RemovePlayer(ctx context.Context, userID, sessionID, playerID string) (*models.Session, error) {
	return s.mutate(ctx, userID, sessionID, func(sess *models.Session) (*models.Session, error) {
		return s.engine.RemovePlayer(sess, playerID)
	})
}

// Ledger commands
func (s *DefaultService) RecordBuyIn(
	ctx context.Context,
	userID, sessionID string,
	req models.BuyInRequest,
) (*models.Session, error) {
	return s.mutate(ctx, userID, sessionID, func(sess *models.Session) (*models.Session, error) {
		return s.engine.RecordBuyIn(sess, req.PlayerID, req.AmountCents)
	})
}

func (s *DefaultService) UndoLastBuyIn(ctx context.Context, userID, sessionID, playerID string) (*models.Session, error) {
	return s.mutate(ctx, userID, sessionID, func(sess *models.Session) (*models.Session, error) {
		if playerID == "" {
			return s.engine.UndoLastBuyIn(sess)
		}
		return s.engine.UndoLastBuyInForPlayer(sess, playerID)
	})
}

func (s *DefaultService) CashOutPlayer(
	ctx context.Context,
	userID, sessionID string,
	req models.CashOutRequest,
) (*models.Session, error) {
	return s.mutate(ctx, userID, sessionID, func(sess *models.Session) (*models.Session, error) {
		return s.engine.CashOutPlayer(sess, req.PlayerID, req.AmountCents, req.Reason)
	})
}

func (s *DefaultService) EditCashOut(
	ctx context.Context,
	userID, sessionID, cashOutID string,
	newAmountCents int64,
) (*models.Session, error) {
	return s.mutate(ctx, userID, sessionID, func(sess *models.Session) (*models.Session, error) {
		return s.engine.EditCashOut(sess, cashOutID, newAmountCents)
	})
}

func (s *DefaultService) RejoinPlayer(ctx context.Context, userID, sessionID, playerID string) (*models.Session, error) {
	return s.mutate(ctx, userID, sessionID, func(sess *models.Session) (*models.Session, error) {
		return s.engine.RejoinPlayer(sess, playerID)
	})
}

func (s *DefaultService) FinalizeSession(
	ctx context.Context,
	userID, sessionID string,
	finalStacksCents map[string]int64,
) (*models.Session, error) {
	session, err := s.mutate(ctx, userID, sessionID, func(sess *models.Session) (*models.Session, error) {
		return s.engine.FinalizeSession(sess, finalStacksCents)
	})
	if err != nil {
		return nil, err
	}

	snap := session.Settlement
	if !settlement.Validate(snap.Nets, session.Settings.VarianceToleranceCents) {
		log.Warn().
			Str("session", session.ID).
			Int64("varianceCents", snap.VarianceCents).
			Int64("toleranceCents", session.Settings.VarianceToleranceCents).
			Msg("settlement variance exceeds tolerance")
	}
	log.Info().
		Str("session", session.ID).
		Int("transactions", len(snap.Transactions)).
		Int64("varianceCents", snap.VarianceCents).
		Msg("session finalized")
	return session, nil
}

func (s *DefaultService) MarkTransactionPaid(
	ctx context.Context,
	userID, sessionID string,
	index int,
	paid bool,
) (*models.Session, error) {
	return s.mutate(ctx, userID, sessionID, func(sess *models.Session) (*models.Session, error) {
		return s.engine.MarkTransactionPaid(sess, index, paid)
	})
}

// Settlement queries
func (s *DefaultService) ComputeNets(ctx context.Context, userID, sessionID string) ([]models.PlayerNet, error) {
	session, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return settlement.ComputePlayerNets(session), nil
}

func (s *DefaultService) ComputeVariance(ctx context.Context, userID, sessionID string) (int64, bool, error) {
	session, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return 0, false, err
	}
	variance := settlement.ComputeVariance(session)
	return variance, money.WithinTolerance(variance, session.Settings.VarianceToleranceCents), nil
}

func (s *DefaultService) GetSettlement(ctx context.Context, userID, sessionID string) (*models.SettlementSnapshot, error) {
	session, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Settlement == nil {
		return nil, ErrNotFinalized
	}
	return session.Settlement, nil
}

// Import/export
func (s *DefaultService) ExportSession(ctx context.Context, userID, sessionID string) ([]byte, error) {
	session, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error encoding session: %w", err)
	}
	return data, nil
}

func (s *DefaultService) ImportSession(ctx context.Context, userID string, raw []byte) (*models.Session, error) {
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if session.Status != models.SessionOpen && session.Status != models.SessionClosed {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidImport, session.Status)
	}
	// Imports always get a fresh id, so re-importing an exported document
	// can never collide with the session it came from.
	session.ID = uuid.New().String()
	if session.Players == nil {
		session.Players = map[string]models.Player{}
	}
	if session.Version == 0 {
		session.Version = models.SchemaVersion
	}
	session.CreatedBy = userID

	if err := s.repo.CreateSession(ctx, &session); err != nil {
		return nil, fmt.Errorf("error importing session: %w", err)
	}

	log.Info().Str("session", session.ID).Str("owner", userID).Msg("session imported")
	return &session, nil
}

// Helper methods
func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	expirationTime := time.Now().Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub": user.ID, // subject
		"exp": expirationTime.Unix(),
		"iat": time.Now().Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// lockSession serializes commands against one session id.
func (s *DefaultService) lockSession(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// loadOwned fetches a session and verifies the caller owns it.
func (s *DefaultService) loadOwned(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error getting session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.CreatedBy != userID {
		return nil, ErrForbidden
	}
	return session, nil
}

// mutate runs one ledger command: load under the session lock, apply the
// transform, store the replacement. A failed transform stores nothing.
func (s *DefaultService) mutate(
	ctx context.Context,
	userID, sessionID string,
	op func(*models.Session) (*models.Session, error),
) (*models.Session, error) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	next, err := op(session)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveSession(ctx, next); err != nil {
		return nil, fmt.Errorf("error saving session: %w", err)
	}
	return next, nil
}
