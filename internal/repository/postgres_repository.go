package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/codeasch/poker-cashout/internal/models"
)

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Session operations. A session is persisted as one document and
	// replaced atomically on save; callers serialize commands per session.
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, sessionID string) error
	GetUserSessions(ctx context.Context, ownerID string) ([]models.Session, error)
}

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}

// User repository methods
func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	// Generate a new UUID if not provided
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.Password, user.CreatedAt, user.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT * FROM users WHERE email = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT * FROM users WHERE id = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

// Session repository methods. The full session rides in a JSONB column; the
// name/status/owner columns exist only for listing and indexing, the document
// is the source of truth.
func (r *PostgresRepository) CreateSession(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("error encoding session: %w", err)
	}

	query := `
		INSERT INTO sessions (id, owner_id, name, status, created_at, updated_at, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		session.ID, session.CreatedBy, session.Name, session.Status,
		session.CreatedAt, session.CreatedAt, data)

	return err
}

func (r *PostgresRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `SELECT data FROM sessions WHERE id = $1`

	var data []byte
	err := r.db.GetContext(ctx, &data, query, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Session not found
		}
		return nil, err
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("error decoding session %s: %w", sessionID, err)
	}

	return &session, nil
}

func (r *PostgresRepository) SaveSession(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("error encoding session: %w", err)
	}

	query := `
		UPDATE sessions
		SET name = $2, status = $3, updated_at = $4, data = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		session.ID, session.Name, session.Status, time.Now().UnixMilli(), data)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("session %s does not exist", session.ID)
	}

	return nil
}

func (r *PostgresRepository) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	return err
}

func (r *PostgresRepository) GetUserSessions(ctx context.Context, ownerID string) ([]models.Session, error) {
	query := `SELECT data FROM sessions WHERE owner_id = $1 ORDER BY created_at DESC`

	var rows [][]byte
	err := r.db.SelectContext(ctx, &rows, query, ownerID)
	if err != nil {
		return nil, err
	}

	sessions := make([]models.Session, 0, len(rows))
	for _, data := range rows {
		var session models.Session
		if err := json.Unmarshal(data, &session); err != nil {
			return nil, fmt.Errorf("error decoding session: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}
