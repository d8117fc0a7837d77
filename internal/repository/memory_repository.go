package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codeasch/poker-cashout/internal/models"
)

// MemoryRepository is an in-memory Repository used by tests and by the
// server when no database is configured. Sessions are stored as their JSON
// encoding, so reads hand back independent copies and every session passes
// through the same serialization boundary as the Postgres implementation.
type MemoryRepository struct {
	mu       sync.RWMutex
	users    map[string]models.User // keyed by id
	sessions map[string][]byte      // keyed by session id
	owners   map[string]string      // session id -> owner id
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:    map[string]models.User{},
		sessions: map[string][]byte{},
		owners:   map[string]string{},
	}
}

func (r *MemoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("user with email %s already exists", user.Email)
		}
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	user := u
	return &user, nil
}

func (r *MemoryRepository) CreateSession(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("error encoding session: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; ok {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	r.sessions[session.ID] = data
	r.owners[session.ID] = session.CreatedBy
	return nil
}

func (r *MemoryRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("error decoding session %s: %w", sessionID, err)
	}
	return &session, nil
}

func (r *MemoryRepository) SaveSession(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("error encoding session: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; !ok {
		return fmt.Errorf("session %s does not exist", session.ID)
	}
	r.sessions[session.ID] = data
	return nil
}

func (r *MemoryRepository) DeleteSession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	delete(r.owners, sessionID)
	return nil
}

func (r *MemoryRepository) GetUserSessions(ctx context.Context, ownerID string) ([]models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := []models.Session{}
	for id, owner := range r.owners {
		if owner != ownerID {
			continue
		}
		var session models.Session
		if err := json.Unmarshal(r.sessions[id], &session); err != nil {
			return nil, fmt.Errorf("error decoding session %s: %w", id, err)
		}
		sessions = append(sessions, session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt != sessions[j].CreatedAt {
			return sessions[i].CreatedAt > sessions[j].CreatedAt
		}
		return sessions[i].ID < sessions[j].ID
	})
	return sessions, nil
}
