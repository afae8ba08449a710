// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"noteflow/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	entries  map[string]domain.JournalEntry
	logs     map[string]domain.SubstanceLog
	users    []*domain.User
	sessions map[string]*domain.Session

	userIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		entries:  make(map[string]domain.JournalEntry),
		logs:     make(map[string]domain.SubstanceLog),
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.EntryRepository = (*DB)(nil)
var _ domain.LogRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- EntryRepository ---

// UpsertEntry stores an entry, replacing one with the same ID. An ID owned
// by another user is reported as not found.
func (db *DB) UpsertEntry(ctx context.Context, e domain.JournalEntry) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if cur, ok := db.entries[e.ID]; ok && cur.UserID != e.UserID {
		return domain.ErrNotFound
	}
	e.Triggers = slices.Clone(e.Triggers)
	e.CopingStrategies = slices.Clone(e.CopingStrategies)
	db.entries[e.ID] = e
	return nil
}

// GetEntry returns one entry owned by the user.
func (db *DB) GetEntry(ctx context.Context, userID int64, id string) (*domain.JournalEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, ok := db.entries[id]
	if !ok || e.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

// DeleteEntry removes one entry owned by the user.
func (db *DB) DeleteEntry(ctx context.Context, userID int64, id string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, ok := db.entries[id]
	if !ok || e.UserID != userID {
		return false, nil
	}
	delete(db.entries, id)
	return true, nil
}

// ListEntries returns the user's entries within r, oldest date first.
func (db *DB) ListEntries(ctx context.Context, userID int64, r domain.DateRange) ([]domain.JournalEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.JournalEntry, 0)
	for _, e := range db.entries {
		if e.UserID == userID && r.ContainsDay(e.Date) {
			result = append(result, e)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// DeleteAllEntries removes every entry the user owns.
func (db *DB) DeleteAllEntries(ctx context.Context, userID int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for id, e := range db.entries {
		if e.UserID == userID {
			delete(db.entries, id)
		}
	}
	return nil
}

// --- LogRepository ---

// UpsertLog stores a substance log, replacing one with the same ID.
func (db *DB) UpsertLog(ctx context.Context, l domain.SubstanceLog) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if cur, ok := db.logs[l.ID]; ok && cur.UserID != l.UserID {
		return domain.ErrNotFound
	}
	l.Emotions = slices.Clone(l.Emotions)
	l.Timestamp = l.Timestamp.UTC()
	db.logs[l.ID] = l
	return nil
}

// GetLog returns one log owned by the user.
func (db *DB) GetLog(ctx context.Context, userID int64, id string) (*domain.SubstanceLog, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	l, ok := db.logs[id]
	if !ok || l.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return &l, nil
}

// DeleteLog removes one log owned by the user.
func (db *DB) DeleteLog(ctx context.Context, userID int64, id string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	l, ok := db.logs[id]
	if !ok || l.UserID != userID {
		return false, nil
	}
	delete(db.logs, id)
	return true, nil
}

// ListLogs returns the user's logs within r, newest first.
func (db *DB) ListLogs(ctx context.Context, userID int64, r domain.DateRange) ([]domain.SubstanceLog, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.SubstanceLog, 0)
	for _, l := range db.logs {
		if l.UserID == userID && r.Contains(l.Timestamp) {
			result = append(result, l)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result, nil
}

// DeleteAllLogs removes every log the user owns.
func (db *DB) DeleteAllLogs(ctx context.Context, userID int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for id, l := range db.logs {
		if l.UserID == userID {
			delete(db.logs, id)
		}
	}
	return nil
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, errors.New("user already exists")
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	return u, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	var n int64
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
			n++
		}
	}
	return n, nil
}
