// Package memory implements the data access gateway in process memory.
// It backs the default development configuration and the test suites.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"keuangan/internal/auth"
	"keuangan/internal/core"
	"keuangan/internal/gateway"
)

type user struct {
	id           string
	email        string
	passwordHash string
}

// Store is a gateway backend holding all tables in memory.
type Store struct {
	mu         sync.Mutex
	users      []user
	sessions   map[string]core.Session
	categories []core.Category
	txs        []core.Transaction
	sessionTTL time.Duration
	lastInsert time.Time
}

var _ gateway.Gateway = (*Store)(nil)

func New(sessionTTL time.Duration) *Store {
	if sessionTTL <= 0 {
		sessionTTL = 30 * 24 * time.Hour
	}
	return &Store{
		sessions:   make(map[string]core.Session),
		sessionTTL: sessionTTL,
	}
}

// AddUser registers an account. Used by seeding and tests.
func (s *Store) AddUser(email, password string) (string, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := user{id: uuid.NewString(), email: strings.ToLower(strings.TrimSpace(email)), passwordHash: hash}
	s.users = append(s.users, u)
	return u.id, nil
}

// UserID looks up an account id by email.
func (s *Store) UserID(email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.email == email {
			return u.id, nil
		}
	}
	return "", gateway.ErrNotFound
}

func (s *Store) SignIn(_ context.Context, email, password string) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.email != email {
			continue
		}
		if !auth.CheckPassword(password, u.passwordHash) {
			break
		}
		token, err := auth.GenerateSessionToken()
		if err != nil {
			return core.Session{}, err
		}
		sess := core.Session{
			Token:     token,
			UserID:    u.id,
			Email:     u.email,
			ExpiresAt: time.Now().Add(s.sessionTTL),
		}
		s.sessions[token] = sess
		return sess, nil
	}
	return core.Session{}, gateway.ErrInvalidCredentials
}

func (s *Store) Session(_ context.Context, token string) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return core.Session{}, gateway.ErrNoSession
	}
	if time.Now().After(sess.ExpiresAt) {
		delete(s.sessions, token)
		return core.Session{}, gateway.ErrNoSession
	}
	return sess, nil
}

func (s *Store) SignOut(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Category, 0)
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) InsertCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	s.categories = append(s.categories, c)
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.txs {
		if t.UserID == userID && t.CategoryID == id {
			return gateway.ErrConflict
		}
	}
	for i, c := range s.categories {
		if c.UserID == userID && c.ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return gateway.ErrNotFound
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make(map[string]string, len(s.categories))
	for _, c := range s.categories {
		names[c.ID] = c.Name
	}

	out := make([]core.Transaction, 0)
	for _, t := range s.txs {
		if t.UserID != userID {
			continue
		}
		t.CategoryName = names[t.CategoryID]
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) InsertTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.CategoryID != "" {
		found := false
		for _, c := range s.categories {
			if c.ID == t.CategoryID && c.UserID == t.UserID {
				found = true
				break
			}
		}
		if !found {
			return core.Transaction{}, gateway.ErrNotFound
		}
	}
	t.ID = uuid.NewString()
	if t.Date.IsZero() {
		t.Date = time.Now()
	}
	// Strictly monotonic creation times keep the newest-first ordering
	// stable even for inserts landing on the same clock tick.
	now := time.Now()
	if !now.After(s.lastInsert) {
		now = s.lastInsert.Add(time.Nanosecond)
	}
	s.lastInsert = now
	t.CreatedAt = now
	s.txs = append(s.txs, t)
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.txs {
		if t.UserID == userID && t.ID == id {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return nil
		}
	}
	return gateway.ErrNotFound
}
