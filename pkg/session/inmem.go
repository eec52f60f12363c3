package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ActiveFunc reports whether the account behind a session is still
// active. The SQL implementation expresses this as a join; the in-memory
// one takes it as a callback so it stays decoupled from account storage.
type ActiveFunc func(accountID uuid.UUID) bool

// InMemoryRepository implements Repository with an in-process map.
type InMemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	active   ActiveFunc
}

// NewInMemoryRepository creates an in-memory session repository. A nil
// active callback treats every account as active.
func NewInMemoryRepository(active ActiveFunc) *InMemoryRepository {
	if active == nil {
		active = func(uuid.UUID) bool { return true }
	}
	return &InMemoryRepository{
		sessions: make(map[string]*Session),
		active:   active,
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, arg CreateSessionParams) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &Session{
		ID:           uuid.New(),
		AccountID:    arg.AccountID,
		Token:        arg.Token,
		IPAddress:    arg.IPAddress,
		UserAgent:    arg.UserAgent,
		CreatedAt:    time.Now().UTC(),
		ExpiresAt:    arg.ExpiresAt,
		LastActivity: arg.LastActivity,
	}
	r.sessions[s.Token] = s
	return *s, nil
}

func (r *InMemoryRepository) GetLiveByToken(ctx context.Context, token string, now time.Time) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[token]
	if !ok || !s.ExpiresAt.After(now) || !r.active(s.AccountID) {
		return Session{}, ErrNotFound
	}
	return *s, nil
}

func (r *InMemoryRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		if s.ID == id {
			s.LastActivity = at
			return nil
		}
	}
	return nil
}

func (r *InMemoryRepository) DeleteByToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, token)
	return nil
}

func (r *InMemoryRepository) DeleteAllByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for token, s := range r.sessions {
		if s.AccountID == accountID {
			delete(r.sessions, token)
			n++
		}
	}
	return n, nil
}

func (r *InMemoryRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for token, s := range r.sessions {
		if !s.ExpiresAt.After(now) {
			delete(r.sessions, token)
			n++
		}
	}
	return n, nil
}
