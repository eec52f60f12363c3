package account

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository implements Repository with an in-process map. It backs
// the test suites and the development mode of the server binary; the mutex
// gives it the same atomicity guarantees the SQL implementation gets from
// single-statement updates.
type InMemoryRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*Account
}

// NewInMemoryRepository creates an empty in-memory account repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		accounts: make(map[uuid.UUID]*Account),
	}
}

func (r *InMemoryRepository) GetByUsername(ctx context.Context, username string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.accounts {
		if a.Username == username {
			return *a, nil
		}
	}
	return Account{}, ErrNotFound
}

func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.accounts {
		if a.Email == email {
			return *a, nil
		}
	}
	return Account{}, ErrNotFound
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return *a, nil
}

func (r *InMemoryRepository) GetByValidResetToken(ctx context.Context, token string, now time.Time) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.accounts {
		if a.PasswordResetToken != nil && *a.PasswordResetToken == token &&
			a.PasswordResetExpires != nil && a.PasswordResetExpires.After(now) {
			return *a, nil
		}
	}
	return Account{}, ErrNotFound
}

func (r *InMemoryRepository) RecordFailedAttempt(ctx context.Context, arg FailedAttemptParams) (FailedAttemptResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[arg.ID]
	if !ok {
		return FailedAttemptResult{}, ErrNotFound
	}

	a.FailedLoginAttempts++
	if a.FailedLoginAttempts >= arg.Threshold {
		lockUntil := arg.LockUntil
		a.LockedUntil = &lockUntil
	}
	a.UpdatedAt = time.Now().UTC()

	res := FailedAttemptResult{Attempts: a.FailedLoginAttempts}
	if a.LockedUntil != nil {
		lockedUntil := *a.LockedUntil
		res.LockedUntil = &lockedUntil
	}
	return res, nil
}

func (r *InMemoryRepository) ResetLoginAttempts(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}

	a.FailedLoginAttempts = 0
	a.LockedUntil = nil
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}

	a.PasswordHash = passwordHash
	a.PasswordResetToken = nil
	a.PasswordResetExpires = nil
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRepository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}

	a.PasswordResetToken = &token
	a.PasswordResetExpires = &expires
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRepository) UpdateTOTP(ctx context.Context, id uuid.UUID, secret *string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}

	if secret != nil {
		s := *secret
		a.TOTPSecret = &s
	} else {
		a.TOTPSecret = nil
	}
	a.TOTPEnabled = enabled
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRepository) Create(ctx context.Context, arg CreateAccountParams) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	a := &Account{
		ID:           uuid.New(),
		Username:     arg.Username,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.accounts[a.ID] = a
	return *a, nil
}

func (r *InMemoryRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.accounts)), nil
}

// SetActive flips the active flag. Test helper; the data-management side
// of the system owns account activation in production.
func (r *InMemoryRepository) SetActive(id uuid.UUID, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.accounts[id]; ok {
		a.IsActive = active
	}
}
