package reset

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tegfinance/authcore/pkg/account"
	"github.com/tegfinance/authcore/pkg/errors"
	"github.com/tegfinance/authcore/pkg/password"
	"github.com/tegfinance/authcore/pkg/session"
)

type captureNotifier struct {
	email string
	token string
	calls int
}

func (n *captureNotifier) SendResetToken(ctx context.Context, email, token string) error {
	n.email = email
	n.token = token
	n.calls++
	return nil
}

type resetFixture struct {
	svc      *Service
	accounts *account.InMemoryRepository
	sessions *session.Manager
	notifier *captureNotifier
	acct     account.Account
}

func newFixture(t *testing.T) *resetFixture {
	t.Helper()
	accounts := account.NewInMemoryRepository()
	hasher := password.NewBcryptHasher(bcryptTestCost)

	hash, err := hasher.Hash("original-password")
	require.NoError(t, err)
	acct, err := accounts.Create(context.Background(), account.CreateAccountParams{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
	})
	require.NoError(t, err)

	sessions := session.NewManager(session.NewInMemoryRepository(nil), time.Hour)
	notifier := &captureNotifier{}
	svc := NewService(accounts, sessions, hasher, password.DefaultPolicy(), time.Hour, notifier)

	return &resetFixture{svc: svc, accounts: accounts, sessions: sessions, notifier: notifier, acct: acct}
}

const bcryptTestCost = 4

func TestService_Request(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("known email stores and delivers a token", func(t *testing.T) {
		require.NoError(t, f.svc.Request(ctx, "alice@example.com"))
		assert.Equal(t, "alice@example.com", f.notifier.email)
		assert.NotEmpty(t, f.notifier.token)

		stored, err := f.accounts.GetByValidResetToken(ctx, f.notifier.token, time.Now())
		require.NoError(t, err)
		assert.Equal(t, f.acct.ID, stored.ID)
	})

	t.Run("unknown email succeeds without a notification", func(t *testing.T) {
		before := f.notifier.calls
		require.NoError(t, f.svc.Request(ctx, "stranger@example.com"))
		assert.Equal(t, before, f.notifier.calls)
	})

	t.Run("repeat request invalidates the earlier token", func(t *testing.T) {
		require.NoError(t, f.svc.Request(ctx, "alice@example.com"))
		first := f.notifier.token
		require.NoError(t, f.svc.Request(ctx, "alice@example.com"))
		second := f.notifier.token
		require.NotEqual(t, first, second)

		_, err := f.svc.Redeem(ctx, first, "brand-new-password")
		assert.True(t, errors.IsCode(err, errors.ErrCodeResetTokenInvalid))

		_, err = f.svc.Redeem(ctx, second, "brand-new-password")
		assert.NoError(t, err)
	})
}

func TestService_Redeem(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token sets the password and revokes sessions", func(t *testing.T) {
		f := newFixture(t)
		live, err := f.sessions.Issue(ctx, f.acct.ID, "203.0.113.7", "curl/8.5")
		require.NoError(t, err)

		require.NoError(t, f.svc.Request(ctx, "alice@example.com"))
		got, err := f.svc.Redeem(ctx, f.notifier.token, "brand-new-password")
		require.NoError(t, err)
		assert.Equal(t, f.acct.ID, got.ID)

		stored, err := f.accounts.GetByID(ctx, f.acct.ID)
		require.NoError(t, err)
		hasher := password.NewBcryptHasher(bcryptTestCost)
		assert.True(t, hasher.Verify("brand-new-password", stored.PasswordHash))
		assert.False(t, hasher.Verify("original-password", stored.PasswordHash))

		_, err = f.sessions.Resolve(ctx, live.Token)
		assert.True(t, errors.IsCode(err, errors.ErrCodeSessionNotFound), "reset must end existing sessions")
	})

	t.Run("token is single use", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.Request(ctx, "alice@example.com"))
		token := f.notifier.token

		_, err := f.svc.Redeem(ctx, token, "brand-new-password")
		require.NoError(t, err)

		_, err = f.svc.Redeem(ctx, token, "another-password")
		assert.True(t, errors.IsCode(err, errors.ErrCodeResetTokenInvalid))
	})

	t.Run("expired token is rejected like an unknown one", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.Request(ctx, "alice@example.com"))
		f.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		_, err := f.svc.Redeem(ctx, f.notifier.token, "brand-new-password")
		assert.True(t, errors.IsCode(err, errors.ErrCodeResetTokenInvalid))
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Redeem(ctx, "bogus", "brand-new-password")
		assert.True(t, errors.IsCode(err, errors.ErrCodeResetTokenInvalid))
	})

	t.Run("short password is rejected before the token is checked", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.Request(ctx, "alice@example.com"))
		token := f.notifier.token

		_, err := f.svc.Redeem(ctx, token, "short")
		assert.True(t, errors.IsCode(err, errors.ErrCodePasswordTooShort))

		// The token survives the rejected attempt.
		_, err = f.svc.Redeem(ctx, token, "brand-new-password")
		assert.NoError(t, err)
	})
}
