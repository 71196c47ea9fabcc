package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/estribo-center/estribo/internal/shared"
)

type memoryAuthRepo struct {
	byEmail map[string]*User
}

func (r *memoryAuthRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *memoryAuthRepo) CreateUser(ctx context.Context, email, alias, passwordHash string) (*User, error) {
	if _, ok := r.byEmail[email]; ok {
		return nil, shared.ErrDuplicate
	}
	u := &User{ID: int64(len(r.byEmail) + 1), Email: email, Alias: alias, PasswordHash: passwordHash, IsActive: true}
	r.byEmail[email] = u
	clone := *u
	return &clone, nil
}

func (r *memoryAuthRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (r *memoryAuthRepo) DeleteSession(ctx context.Context, id string) error { return nil }

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthenticateSuccessStripsHash(t *testing.T) {
	repo := &memoryAuthRepo{byEmail: map[string]*User{
		"alice@example.com": {ID: 1, Email: "alice@example.com", PasswordHash: mustHash(t, "pw12345678"), IsActive: true},
	}}
	svc := NewService(repo)

	user, err := svc.Authenticate(context.Background(), "alice@example.com", "pw12345678")
	require.NoError(t, err)
	require.Equal(t, int64(1), user.ID)
	require.Empty(t, user.PasswordHash)
}

func TestAuthenticateUniformFailure(t *testing.T) {
	repo := &memoryAuthRepo{byEmail: map[string]*User{
		"alice@example.com": {ID: 1, Email: "alice@example.com", PasswordHash: mustHash(t, "pw12345678"), IsActive: true},
		"carla@example.com": {ID: 2, Email: "carla@example.com", PasswordHash: mustHash(t, "pw12345678"), IsActive: false},
	}}
	svc := NewService(repo)

	// Unknown email, wrong password and disabled account are
	// indistinguishable from the outside.
	_, unknownErr := svc.Authenticate(context.Background(), "nobody@example.com", "pw12345678")
	_, wrongErr := svc.Authenticate(context.Background(), "alice@example.com", "not-the-password")
	_, disabledErr := svc.Authenticate(context.Background(), "carla@example.com", "pw12345678")

	require.ErrorIs(t, unknownErr, shared.ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, shared.ErrInvalidCredentials)
	require.ErrorIs(t, disabledErr, shared.ErrInvalidCredentials)
}

func TestRegisterHashesAndRejectsDuplicates(t *testing.T) {
	repo := &memoryAuthRepo{byEmail: map[string]*User{}}
	svc := NewService(repo)

	user, err := svc.Register(context.Background(), "nina@example.com", "nina", "pw12345678")
	require.NoError(t, err)
	require.Empty(t, user.PasswordHash)

	stored := repo.byEmail["nina@example.com"]
	require.NotEqual(t, "pw12345678", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pw12345678")))

	_, err = svc.Register(context.Background(), "nina@example.com", "nina2", "pw12345678")
	require.ErrorIs(t, err, shared.ErrDuplicate)
}
