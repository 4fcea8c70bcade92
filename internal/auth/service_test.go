package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"chat-relay/internal/config"
	"chat-relay/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memoryDB implements database.Database without a real Postgres.
type memoryDB struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
	nextID  int
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		byEmail: make(map[string]*models.User),
		byID:    make(map[string]*models.User),
	}
}

func (m *memoryDB) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("no user with email %s", email)
	}
	return user, nil
}

func (m *memoryDB) GetUserByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("no user with id %s", id)
	}
	return user, nil
}

func (m *memoryDB) CreateUser(_ context.Context, req *models.RegisterRequest) (*models.User, error) {
	if _, ok := m.byEmail[req.Email]; ok {
		return nil, fmt.Errorf("email already registered")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	m.nextID++
	user := &models.User{
		ID:           fmt.Sprintf("user-%d", m.nextID),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	m.byEmail[user.Email] = user
	m.byID[user.ID] = user
	return user, nil
}

func (m *memoryDB) Close() error { return nil }

func testConfig(expiresIn time.Duration) *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:    []byte("test-secret"),
			ExpiresIn: expiresIn,
		},
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	svc := NewService(newMemoryDB(), testConfig(time.Hour))

	user := &models.User{ID: "user-42", Username: "alice"}
	token, err := svc.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", identity.UserID)
	assert.Equal(t, "alice", identity.Sender)
}

func TestVerifyMissingToken(t *testing.T) {
	svc := NewService(newMemoryDB(), testConfig(time.Hour))

	_, err := svc.Verify("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestVerifyTamperedToken(t *testing.T) {
	svc := NewService(newMemoryDB(), testConfig(time.Hour))

	token, err := svc.GenerateToken(&models.User{ID: "user-1", Username: "bob"})
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = svc.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpiredToken(t *testing.T) {
	svc := NewService(newMemoryDB(), testConfig(-time.Minute))

	token, err := svc.GenerateToken(&models.User{ID: "user-1", Username: "bob"})
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	minter := NewService(newMemoryDB(), &config.Config{
		JWT: config.JWTConfig{Secret: []byte("other-secret"), ExpiresIn: time.Hour},
	})
	svc := NewService(newMemoryDB(), testConfig(time.Hour))

	token, err := minter.GenerateToken(&models.User{ID: "user-1", Username: "bob"})
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	svc := NewService(newMemoryDB(), testConfig(time.Hour))

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: "user-1",
		Sender: "mallory",
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMalformedToken(t *testing.T) {
	svc := NewService(newMemoryDB(), testConfig(time.Hour))

	for _, raw := range []string{"not-a-token", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.garbage"} {
		_, err := svc.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", raw)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := NewService(newMemoryDB(), testConfig(time.Hour))
	ctx := context.Background()

	reg, err := svc.Register(ctx, &models.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, reg.Token)

	// The minted token must verify and carry the registered identity.
	identity, err := svc.Verify(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, identity.UserID)
	assert.Equal(t, "alice", identity.Sender)

	login, err := svc.Login(ctx, &models.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Empty(t, login.User.PasswordHash)

	_, err = svc.Login(ctx, &models.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	assert.Error(t, err)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(newMemoryDB(), testConfig(time.Hour))
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.RegisterRequest
	}{
		{"missing fields", models.RegisterRequest{Username: "alice"}},
		{"bad email", models.RegisterRequest{Username: "alice", Email: "not-an-email", Password: "longenough"}},
		{"short password", models.RegisterRequest{Username: "alice", Email: "a@b.co", Password: "short"}},
		{"short username", models.RegisterRequest{Username: "al", Email: "a@b.co", Password: "longenough"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, &tt.req)
			assert.Error(t, err)
		})
	}
}
