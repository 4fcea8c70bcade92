package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chat-relay/internal/auth"
	"chat-relay/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserStore struct {
	users map[string]*models.User
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("not found")
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (f *fakeUserStore) CreateUser(_ context.Context, req *models.RegisterRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:           fmt.Sprintf("user-%d", len(f.users)+1),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	f.users[req.Email] = u
	return u, nil
}

func (f *fakeUserStore) Close() error { return nil }

func TestRegisterThenLoginOverHTTP(t *testing.T) {
	cfg := testConfig()
	store := &fakeUserStore{users: make(map[string]*models.User)}
	authService := auth.NewService(store, cfg)
	h := NewAuthHandlers(authService, zerolog.Nop())

	body := []byte(`{"username":"alice","email":"alice@example.com","password":"correct-horse"}`)
	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)

	body = []byte(`{"email":"alice@example.com","password":"correct-horse"}`)
	req = httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	h.Login(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	cfg := testConfig()
	store := &fakeUserStore{users: make(map[string]*models.User)}
	authService := auth.NewService(store, cfg)
	h := NewAuthHandlers(authService, zerolog.Nop())

	body := []byte(`{"email":"nobody@example.com","password":"whatever1"}`)
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterRejectsInvalidBody(t *testing.T) {
	cfg := testConfig()
	authService := auth.NewService(&fakeUserStore{users: map[string]*models.User{}}, cfg)
	h := NewAuthHandlers(authService, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.Register(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
