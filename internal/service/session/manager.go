package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/shiftboard/internal/config"
	"github.com/mamadbah2/shiftboard/internal/domain/models"
	"github.com/mamadbah2/shiftboard/pkg/clients/identity"
)

var (
	// ErrMissingFields is returned when email or password is blank.
	ErrMissingFields = errors.New("email and password are required")
	// ErrInvalidCredentials covers every provider rejection, wrong password and unknown account alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned for missing, malformed, expired or revoked tokens.
	ErrUnauthenticated = errors.New("not signed in")
)

// Session is the result of a successful sign-in.
type Session struct {
	ID        string      `json:"id"`
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Change is delivered to listeners on every sign-in and sign-out. User is nil after a sign-out.
type Change struct {
	SessionID string
	User      *models.User
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Manager issues and validates dashboard sessions.
type Manager struct {
	provider identity.Client
	store    Store
	secret   []byte
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	listeners map[int]func(Change)
	nextID    int
}

// NewManager wires a session manager.
func NewManager(cfg config.SessionConfig, provider identity.Client, store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{
		provider:  provider,
		store:     store,
		secret:    []byte(cfg.Secret),
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
		listeners: make(map[int]func(Change)),
	}
}

// SignIn authenticates with the identity provider and opens a new session.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	account, err := m.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, identity.ErrRejected) {
			m.logger.Info("sign in rejected", zap.String("email", email))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}

	now := m.now()
	user := models.User{ID: account.LocalID, Email: account.Email}
	record := Record{ID: uuid.NewString(), User: user, ExpiresAt: now.Add(m.ttl)}

	token, err := m.sign(record, now)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, record); err != nil {
		return nil, err
	}

	m.logger.Info("session opened", zap.String("session_id", record.ID), zap.String("email", user.Email))
	m.notify(Change{SessionID: record.ID, User: &user})

	return &Session{ID: record.ID, Token: token, User: user, ExpiresAt: record.ExpiresAt}, nil
}

// CurrentUser resolves the user behind token.
func (m *Manager) CurrentUser(ctx context.Context, token string) (*models.User, string, error) {
	sessionID, err := m.parse(token)
	if err != nil {
		return nil, "", err
	}

	record, err := m.store.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, "", ErrUnauthenticated
	}
	if err != nil {
		return nil, "", err
	}

	user := record.User
	return &user, record.ID, nil
}

// SignOut revokes the session behind token and notifies listeners.
func (m *Manager) SignOut(ctx context.Context, token string) error {
	sessionID, err := m.parse(token)
	if err != nil {
		return err
	}
	if err := m.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	m.logger.Info("session closed", zap.String("session_id", sessionID))
	m.notify(Change{SessionID: sessionID})
	return nil
}

// OnSessionChange registers cb for every sign-in and sign-out. The returned func unregisters it.
func (m *Manager) OnSessionChange(cb func(Change)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = cb
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Manager) notify(change Change) {
	m.mu.Lock()
	callbacks := make([]func(Change), 0, len(m.listeners))
	for _, cb := range m.listeners {
		callbacks = append(callbacks, cb)
	}
	m.mu.Unlock()

	for _, cb := range callbacks {
		cb(change)
	}
}

func (m *Manager) sign(record Record, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: record.User.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        record.ID,
			Subject:   record.User.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(record.ExpiresAt),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func (m *Manager) parse(token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}

	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return "", ErrUnauthenticated
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || c.ID == "" {
		return "", ErrUnauthenticated
	}
	return c.ID, nil
}
