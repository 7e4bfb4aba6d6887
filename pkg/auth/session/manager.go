package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/neumaticos/tirestore/pkg/config"
	redisclient "github.com/neumaticos/tirestore/pkg/redis"
)

const (
	refreshTokenBytes = 32
	recordSeparator   = "|"
)

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
}

// Manager binds refresh tokens to a user and the access token (jti) they
// were issued with. Each record lives under its own key, so logging out of
// one device leaves the others alive.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}

	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
	}, nil
}

// TTL reports how long refresh sessions stay valid.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Generate creates a refresh token for the user's access ID and stores it.
func (m *Manager) Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", fmt.Errorf("access id is required")
	}
	if userID == uuid.Nil {
		return "", fmt.Errorf("user id is required")
	}
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, m.keyer.AccessSessionKey(accessID), encodeRecord(userID, token), m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate validates the provided refresh token against the session opened for
// oldAccessID, drops that session and opens a new one for the same user.
func (m *Manager) Rotate(ctx context.Context, oldAccessID string, userID uuid.UUID, provided string) (string, string, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(provided) == "" {
		return "", "", ErrInvalidRefreshToken
	}

	key := m.keyer.AccessSessionKey(oldAccessID)
	stored, err := m.store.Get(ctx, key)
	if err != nil {
		return "", "", wrapNotFound(err)
	}
	owner, token, ok := decodeRecord(stored)
	if !ok || owner != userID {
		return "", "", ErrInvalidRefreshToken
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(provided)) != 1 {
		return "", "", ErrInvalidRefreshToken
	}

	newAccessID := NewAccessID()
	newToken, err := m.Generate(ctx, newAccessID, userID)
	if err != nil {
		return "", "", err
	}
	if err := m.store.Del(ctx, key); err != nil {
		return "", "", err
	}
	return newAccessID, newToken, nil
}

// Revoke deletes the refresh mapping tied to the access identifier.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return m.store.Del(ctx, m.keyer.AccessSessionKey(accessID))
}

// HasSession reports whether the provided access ID still has an active refresh session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, fmt.Errorf("access id is required")
	}
	if _, err := m.store.Get(ctx, m.keyer.AccessSessionKey(accessID)); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewAccessID produces the identifier used as the JWT jti and session key.
func NewAccessID() string {
	return uuid.NewString()
}

func encodeRecord(userID uuid.UUID, token string) string {
	return userID.String() + recordSeparator + token
}

func decodeRecord(raw string) (uuid.UUID, string, bool) {
	owner, token, found := strings.Cut(raw, recordSeparator)
	if !found || token == "" {
		return uuid.Nil, "", false
	}
	id, err := uuid.Parse(owner)
	if err != nil {
		return uuid.Nil, "", false
	}
	return id, token, true
}

func generateRefreshToken() (string, error) {
	bytes := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, redislib.Nil) {
		return ErrInvalidRefreshToken
	}
	return err
}
