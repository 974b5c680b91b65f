package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/shopeasy-backend/pkg/config"
	redisclient "github.com/angelmondragon/shopeasy-backend/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

const refreshTokenBytes = 32

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AddMember(ctx context.Context, key, member string, ttl time.Duration) error
	Members(ctx context.Context, key string) ([]string, error)
	RemoveMembers(ctx context.Context, key string, members ...string) error
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
	UserSessionsKey(userID int64) string
}

// Session is the refresh state bound to a single access token id.
type Session struct {
	AccessID     string `json:"-"`
	UserID       int64  `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Manager stores refresh sessions in Redis keyed by access token jti. Each
// user also has a set of live access ids so all of them can be revoked at once.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}
	return &Manager{store: client, keyer: client, ttl: ttl}, nil
}

// Start opens a new session for the user and returns its access id and refresh token.
func (m *Manager) Start(ctx context.Context, userID int64) (Session, error) {
	if userID <= 0 {
		return Session{}, fmt.Errorf("user id is required")
	}
	return m.persist(ctx, NewAccessID(), userID)
}

// Rotate exchanges a valid refresh token for a fresh session and drops the old one.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (Session, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(provided) == "" {
		return Session{}, ErrInvalidRefreshToken
	}

	key := m.keyer.AccessSessionKey(oldAccessID)
	current, err := m.load(ctx, key)
	if err != nil {
		return Session{}, err
	}
	if subtle.ConstantTimeCompare([]byte(current.RefreshToken), []byte(provided)) != 1 {
		return Session{}, ErrInvalidRefreshToken
	}

	next, err := m.persist(ctx, NewAccessID(), current.UserID)
	if err != nil {
		return Session{}, err
	}
	if err := m.drop(ctx, current.UserID, oldAccessID); err != nil {
		return Session{}, err
	}
	return next, nil
}

// Revoke deletes the refresh session tied to the access identifier. Revoking
// an unknown or expired session is not an error.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	key := m.keyer.AccessSessionKey(accessID)
	current, err := m.load(ctx, key)
	if errors.Is(err, ErrInvalidRefreshToken) {
		return m.store.Del(ctx, key)
	}
	if err != nil {
		return err
	}
	return m.drop(ctx, current.UserID, accessID)
}

// RevokeOthers ends every session of userID except keepAccessID and reports
// how many were dropped.
func (m *Manager) RevokeOthers(ctx context.Context, userID int64, keepAccessID string) (int, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("user id is required")
	}
	setKey := m.keyer.UserSessionsKey(userID)
	members, err := m.store.Members(ctx, setKey)
	if err != nil {
		return 0, err
	}

	var stale, keys []string
	for _, accessID := range members {
		if accessID == keepAccessID {
			continue
		}
		stale = append(stale, accessID)
		keys = append(keys, m.keyer.AccessSessionKey(accessID))
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if err := m.store.Del(ctx, keys...); err != nil {
		return 0, err
	}
	if err := m.store.RemoveMembers(ctx, setKey, stale...); err != nil {
		return 0, err
	}
	return len(stale), nil
}

// HasSession reports whether the access id still has an active refresh session.
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

// NewAccessID produces the identifier used as JWT jti and Redis key suffix.
func NewAccessID() string {
	return uuid.NewString()
}

func (m *Manager) persist(ctx context.Context, accessID string, userID int64) (Session, error) {
	token, err := generateRefreshToken()
	if err != nil {
		return Session{}, err
	}
	sess := Session{AccessID: accessID, UserID: userID, RefreshToken: token}
	payload, err := json.Marshal(sess)
	if err != nil {
		return Session{}, fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Set(ctx, m.keyer.AccessSessionKey(accessID), string(payload), m.ttl); err != nil {
		return Session{}, err
	}
	if err := m.store.AddMember(ctx, m.keyer.UserSessionsKey(userID), accessID, m.ttl); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (m *Manager) drop(ctx context.Context, userID int64, accessID string) error {
	if err := m.store.Del(ctx, m.keyer.AccessSessionKey(accessID)); err != nil {
		return err
	}
	return m.store.RemoveMembers(ctx, m.keyer.UserSessionsKey(userID), accessID)
}

func (m *Manager) load(ctx context.Context, key string) (Session, error) {
	raw, err := m.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return Session{}, ErrInvalidRefreshToken
		}
		return Session{}, err
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.UserID <= 0 {
		return Session{}, ErrInvalidRefreshToken
	}
	return sess, nil
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
