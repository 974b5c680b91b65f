package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/shopeasy-backend/api/responses"
	pkgerrors "github.com/angelmondragon/shopeasy-backend/pkg/errors"
	"github.com/angelmondragon/shopeasy-backend/pkg/logger"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	pendingLockTTL        = time.Minute
	idempotencyHeader     = "Idempotency-Key"
	replayedHeader        = "Idempotent-Replayed"
)

// IdempotencyStore is the Redis surface used to reserve and replay responses.
type IdempotencyStore interface {
	Get(context.Context, string) (string, error)
	Set(context.Context, string, any, time.Duration) error
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	Del(context.Context, ...string) error
	IdempotencyKey(scope, id string) string
}

// guardedRoutes lists the chi patterns, per method, that create resources.
var guardedRoutes = map[string][]string{
	http.MethodPost: {"/api/v1/orders"},
}

var (
	errInFlight    = pkgerrors.New(pkgerrors.CodeIdempotency, "request with this idempotency key is still in progress")
	errBodyChanged = pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body")
)

// storedResponse is what a key resolves to. A pending entry only holds the
// fingerprint until the first request finishes.
type storedResponse struct {
	Pending     bool   `json:"pending,omitempty"`
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// ledger binds one Idempotency-Key to its redis entry.
type ledger struct {
	store       IdempotencyStore
	key         string
	fingerprint string
}

func (l ledger) reserve(ctx context.Context) (bool, error) {
	pending, err := json.Marshal(storedResponse{Pending: true, Fingerprint: l.fingerprint})
	if err != nil {
		return false, err
	}
	return l.store.SetNX(ctx, l.key, string(pending), pendingLockTTL)
}

// lookup returns the completed response for the key or an error explaining
// why it cannot be replayed.
func (l ledger) lookup(ctx context.Context) (*storedResponse, error) {
	raw, err := l.store.Get(ctx, l.key)
	if errors.Is(err, redis.Nil) {
		return nil, errInFlight
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}
	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	switch {
	case stored.Fingerprint != l.fingerprint:
		return nil, errBodyChanged
	case stored.Pending:
		return nil, errInFlight
	}
	return &stored, nil
}

func (l ledger) complete(ctx context.Context, stored storedResponse, ttl time.Duration) error {
	stored.Fingerprint = l.fingerprint
	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal idempotency record: %w", err)
	}
	return l.store.Set(ctx, l.key, string(payload), ttl)
}

func (l ledger) release(ctx context.Context) error {
	return l.store.Del(ctx, l.key)
}

// Idempotency makes order creation safe to retry. The first request for an
// Idempotency-Key runs and its response is kept for ttl; repeats with the same
// body get that response back. Server errors release the key.
func Idempotency(store IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil || !guarded(r.Method, routePattern(r)) {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.Field(idempotencyHeader, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			entry := ledger{
				store:       store,
				key:         store.IdempotencyKey(requestScope(r), clientKey),
				fingerprint: fingerprint(body),
			}

			reserved, err := entry.reserve(ctx)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
				return
			}
			if !reserved {
				stored, err := entry.lookup(ctx)
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				replay(w, stored)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			status := capture.statusOrOK()
			if status >= http.StatusInternalServerError {
				logFailure(ctx, logg, "idempotency.release_failed", entry.release(ctx))
				return
			}
			logFailure(ctx, logg, "idempotency.persist_failed", entry.complete(ctx, storedResponse{
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			}, ttl))
		})
	}
}

func replay(w http.ResponseWriter, stored *storedResponse) {
	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(stored.Body)
}

// requestScope keeps keys from different users or endpoints from colliding.
func requestScope(r *http.Request) string {
	return fmt.Sprintf("%d|%s|%s", UserIDFromContext(r.Context()), r.Method, r.URL.Path)
}

func fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func guarded(method, pattern string) bool {
	pattern = strings.TrimSuffix(pattern, "/")
	if pattern == "" {
		return false
	}
	for _, candidate := range guardedRoutes[method] {
		if candidate == pattern {
			return true
		}
	}
	return false
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusOrOK() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

func logFailure(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
