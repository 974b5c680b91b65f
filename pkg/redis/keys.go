package redis

import (
	"strconv"
	"strings"
)

// Every key lives under "se:<area>:...".
const (
	keyNamespace = "se"

	areaIdempotency = "idempotency"
	areaRateLimit   = "rate_limit"
	areaSession     = "session"
)

// IdempotencyKey names the stored checkout response for a client-supplied key.
func (c *Client) IdempotencyKey(scope, id string) string {
	return key(areaIdempotency, scope, id)
}

// RateLimitKey names a throttling counter, e.g. "login:ip:10.0.0.1".
func (c *Client) RateLimitKey(scope string) string {
	return key(areaRateLimit, scope)
}

// AccessSessionKey names the refresh session bound to an access token jti.
func (c *Client) AccessSessionKey(accessID string) string {
	return key(areaSession, "access", accessID)
}

// UserSessionsKey names the set of access ids a user currently holds.
func (c *Client) UserSessionsKey(userID int64) string {
	return key(areaSession, "user", strconv.FormatInt(userID, 10))
}

func key(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}
