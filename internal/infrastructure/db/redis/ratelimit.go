package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Policy names used by the HTTP layer.
const (
	PolicyDefault           = "default"
	PolicyEmailVerification = "email-verification"
)

// Policy is a fixed-window budget: at most Limit hits per Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// hitScript increments the counter and arms the window in one step. A counter
// left without a TTL gets one on its next hit.
var hitScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// Limiter is a fixed-window rate limiter backed by Redis.
// Key format: ratelimit:<policy>:<key>
type Limiter struct {
	client   *redis.Client
	policies map[string]Policy
}

// NewLimiter creates a Limiter. Unknown policy names are always allowed.
func NewLimiter(client *redis.Client, policies map[string]Policy) *Limiter {
	return &Limiter{client: client, policies: policies}
}

// Allow counts one hit for key and reports whether it stays within budget.
// The window starts at the first hit.
func (l *Limiter) Allow(ctx context.Context, policy, key string) (bool, error) {
	p, ok := l.policies[policy]
	if !ok || p.Limit <= 0 {
		return true, nil
	}

	count, err := hitScript.Run(ctx, l.client, []string{l.key(policy, key)}, p.Window.Milliseconds()).Int64()
	if err != nil {
		return true, fmt.Errorf("rate limit hit: %w", err)
	}
	return count <= int64(p.Limit), nil
}

func (l *Limiter) key(policy, key string) string {
	return fmt.Sprintf("ratelimit:%s:%s", policy, key)
}
