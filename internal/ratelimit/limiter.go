package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ipLimitWindow = 15 * time.Minute
	ipLimitMax    = 10
	cooldownTTL   = 2 * time.Minute
)

// Limiter throttles the OTP-mailing endpoints using Redis counters. It is
// deliberately not applied to login or registration.
type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// CheckIPRateLimit reports whether the IP has used up its request budget for
// the given purpose within the current window.
func (l *Limiter) CheckIPRateLimit(ctx context.Context, ip, purpose string) (bool, error) {
	count, err := l.client.Get(ctx, ipKey(ip, purpose)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check IP rate limit: %w", err)
	}
	return count >= ipLimitMax, nil
}

// RecordIPRequest counts one request against the IP's budget. The window TTL
// is set on first use and left untouched afterwards.
func (l *Limiter) RecordIPRequest(ctx context.Context, ip, purpose string) error {
	key := ipKey(ip, purpose)

	pipe := l.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ipLimitWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record IP request: %w", err)
	}

	return nil
}

// CheckCooldown reports whether the key (an email or account id) asked for
// an OTP too recently.
func (l *Limiter) CheckCooldown(ctx context.Context, key, purpose string) (bool, error) {
	exists, err := l.client.Exists(ctx, cooldownKey(key, purpose)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check cooldown: %w", err)
	}
	return exists > 0, nil
}

// SetCooldown starts the cooldown window for the key.
func (l *Limiter) SetCooldown(ctx context.Context, key, purpose string) error {
	if err := l.client.Set(ctx, cooldownKey(key, purpose), "1", cooldownTTL).Err(); err != nil {
		return fmt.Errorf("failed to set cooldown: %w", err)
	}
	return nil
}

func ipKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:ip:%s:%s", purpose, hashKey(ip))
}

func cooldownKey(key, purpose string) string {
	return fmt.Sprintf("ratelimit:cooldown:%s:%s", purpose, hashKey(key))
}

// hashKey keeps raw IPs and emails out of Redis keys.
func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
