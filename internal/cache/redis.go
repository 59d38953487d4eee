// Package cache wraps redis for data that needs TTLs and fast access:
// pending OTP requests and the JWT logout blacklist.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"agsa-server/internal/config"
)

// ErrOTPNotFound is returned when a request id has expired or never
// existed. Callers must not distinguish the two cases.
var ErrOTPNotFound = errors.New("otp request not found or expired")

// OTPRequest is the cached state of one pending OTP verification.
// Only the bcrypt hash of the code is stored.
type OTPRequest struct {
	PhoneNumber string `json:"phone_number"`
	OTPHash     string `json:"otp_hash"`
	Attempts    int    `json:"attempts"`
	MaxAttempts int    `json:"max_attempts"`
}

// RedisCache wraps the redis client with portal-specific operations.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to redis and verifies the connection.
func NewRedisCache(cfg *config.Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Close closes the redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// ==================== OTP requests ====================
// A pending request lives under otp:request:<id> with the configured
// TTL; the key's expiry is the code's expiry, so stale requests clean
// themselves up.

// SetOTPRequest stores a new pending OTP request under requestID.
func (c *RedisCache) SetOTPRequest(ctx context.Context, requestID string, req *OTPRequest, ttl time.Duration) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, otpRequestKey(requestID), data, ttl).Err()
}

// GetOTPRequest loads a pending request. Returns ErrOTPNotFound when
// the id is unknown or the request has expired.
func (c *RedisCache) GetOTPRequest(ctx context.Context, requestID string) (*OTPRequest, error) {
	data, err := c.client.Get(ctx, otpRequestKey(requestID)).Bytes()
	if err == redis.Nil {
		return nil, ErrOTPNotFound
	}
	if err != nil {
		return nil, err
	}

	var req OTPRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// UpdateOTPRequest rewrites a pending request (after an attempt),
// preserving the original expiry.
func (c *RedisCache) UpdateOTPRequest(ctx context.Context, requestID string, req *OTPRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	// KeepTTL: the attempt counter must not extend the code's life.
	return c.client.Set(ctx, otpRequestKey(requestID), data, redis.KeepTTL).Err()
}

// DeleteOTPRequest removes a request once it is verified or exhausted.
func (c *RedisCache) DeleteOTPRequest(ctx context.Context, requestID string) error {
	return c.client.Del(ctx, otpRequestKey(requestID)).Err()
}

// MarkOTPSent sets the per-phone resend throttle. Returns false when a
// throttle is already in place, i.e. the previous code was sent less
// than the interval ago.
func (c *RedisCache) MarkOTPSent(ctx context.Context, phoneNumber string, interval time.Duration) (bool, error) {
	// SETNX: only the first caller within the window succeeds.
	return c.client.SetNX(ctx, fmt.Sprintf("otp:throttle:%s", phoneNumber), "1", interval).Result()
}

func otpRequestKey(requestID string) string {
	return fmt.Sprintf("otp:request:%s", requestID)
}

// ==================== JWT blacklist ====================
// Logout invalidates the current token by blacklisting its hash until
// the token would have expired anyway.

// BlacklistToken adds a token hash to the blacklist.
func (c *RedisCache) BlacklistToken(ctx context.Context, tokenHash string, expireAt time.Time) error {
	ttl := time.Until(expireAt)
	if ttl <= 0 {
		// Already expired, nothing to do.
		return nil
	}
	return c.client.Set(ctx, fmt.Sprintf("jwt:blacklist:%s", tokenHash), "1", ttl).Err()
}

// IsTokenBlacklisted reports whether a token hash has been blacklisted.
func (c *RedisCache) IsTokenBlacklisted(ctx context.Context, tokenHash string) bool {
	return c.client.Exists(ctx, fmt.Sprintf("jwt:blacklist:%s", tokenHash)).Val() > 0
}
