package middlewares

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"vach_chat_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RateLimitResult result of a sliding window check
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	Limit     int
}

// Limiter sliding window limiter
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error)
}

// FailureLimiter counts only failed attempts, check and record are separate
type FailureLimiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error)
	RecordFailure(ctx context.Context, key string, window time.Duration) error
}

// RedisLimiter sliding window rate limiting on a redis sorted set
type RedisLimiter struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisLimiter init limiter
func NewRedisLimiter(client redis.UniversalClient, keyPrefix string) *RedisLimiter {
	return &RedisLimiter{client: client, keyPrefix: keyPrefix}
}

var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local current = redis.call('ZCARD', key)
	if current < limit then
		local counter = redis.call('INCR', key .. ':counter')
		redis.call('ZADD', key, now, now .. ':' .. counter)
		local expire_seconds = math.ceil(window_ms / 1000)
		redis.call('EXPIRE', key, expire_seconds)
		redis.call('EXPIRE', key .. ':counter', expire_seconds)
		return {1, limit - current - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local reset_at = 0
	if oldest and #oldest >= 2 then
		reset_at = tonumber(oldest[2]) + window_ms
	end
	return {0, 0, reset_at}
`)

// Allow checks if a request is allowed under the rate limit
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	now := time.Now()

	result, err := slidingWindowScript.Run(ctx, l.client, []string{l.keyPrefix + key},
		now.UnixMilli(), now.Add(-window).UnixMilli(), limit, window.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis script error: %w", err)
	}
	if len(result) != 3 {
		return nil, fmt.Errorf("unexpected redis response length: %d", len(result))
	}

	resetAt := now.Add(window)
	if result[2] > 0 {
		resetAt = time.UnixMilli(result[2])
	}

	return &RateLimitResult{
		Allowed:   result[0] == 1,
		Remaining: int(result[1]),
		ResetAt:   resetAt,
		Limit:     limit,
	}, nil
}

// SendRateLimit limit message sends per member, must run after JWTMiddleware
func SendRateLimit(l Limiter, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		memberID := MemberID(c)
		if memberID == "" {
			return c.Next()
		}

		res, err := l.Allow(c.UserContext(), "send:"+memberID, limit, window)
		if err != nil {
			// redis 掛掉時不擋訊息
			logger.Log.Warn("rate limiter unavailable", zap.String("member_id", memberID), zap.Error(err))
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			return tooManyRequests(c, res, "Too many messages sent. Please slow down.")
		}
		return c.Next()
	}
}

// Check 只看目前視窗內的次數, 不記錄這次請求
func (l *RedisLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	now := time.Now()
	k := l.keyPrefix + key

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", strconv.FormatInt(now.Add(-window).UnixMilli(), 10))
	count := pipe.ZCard(ctx, k)
	oldest := pipe.ZRangeWithScores(ctx, k, 0, 0)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis check error: %w", err)
	}

	used := int(count.Val())
	resetAt := now.Add(window)
	if zs := oldest.Val(); len(zs) > 0 {
		resetAt = time.UnixMilli(int64(zs[0].Score)).Add(window)
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return &RateLimitResult{
		Allowed:   used < limit,
		Remaining: remaining,
		ResetAt:   resetAt,
		Limit:     limit,
	}, nil
}

// RecordFailure 記錄一次失敗
func (l *RedisLimiter) RecordFailure(ctx context.Context, key string, window time.Duration) error {
	now := time.Now()
	k := l.keyPrefix + key

	pipe := l.client.TxPipeline()
	pipe.ZAdd(ctx, k, &redis.Z{Score: float64(now.UnixMilli()), Member: uuid.New().String()})
	pipe.Expire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis record error: %w", err)
	}
	return nil
}

// AuthRateLimit 以 IP 限制 signup / signin 的失敗次數, 成功的請求不計
func AuthRateLimit(l FailureLimiter, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := "auth:" + c.IP()

		res, err := l.Check(c.UserContext(), key, limit, window)
		if err != nil {
			logger.Log.Warn("auth rate limiter unavailable", zap.String("ip", c.IP()), zap.Error(err))
			return c.Next()
		}
		if !res.Allowed {
			return tooManyRequests(c, res, "Too many authentication attempts, please try again later.")
		}

		err = c.Next()
		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
		if status >= fiber.StatusBadRequest && status < fiber.StatusInternalServerError {
			if rerr := l.RecordFailure(c.UserContext(), key, window); rerr != nil {
				logger.Log.Warn("record auth failure failed", zap.String("ip", c.IP()), zap.Error(rerr))
			}
		}
		return err
	}
}

func tooManyRequests(c *fiber.Ctx, res *RateLimitResult, msg string) error {
	retryAfter := int(time.Until(res.ResetAt).Seconds()) + 1
	c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": msg})
}
