package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	errResendRateLimited      = errors.New("verification resend rate limited")
	errResendLimiterUnavailable = errors.New("verification resend limiter unavailable")
)

// resendLimiter enforces a fixed window of verification sends per
// account. Once the counter passes the threshold, callers are refused
// until the window key expires — no mail transport call happens during
// the cool-down.
type resendLimiter struct {
	redis    *redis.Client
	maxSends int
	window   time.Duration
}

func newResendLimiter(redisClient *redis.Client, maxSends int, window time.Duration) *resendLimiter {
	return &resendLimiter{redis: redisClient, maxSends: maxSends, window: window}
}

func (l *resendLimiter) Check(ctx context.Context, accountID string) error {
	key := resendKey(accountID)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", errResendLimiterUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", errResendLimiterUnavailable, err)
		}
	}

	if count > int64(l.maxSends) {
		return errResendRateLimited
	}

	return nil
}

func resendKey(accountID string) string {
	return "verify:resend:" + accountID
}
