package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/config"
	"github.com/princekumarofficial/familybook/internal/ratelimit"
	"github.com/princekumarofficial/familybook/internal/utils/response"
)

type RateLimitConfig struct {
	limiters map[string]*ratelimit.TokenBucket
	logger   *zap.Logger
}

func NewRateLimitConfig(redisClient *redis.Client, cfg config.RateLimit, logger *zap.Logger) *RateLimitConfig {
	limits := map[string]int64{
		ratelimit.ActionUploads:  cfg.UploadsPerMinute,
		ratelimit.ActionComments: cfg.CommentsPerMinute,
		ratelimit.ActionJoins:    cfg.JoinsPerMinute,
	}

	rlc := &RateLimitConfig{
		limiters: make(map[string]*ratelimit.TokenBucket, len(limits)),
		logger:   logger,
	}
	for action, perMinute := range limits {
		if perMinute > 0 {
			rlc.limiters[action] = ratelimit.NewTokenBucket(redisClient, action, perMinute, perMinute)
		}
	}
	return rlc
}

func (rlc *RateLimitConfig) RateLimitMiddleware(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Auth middleware runs first.
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("user not authenticated")))
				return
			}

			limiter, exists := rlc.limiters[action]
			if !exists {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := limiter.Allow(r.Context(), userID)
			if err != nil {
				rlc.logger.Error("rate limit check failed", zap.String("action", action), zap.Error(err))
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(
					errors.New("rate limit check failed")))
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(int(decision.Reset.Seconds())))

			if !decision.Allowed {
				response.WriteJSON(w, http.StatusTooManyRequests, response.GeneralError(
					errors.New("rate limit exceeded")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
