package api

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"slotbook/internal/config"
	"slotbook/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// tenantLimiter is a token bucket per authenticated client.
type tenantLimiter struct {
	limiters sync.Map // client id -> *rate.Limiter
	rps      rate.Limit
	burst    int
}

func newTenantLimiter(cfg config.APIRateLimitConfig) *tenantLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}
	return &tenantLimiter{rps: rate.Limit(cfg.RPS), burst: burst}
}

func (l *tenantLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(l.rps, l.burst)
	actual, _ := l.limiters.LoadOrStore(key, lim)
	return actual.(*rate.Limiter)
}

// Middleware must run after the auth middleware. A non-positive rps disables it.
func (l *tenantLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if l.rps <= 0 {
				return next(c)
			}
			clientID, err := tenantID(c)
			if err != nil {
				return err
			}
			if !l.getLimiter(strconv.FormatInt(clientID, 10)).Allow() {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}

// publicLimiter is a fixed window per remote IP, shared through the RateLimitStore.
type publicLimiter struct {
	store  domain.RateLimitStore
	limit  int
	window time.Duration
	logger *zerolog.Logger
}

func newPublicLimiter(store domain.RateLimitStore, cfg config.APIRateLimitConfig, logger *zerolog.Logger) *publicLimiter {
	return &publicLimiter{
		store:  store,
		limit:  cfg.PublicRequests,
		window: time.Duration(cfg.PublicWindow) * time.Second,
		logger: logger,
	}
}

// Middleware fails open when the store errors: public reads stay available.
func (l *publicLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if l.store == nil || l.limit <= 0 {
				return next(c)
			}
			key := fmt.Sprintf("public:%s", c.RealIP())
			allowed, err := l.store.CheckRateLimit(c.Request().Context(), key, l.limit, l.window)
			if err != nil {
				l.logger.Warn().Err(err).Str("key", key).Msg("Rate limit check failed")
				return next(c)
			}
			if !allowed {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
