package middleware

import (
	"strconv"

	"github.com/vibast-solutions/ms-go-console/app/ratelimit"
	"github.com/vibast-solutions/ms-go-console/app/rpcerr"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

var ErrTooManyRequests = rpcerr.New(rpcerr.CodeTooManyRequests, "Too many requests, please slow down and try again shortly")

type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
}

func NewRateLimitMiddleware(limiter ratelimit.Limiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

// LimitMutations counts requests per actor under the key "mutations:<actor id>".
func (m *RateLimitMiddleware) LimitMutations(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller := GetCaller(c)
		if caller == nil {
			return rpcerr.Respond(c, ErrUnauthorized)
		}

		decision, err := m.limiter.Allow(c.Request().Context(), "mutations:"+caller.ActorID)
		if err != nil {
			return rpcerr.Respond(c, rpcerr.Internal("check the rate limit", err))
		}

		header := c.Response().Header()
		header.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		header.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		header.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			logrus.WithField("actor_id", caller.ActorID).Warn("Mutation rate limit exceeded")
			return rpcerr.Respond(c, ErrTooManyRequests)
		}
		return next(c)
	}
}
