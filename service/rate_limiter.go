package service

import (
	"context"
	"time"

	"github.com/google/go-github/v66/github"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	unauthenticatedHourlyLimit = 60
	authenticatedHourlyLimit   = 5000
)

// NewGithubRateLimiter builds the local rate limiter from the current github rate limits.
// the tokens already consumed upstream are consumed locally too, this help us to have a right
// rate limiter even if external requests are made with the same identity.
// When github cannot be reached, the documented hourly limit is used instead.
func NewGithubRateLimiter(ctx context.Context, githubClient *github.Client, authenticated bool) *rate.Limiter {
	limit := unauthenticatedHourlyLimit
	if authenticated {
		limit = authenticatedHourlyLimit
	}
	remaining := limit

	log.Debug("loading current rate limit from github")
	rateLimits, _, err := githubClient.RateLimit.Get(ctx)

	switch {
	case err != nil:
		log.WithError(err).Warning("unable to load current github rate limits, using defaults")
	case rateLimits == nil || rateLimits.Core == nil || rateLimits.Core.Limit <= 0:
		log.Warning("github returned no core rate limit, using defaults")
	default:
		limit = rateLimits.Core.Limit
		remaining = rateLimits.Core.Remaining
	}

	log.WithFields(log.Fields{
		"totalAvailable":    limit,
		"remainingRequests": remaining,
	}).Debug("will setup local rate limiter with rate limits infos from github")

	rateLimiter := rate.NewLimiter(rate.Every(time.Hour/time.Duration(limit)), limit)

	if used := limit - remaining; used > 0 {
		rateLimiter.AllowN(time.Now(), used)
	}

	return rateLimiter
}
