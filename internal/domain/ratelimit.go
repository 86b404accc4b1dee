package domain

import (
	"context"
	"time"
)

type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error)
}

// RateLimitPolicy names a bucket family applied per client address.
type RateLimitPolicy struct {
	Name   string
	Limit  int
	Window time.Duration
	// PerRoute gives every route template its own bucket instead of one
	// bucket shared by the whole group.
	PerRoute bool
}

// Key returns the limiter key for client on route under this policy.
func (p RateLimitPolicy) Key(route, client string) string {
	if p.PerRoute && route != "" {
		return "policy:" + p.Name + ":route:" + route + ":ip:" + client
	}
	return "policy:" + p.Name + ":ip:" + client
}
