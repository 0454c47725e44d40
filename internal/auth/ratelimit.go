// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

package auth

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL       = time.Hour
	limiterEvictInterval = 10 * time.Minute
)

// LoginLimiter throttles credential attempts per client IP to slow down
// brute forcing. Limiters for idle IPs are evicted lazily during Allow, so
// the limiter needs no background goroutine and no shutdown hook.
type LoginLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*ipLimiter
	rate      rate.Limit
	burst     int
	lastEvict time.Time
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter allows perMinute attempts per IP with a burst of the same
// size.
func NewLoginLimiter(perMinute int) *LoginLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &LoginLimiter{
		limiters:  make(map[string]*ipLimiter),
		rate:      rate.Limit(float64(perMinute) / 60.0),
		burst:     perMinute,
		lastEvict: time.Now(),
	}
}

// Allow reports whether the request's client IP is within its budget.
func (l *LoginLimiter) Allow(r *http.Request) bool {
	ip := clientIP(r)
	now := time.Now()

	l.mu.Lock()
	if now.Sub(l.lastEvict) >= limiterEvictInterval {
		l.evictIdleLocked(now)
		l.lastEvict = now
	}
	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()

	return entry.limiter.Allow()
}

func (l *LoginLimiter) evictIdleLocked(now time.Time) {
	cutoff := now.Add(-limiterIdleTTL)
	for ip, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
