// Package ratelimit implements fixed-window rate limiting over per-user
// minute and hour buckets plus a per-group minute bucket. Counters are only
// incremented when an action is about to be permitted; stale buckets are
// reclaimed by a periodic sweep, never by decrement.
package ratelimit

import (
	"context"
	"sync"
	"time"

	waLog "go.mau.fi/whatsmeow/util/log"
)

type bucketKey struct {
	subject string
	bucket  int64
}

// Config holds the window ceilings.
type Config struct {
	UserPerMinute  int
	UserPerHour    int
	GroupPerMinute int
}

// Limiter tracks fixed-window counters for users and groups.
type Limiter struct {
	mu          sync.Mutex
	userMinute  map[bucketKey]int
	userHour    map[bucketKey]int
	groupMinute map[bucketKey]int

	cfg Config
	log waLog.Logger
}

// NewLimiter creates a Limiter with the given ceilings.
func NewLimiter(cfg Config, log waLog.Logger) *Limiter {
	return &Limiter{
		userMinute:  make(map[bucketKey]int),
		userHour:    make(map[bucketKey]int),
		groupMinute: make(map[bucketKey]int),
		cfg:         cfg,
		log:         log.Sub("RateLimit"),
	}
}

// Allow reports whether the subject may act now. groupID is empty for direct
// chats. All applicable counters are checked before any is incremented, so a
// rejected action never mutates state.
func (l *Limiter) Allow(userID, groupID string) bool {
	return l.allowAt(userID, groupID, time.Now())
}

func (l *Limiter) allowAt(userID, groupID string, now time.Time) bool {
	minute := now.Unix() / 60
	hour := now.Unix() / 3600

	l.mu.Lock()
	defer l.mu.Unlock()

	um := bucketKey{userID, minute}
	uh := bucketKey{userID, hour}
	if l.userMinute[um] >= l.cfg.UserPerMinute {
		return false
	}
	if l.userHour[uh] >= l.cfg.UserPerHour {
		return false
	}

	var gm bucketKey
	if groupID != "" {
		gm = bucketKey{groupID, minute}
		if l.groupMinute[gm] >= l.cfg.GroupPerMinute {
			return false
		}
	}

	l.userMinute[um]++
	l.userHour[uh]++
	if groupID != "" {
		l.groupMinute[gm]++
	}
	return true
}

// Sweep deletes counters whose bucket index no longer matches the current
// minute or hour, bounding memory.
func (l *Limiter) Sweep(now time.Time) {
	minute := now.Unix() / 60
	hour := now.Unix() / 3600

	l.mu.Lock()
	defer l.mu.Unlock()

	for key := range l.userMinute {
		if key.bucket != minute {
			delete(l.userMinute, key)
		}
	}
	for key := range l.groupMinute {
		if key.bucket != minute {
			delete(l.groupMinute, key)
		}
	}
	for key := range l.userHour {
		if key.bucket != hour {
			delete(l.userHour, key)
		}
	}
}

// Run sweeps once per interval until the context is cancelled.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(time.Now())
		}
	}
}
