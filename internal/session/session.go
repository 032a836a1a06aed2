// Package session holds the ephemeral, time-bounded interaction state of the
// bot: pending media downloads, pending pairing codes and moderation warning
// counters. Everything lives in mutex-guarded maps; entries expire through a
// single periodic sweep rather than per-entry timers, and lookups re-check
// the TTL so a swept-but-not-yet-deleted entry can never fire.
package session

import (
	"context"
	"sync"
	"time"

	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// MediaRef describes the media selected by a /play search.
type MediaRef struct {
	ID    string
	Title string
	URL   string
}

// Download is a pending download choice awaiting a 1/2/0 reply.
type Download struct {
	Media     MediaRef
	Chat      types.JID
	MessageID types.MessageID
	CreatedAt time.Time
}

// Pairing is a pending pairing code awaiting an echo in a direct message.
type Pairing struct {
	User      types.JID
	CreatedAt time.Time
}

// Policy discriminates the two independent moderation counters that share
// the (conversation, user) key shape.
type Policy string

const (
	PolicyLink Policy = "link"
	PolicySpam Policy = "spam"
)

type warnKey struct {
	conv   string
	user   string
	policy Policy
}

type warning struct {
	count    int
	lastSeen time.Time
}

// Config holds the TTLs for the three maps.
type Config struct {
	DownloadTTL time.Duration
	PairingTTL  time.Duration
	WarningTTL  time.Duration
}

// Store owns all ephemeral interaction state. Construct one per process and
// pass it explicitly to the orchestrator and router.
type Store struct {
	mu        sync.Mutex
	downloads map[string]*Download
	pairings  map[string]*Pairing
	warnings  map[warnKey]*warning

	cfg Config
	log waLog.Logger
}

// NewStore creates a Store with the given TTL configuration.
func NewStore(cfg Config, log waLog.Logger) *Store {
	return &Store{
		downloads: make(map[string]*Download),
		pairings:  make(map[string]*Pairing),
		warnings:  make(map[warnKey]*warning),
		cfg:       cfg,
		log:       log.Sub("Session"),
	}
}

// SetDownload records a pending download for a user. A user has at most one
// pending download; a newer /play overwrites any prior entry (last write
// wins, by design of the per-user map).
func (s *Store) SetDownload(user types.JID, d *Download) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloads[user.ToNonAD().String()] = d
}

// Download returns the live pending download for a user. Entries past their
// TTL are treated as absent and removed.
func (s *Store) Download(user types.JID, now time.Time) (*Download, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := user.ToNonAD().String()
	d, ok := s.downloads[key]
	if !ok {
		return nil, false
	}
	if now.Sub(d.CreatedAt) > s.cfg.DownloadTTL {
		delete(s.downloads, key)
		return nil, false
	}
	return d, true
}

// DeleteDownload clears a user's pending download, resolved or not.
func (s *Store) DeleteDownload(user types.JID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.downloads, user.ToNonAD().String())
}

// SetPairing records a pending pairing code. Codes are drawn from an 8-digit
// space; collisions simply overwrite, an accepted low-probability risk.
func (s *Store) SetPairing(code string, user types.JID, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairings[code] = &Pairing{User: user.ToNonAD(), CreatedAt: now}
}

// Pairing looks up a pending pairing code. Expired entries are still
// returned so the caller can distinguish "expired" from "invalid"; the
// caller is expected to delete the entry either way.
func (s *Store) Pairing(code string) (*Pairing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pairings[code]
	return p, ok
}

// DeletePairing removes a pairing code, consumed or expired.
func (s *Store) DeletePairing(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pairings, code)
}

// BumpWarning applies the reset-if-stale-else-increment rule to the warning
// counter for (conv, user, policy) and returns the new count. A gap larger
// than window since the last violation resets the count to 1.
func (s *Store) BumpWarning(conv, user types.JID, policy Policy, window time.Duration, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := warnKey{conv.String(), user.ToNonAD().String(), policy}
	w, ok := s.warnings[key]
	if !ok || now.Sub(w.lastSeen) > window {
		w = &warning{}
		s.warnings[key] = w
		w.count = 1
	} else {
		w.count++
	}
	w.lastSeen = now
	return w.count
}

// TouchBurst updates the spam burst counter for (conv, user): arrivals
// within gap of the previous message grow the burst, a larger gap starts a
// new burst of one (the current message). Returns the burst length after
// the update.
func (s *Store) TouchBurst(conv, user types.JID, gap time.Duration, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := warnKey{conv.String(), user.ToNonAD().String(), PolicySpam}
	w, ok := s.warnings[key]
	if !ok {
		w = &warning{}
		s.warnings[key] = w
	}
	if ok && now.Sub(w.lastSeen) < gap {
		w.count++
	} else {
		w.count = 1
	}
	w.lastSeen = now
	return w.count
}

// ClearWarning removes the counter for (conv, user, policy), typically after
// a kick fires.
func (s *Store) ClearWarning(conv, user types.JID, policy Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.warnings, warnKey{conv.String(), user.ToNonAD().String(), policy})
}

// Sweep removes expired downloads, pairings and idle warning counters. It is
// a pure maintenance pass with no result, intended to run once per minute.
func (s *Store) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, d := range s.downloads {
		if now.Sub(d.CreatedAt) > s.cfg.DownloadTTL {
			delete(s.downloads, key)
		}
	}
	for code, p := range s.pairings {
		if now.Sub(p.CreatedAt) > s.cfg.PairingTTL {
			delete(s.pairings, code)
		}
	}
	for key, w := range s.warnings {
		if now.Sub(w.lastSeen) > s.cfg.WarningTTL {
			delete(s.warnings, key)
		}
	}
}

// Run sweeps once per interval until the context is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(time.Now())
		}
	}
}
