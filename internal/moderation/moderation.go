// Package moderation evaluates the anti-link and anti-spam policies for
// group conversations. The engine is a policy evaluator: it consumes the
// warning counters in the session store and produces an action for the
// orchestrator to execute. The two policies keep independent counters even
// though both are keyed by (conversation, user).
package moderation

import (
	"regexp"
	"sync"
	"time"

	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"

	"warden-bot/internal/session"
)

// linkPattern matches plain URLs and the invite domains the bot cares about.
var linkPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+|chat\.whatsapp\.com|t\.me|discord\.gg)`)

// ActionKind is the kind of moderation action to take.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionWarn
	ActionDeleteAndWarn
	ActionKick
)

// Action is the result of a policy evaluation. Count carries the warning
// number shown to the user for the warn variants.
type Action struct {
	Kind  ActionKind
	Count int
}

// Config holds the policy thresholds.
type Config struct {
	LinkWindow time.Duration
	LinkKickAt int
	SpamGap    time.Duration
	SpamWarnAt int
	SpamKickAt int
}

// Engine evaluates moderation policies per conversation. Both policies are
// disabled by default and toggled per conversation by group admins.
type Engine struct {
	mu       sync.RWMutex
	antilink map[string]struct{}
	antispam map[string]struct{}

	warnings *session.Store
	cfg      Config
	log      waLog.Logger
}

// NewEngine creates a moderation Engine backed by the given session store.
func NewEngine(warnings *session.Store, cfg Config, log waLog.Logger) *Engine {
	return &Engine{
		antilink: make(map[string]struct{}),
		antispam: make(map[string]struct{}),
		warnings: warnings,
		cfg:      cfg,
		log:      log.Sub("Moderation"),
	}
}

// SetAntiLink toggles the anti-link policy for a conversation.
func (e *Engine) SetAntiLink(conv types.JID, enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if enabled {
		e.antilink[conv.String()] = struct{}{}
	} else {
		delete(e.antilink, conv.String())
	}
}

// AntiLinkEnabled reports whether anti-link is on for a conversation.
func (e *Engine) AntiLinkEnabled(conv types.JID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.antilink[conv.String()]
	return ok
}

// SetAntiSpam toggles the anti-spam policy for a conversation.
func (e *Engine) SetAntiSpam(conv types.JID, enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if enabled {
		e.antispam[conv.String()] = struct{}{}
	} else {
		delete(e.antispam, conv.String())
	}
}

// AntiSpamEnabled reports whether anti-spam is on for a conversation.
func (e *Engine) AntiSpamEnabled(conv types.JID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.antispam[conv.String()]
	return ok
}

// EvaluateLink checks a message text against the link policy. Callers are
// expected to skip privileged senders (group admins, the bot owner) before
// calling. The warning counter resets when the previous violation is older
// than the policy window, and is removed once a kick fires.
func (e *Engine) EvaluateLink(conv, user types.JID, text string, now time.Time) Action {
	if !e.AntiLinkEnabled(conv) {
		return Action{Kind: ActionNone}
	}
	if !linkPattern.MatchString(text) {
		return Action{Kind: ActionNone}
	}

	count := e.warnings.BumpWarning(conv, user, session.PolicyLink, e.cfg.LinkWindow, now)
	if count >= e.cfg.LinkKickAt {
		e.warnings.ClearWarning(conv, user, session.PolicyLink)
		return Action{Kind: ActionKick, Count: count}
	}
	return Action{Kind: ActionDeleteAndWarn, Count: count}
}

// EvaluateSpamBurst updates the sender's burst counter for the conversation
// and returns the resulting action. Messages spaced under the gap threshold
// grow the burst; a larger gap resets it.
func (e *Engine) EvaluateSpamBurst(conv, user types.JID, now time.Time) Action {
	if !e.AntiSpamEnabled(conv) {
		return Action{Kind: ActionNone}
	}

	count := e.warnings.TouchBurst(conv, user, e.cfg.SpamGap, now)
	switch {
	case count >= e.cfg.SpamKickAt:
		e.warnings.ClearWarning(conv, user, session.PolicySpam)
		return Action{Kind: ActionKick, Count: count}
	case count >= e.cfg.SpamWarnAt:
		return Action{Kind: ActionWarn, Count: count - e.cfg.SpamWarnAt + 1}
	default:
		return Action{Kind: ActionNone}
	}
}

// LinkKickThreshold exposes the configured kick threshold for warn texts.
func (e *Engine) LinkKickThreshold() int {
	return e.cfg.LinkKickAt
}
