package app

import (
	"context"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types"

	"warden-bot/internal/command"
	"warden-bot/internal/data/store"
)

// UserRecords is the slice of the user store the handler needs.
// Implemented by store.UserStore.
type UserRecords interface {
	FindOrCreate(jid types.JID, pushName string) (*store.User, error)
	Save(u *store.User) error
	Touch(jid types.JID) error
	IncrementWarnings(jid types.JID) error
}

// GroupClient covers the group operations the handler needs for admin
// resolution and moderation kicks. Implemented by Client.
type GroupClient interface {
	GroupInfo(ctx context.Context, jid types.JID) (*types.GroupInfo, error)
	UpdateParticipants(ctx context.Context, group types.JID, users []types.JID, change whatsmeow.ParticipantChange) error
}

// Gate admits or rejects a message before any other work happens.
// Implemented by ratelimit.Limiter.
type Gate interface {
	Allow(userID, groupID string) bool
}

// Dispatcher routes a message context to its command. Implemented by
// command.Registry.
type Dispatcher interface {
	Dispatch(ctx context.Context, ec *command.Context) error
}
