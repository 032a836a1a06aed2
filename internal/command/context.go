package command

import (
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"

	"warden-bot/internal/data/store"
	"warden-bot/internal/utils/jid"
)

// Context carries everything a command needs about the triggering message.
type Context struct {
	Chat      types.JID
	Sender    types.JID
	IsGroup   bool
	Text      string
	MessageID types.MessageID
	PushName  string
	Mentions  []types.JID
	Quoted    *waE2E.Message

	User         *store.User
	IsOwner      bool
	IsGroupAdmin bool
	IsGroupOwner bool
}

// CanModerate reports whether the sender may run group moderation commands.
func (c *Context) CanModerate() bool {
	return c.IsGroupAdmin || c.IsGroupOwner || c.IsOwner
}

// Target resolves the user a command acts on: first mention wins, then a
// phone number argument, otherwise the sender themselves.
func (c *Context) Target(args []string) types.JID {
	if len(c.Mentions) > 0 {
		return c.Mentions[0]
	}
	if len(args) > 0 && jid.IsPhoneNumber(args[0]) {
		return jid.FromPhone(args[0])
	}
	return c.Sender
}
