package app

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	"warden-bot/internal/command"
	"warden-bot/internal/data/store"
	"warden-bot/internal/infra/config"
	"warden-bot/internal/moderation"
	"warden-bot/internal/utils/jid"
)

// MessageHandler runs every inbound message through the pipeline: rate
// limiting, user bookkeeping, command dispatch, then moderation.
type MessageHandler struct {
	cfg      *config.Config
	client   GroupClient
	users    UserRecords
	limiter  Gate
	policies *moderation.Engine
	registry Dispatcher
	send     command.Messenger
	log      waLog.Logger
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(
	cfg *config.Config,
	client GroupClient,
	users UserRecords,
	limiter Gate,
	policies *moderation.Engine,
	registry Dispatcher,
	send command.Messenger,
	log waLog.Logger,
) *MessageHandler {
	return &MessageHandler{
		cfg:      cfg,
		client:   client,
		users:    users,
		limiter:  limiter,
		policies: policies,
		registry: registry,
		send:     send,
		log:      log.Sub("Handler"),
	}
}

// OnMessage handles one message event. It is called on a fresh goroutine
// per event, so a panic in one message must not take down the bot.
func (h *MessageHandler) OnMessage(ctx context.Context, evt *events.Message) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Errorf("Panic handling message %s: %v\n%s", evt.Info.ID, r, debug.Stack())
		}
	}()

	if evt.Info.IsFromMe {
		return
	}

	text := extractText(evt.Message)
	if text == "" {
		return
	}

	chat := evt.Info.Chat
	sender := evt.Info.Sender.ToNonAD()
	isGroup := jid.IsGroup(chat)

	groupID := ""
	if isGroup {
		groupID = chat.String()
	}
	if !h.limiter.Allow(sender.String(), groupID) {
		h.log.Warnf("Rate limit hit for %s", jid.Number(sender))
		return
	}

	user, err := h.users.FindOrCreate(sender, evt.Info.PushName)
	if err != nil {
		h.log.Errorf("User lookup failed for %s: %v", sender, err)
		return
	}

	isOwner := user.Number == h.cfg.OwnerNumber

	// The owner never goes through the pairing flow.
	if isOwner && !user.Paired {
		user.Paired = true
		user.Role = store.RoleOwner
		user.PairedSince = time.Now()
		if err := h.users.Save(user); err != nil {
			h.log.Errorf("Owner auto-pair failed: %v", err)
		}
	}

	if err := h.users.Touch(sender); err != nil {
		h.log.Warnf("Usage bump failed for %s: %v", sender, err)
	}

	isGroupAdmin, isGroupOwner := false, false
	if isGroup {
		isGroupAdmin, isGroupOwner = h.groupRole(ctx, chat, sender)
	}

	ec := &command.Context{
		Chat:         chat,
		Sender:       sender,
		IsGroup:      isGroup,
		Text:         text,
		MessageID:    evt.Info.ID,
		PushName:     evt.Info.PushName,
		Mentions:     extractMentions(evt.Message),
		Quoted:       extractQuoted(evt.Message),
		User:         user,
		IsOwner:      isOwner,
		IsGroupAdmin: isGroupAdmin,
		IsGroupOwner: isGroupOwner,
	}

	if err := h.registry.Dispatch(ctx, ec); err != nil {
		h.log.Errorf("Command failed for %s: %v", jid.Number(sender), err)
	}

	// Admins and the owner are exempt from moderation.
	if isGroup && !isGroupAdmin && !isGroupOwner && !isOwner {
		h.moderate(ctx, ec)
	}
}

// moderate applies the anti-link and anti-spam policies to one message.
func (h *MessageHandler) moderate(ctx context.Context, ec *command.Context) {
	now := time.Now()

	switch action := h.policies.EvaluateLink(ec.Chat, ec.Sender, ec.Text, now); action.Kind {
	case moderation.ActionDeleteAndWarn:
		h.revoke(ctx, ec)
		h.warn(ctx, ec, fmt.Sprintf("⚠️ @%s No links allowed! Warning %d/%d",
			jid.Number(ec.Sender), action.Count, h.policies.LinkKickThreshold()))
	case moderation.ActionKick:
		h.revoke(ctx, ec)
		h.kick(ctx, ec, fmt.Sprintf("👢 @%s was kicked for posting links after warnings",
			jid.Number(ec.Sender)))
		return
	}

	switch action := h.policies.EvaluateSpamBurst(ec.Chat, ec.Sender, now); action.Kind {
	case moderation.ActionWarn:
		h.warn(ctx, ec, fmt.Sprintf("⚠️ @%s Stop spamming! Warning %d/3",
			jid.Number(ec.Sender), action.Count))
	case moderation.ActionKick:
		h.kick(ctx, ec, fmt.Sprintf("👢 @%s was kicked for spamming", jid.Number(ec.Sender)))
	}
}

func (h *MessageHandler) revoke(ctx context.Context, ec *command.Context) {
	if err := h.send.Revoke(ctx, ec.Chat, ec.Sender, ec.MessageID); err != nil {
		h.log.Warnf("Revoke failed: %v", err)
	}
}

func (h *MessageHandler) warn(ctx context.Context, ec *command.Context, text string) {
	if err := h.users.IncrementWarnings(ec.Sender); err != nil {
		h.log.Warnf("Warning count bump failed: %v", err)
	}
	if err := h.send.TextWithMentions(ctx, ec.Chat, text, []types.JID{ec.Sender}); err != nil {
		h.log.Warnf("Warning message failed: %v", err)
	}
}

func (h *MessageHandler) kick(ctx context.Context, ec *command.Context, text string) {
	err := h.client.UpdateParticipants(ctx, ec.Chat, []types.JID{ec.Sender}, whatsmeow.ParticipantChangeRemove)
	if err != nil {
		h.log.Errorf("Moderation kick failed for %s: %v", ec.Sender, err)
		return
	}
	if err := h.send.TextWithMentions(ctx, ec.Chat, text, []types.JID{ec.Sender}); err != nil {
		h.log.Warnf("Kick notice failed: %v", err)
	}
}

// groupRole resolves the sender's admin flags, defaulting to non-admin
// when metadata is unavailable.
func (h *MessageHandler) groupRole(ctx context.Context, chat, sender types.JID) (isAdmin, isOwner bool) {
	info, err := h.client.GroupInfo(ctx, chat)
	if err != nil {
		h.log.Warnf("Failed to get group metadata: %v", err)
		return false, false
	}
	for _, p := range info.Participants {
		if jid.Same(p.JID, sender) {
			return p.IsAdmin, p.IsSuperAdmin
		}
	}
	return false, false
}

func extractText(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if t := msg.GetConversation(); t != "" {
		return t
	}
	return msg.GetExtendedTextMessage().GetText()
}

func extractMentions(msg *waE2E.Message) []types.JID {
	ci := msg.GetExtendedTextMessage().GetContextInfo()
	if ci == nil {
		return nil
	}
	var mentions []types.JID
	for _, raw := range ci.GetMentionedJID() {
		parsed, err := types.ParseJID(raw)
		if err != nil {
			continue
		}
		mentions = append(mentions, parsed.ToNonAD())
	}
	return mentions
}

func extractQuoted(msg *waE2E.Message) *waE2E.Message {
	return msg.GetExtendedTextMessage().GetContextInfo().GetQuotedMessage()
}
