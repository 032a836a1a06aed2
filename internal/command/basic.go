package command

import (
	"context"
	"fmt"
	"time"

	"go.mau.fi/whatsmeow/types"

	"warden-bot/internal/data/store"
	"warden-bot/internal/utils/jid"
)

// PingCommand measures the round trip of one send.
type PingCommand struct {
	deps *Deps
}

func (c *PingCommand) Name() string             { return "ping" }
func (c *PingCommand) Emoji() string            { return "🏓" }
func (c *PingCommand) RequiresPaired() bool     { return false }
func (c *PingCommand) RequiresGroup() bool      { return false }
func (c *PingCommand) RequiresGroupAdmin() bool { return false }
func (c *PingCommand) OwnerOnly() bool          { return false }

func (c *PingCommand) Execute(ctx context.Context, args []string, ec *Context) error {
	start := time.Now()
	if err := c.deps.Send.Text(ctx, ec.Chat, "🏓 Pong!"); err != nil {
		return err
	}
	return c.deps.Send.Text(ctx, ec.Chat, fmt.Sprintf("⚡ %dms", time.Since(start).Milliseconds()))
}

// MenuCommand shows the command menu card.
type MenuCommand struct {
	deps *Deps
}

func (c *MenuCommand) Name() string             { return "menu" }
func (c *MenuCommand) Emoji() string            { return "📋" }
func (c *MenuCommand) RequiresPaired() bool     { return false }
func (c *MenuCommand) RequiresGroup() bool      { return false }
func (c *MenuCommand) RequiresGroupAdmin() bool { return false }
func (c *MenuCommand) OwnerOnly() bool          { return false }

func (c *MenuCommand) Execute(ctx context.Context, args []string, ec *Context) error {
	status := "❌ Unpaired"
	if ec.User.Paired {
		status = "✅ Paired"
	}
	role := string(ec.User.Role)
	if ec.IsOwner {
		role = "🌟 OWNER"
	}

	text := fmt.Sprintf(`╭── *✧ WARDEN BOT ✧* ──╮
│
│  👤 *Status* › %s
│  👑 *Role*    › %s
│
│  ✦ *PUBLIC COMMANDS* ✦
│  📋 /menu     - Show this menu
│  ℹ️ /info     - Bot info
│  👤 /role     - Your profile
│  🎵 /play     - Search & download music
│  🔐 /pair     - Get pairing code
│  🏓 /ping     - Check response
│  📸 .cc       - Recover view once
│
│  ✦ *PAIRED COMMANDS* ✦
│  👢 /kick     - Kick user (group admin)
│  ➕ /add      - Add members (numbers)
│  🏢 /officialinfo - Official group info
│  🔗 /antilink - Toggle anti-link
│  🚫 /antispam - Toggle anti-spam
│
│  ✦ *OWNER COMMANDS* ✦
│  ⚙️ /setofficial - Set official group
╰─────────────────────────╯

🌐 WhatsApp › %s
💬 Discord  › %s`, status, role, c.deps.Config.GroupInvite, c.deps.Config.DiscordInvite)

	return imageOrText(ctx, c.deps, ec.Chat, botImage(ctx, c.deps), text)
}

// InfoCommand shows bot statistics.
type InfoCommand struct {
	deps *Deps
}

func (c *InfoCommand) Name() string             { return "info" }
func (c *InfoCommand) Emoji() string            { return "ℹ️" }
func (c *InfoCommand) RequiresPaired() bool     { return false }
func (c *InfoCommand) RequiresGroup() bool      { return false }
func (c *InfoCommand) RequiresGroupAdmin() bool { return false }
func (c *InfoCommand) OwnerOnly() bool          { return false }

func (c *InfoCommand) Execute(ctx context.Context, args []string, ec *Context) error {
	total, err := c.deps.Users.Count()
	if err != nil {
		c.deps.Log.Warnf("User count failed: %v", err)
	}
	usage, err := c.deps.Users.SumUsage()
	if err != nil {
		c.deps.Log.Warnf("Usage sum failed: %v", err)
	}

	text := fmt.Sprintf(`*🤖 WARDEN BOT*

👨‍💻 Dev: @%s
👥 Users: %d
📊 Messages: %d
📱 Status: 24/7 Online
🎵 Download: RapidAPI

📱 WhatsApp: %s
💬 Discord: %s

✨ Features:
• YouTube Downloads
• View Once Recovery
• Anti-Link Protection
• Anti-Spam System
• Group Moderation`, c.deps.Config.OwnerNumber, total, usage, c.deps.Config.GroupInvite, c.deps.Config.DiscordInvite)

	img := botImage(ctx, c.deps)
	if img != nil {
		return c.deps.Send.Image(ctx, ec.Chat, img, "image/jpeg", text)
	}
	return c.deps.Send.Text(ctx, ec.Chat, text)
}

// RoleCommand shows a user's profile card. With no argument it describes
// the sender; a mention or phone number looks up that user instead.
type RoleCommand struct {
	deps *Deps
}

func (c *RoleCommand) Name() string             { return "role" }
func (c *RoleCommand) Emoji() string            { return "👤" }
func (c *RoleCommand) RequiresPaired() bool     { return false }
func (c *RoleCommand) RequiresGroup() bool      { return false }
func (c *RoleCommand) RequiresGroupAdmin() bool { return false }
func (c *RoleCommand) OwnerOnly() bool          { return false }

func (c *RoleCommand) Execute(ctx context.Context, args []string, ec *Context) error {
	target := ec.Sender
	targetUser := ec.User

	if len(args) > 0 || len(ec.Mentions) > 0 {
		target = ec.Target(args)
		if !jid.Same(target, ec.Sender) {
			found, err := c.deps.Users.Find(target)
			if err != nil {
				return fmt.Errorf("look up user: %w", err)
			}
			targetUser = found
		}
	}

	// Unknown users still get a card, synthesized from the JID.
	if targetUser == nil {
		targetUser = &store.User{
			JID:    target,
			Number: jid.Number(target),
			Name:   "Unknown",
			Role:   store.RoleRegular,
		}
	}

	isTargetOwner := targetUser.Number == c.deps.Config.OwnerNumber
	role := string(targetUser.Role)
	if isTargetOwner {
		role = "🌟 OWNER"
	}
	status := "❌ Unpaired"
	if targetUser.Paired {
		status = "✅ Paired"
	}
	paired := "Not paired"
	if !targetUser.PairedSince.IsZero() {
		paired = targetUser.PairedSince.Format("02/01/2006")
	}

	text := fmt.Sprintf(`*✧ USER PROFILE ✧*

👤 *Name:* %s
📱 *Number:* %s
👑 *Role:* %s
🔗 *Status:* %s
📅 *Paired:* %s
📊 *Commands:* %d
⚠️ *Warnings:* %d`,
		targetUser.Name, targetUser.Number, role, status, paired,
		targetUser.UsageCount, targetUser.WarningCount)

	// Prefer the target's real profile picture over the bot image.
	img := c.profilePicture(ctx, target)
	if img == nil {
		img = botImage(ctx, c.deps)
	}
	return imageOrText(ctx, c.deps, ec.Chat, img, text)
}

func (c *RoleCommand) profilePicture(ctx context.Context, target types.JID) []byte {
	url, err := c.deps.Groups.ProfilePictureURL(ctx, target)
	if err != nil || url == "" {
		return nil
	}
	return c.deps.Media.FetchImage(ctx, url)
}
