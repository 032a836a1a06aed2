package command

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.mau.fi/whatsmeow/types"

	"warden-bot/internal/utils/jid"
)

// OfficialInfoCommand shows a card about the designated pairing group.
type OfficialInfoCommand struct {
	deps *Deps
}

func (c *OfficialInfoCommand) Name() string             { return "officialinfo" }
func (c *OfficialInfoCommand) Emoji() string            { return "🏢" }
func (c *OfficialInfoCommand) RequiresPaired() bool     { return true }
func (c *OfficialInfoCommand) RequiresGroup() bool      { return false }
func (c *OfficialInfoCommand) RequiresGroupAdmin() bool { return false }
func (c *OfficialInfoCommand) OwnerOnly() bool          { return false }

func (c *OfficialInfoCommand) Execute(ctx context.Context, args []string, ec *Context) error {
	official, ok := c.deps.Officials.Official()
	if !ok {
		return c.deps.Send.Text(ctx, ec.Chat, "❌ Official group not set")
	}

	info, err := c.deps.Groups.GroupInfo(ctx, official.JID)
	if err != nil {
		c.deps.Log.Errorf("Official group lookup failed: %v", err)
		return c.deps.Send.Text(ctx, ec.Chat, "❌ Error fetching group info")
	}

	admins := lo.CountBy(info.Participants, func(p types.GroupParticipant) bool {
		return p.IsAdmin || p.IsSuperAdmin
	})
	ownerNumber := "Unknown"
	if owner, ok := lo.Find(info.Participants, func(p types.GroupParticipant) bool {
		return p.IsSuperAdmin
	}); ok {
		ownerNumber = jid.Number(owner.JID)
	}

	text := fmt.Sprintf(`*🏢 OFFICIAL GROUP INFO*

📛 *Name:* %s
👥 *Members:* %d
👑 *Admins:* %d
👤 *Owner:* @%s
🔗 *Status:* Active

💡 *Users must be in this group to pair*`,
		info.Name, len(info.Participants), admins, ownerNumber)

	img := c.groupIcon(ctx, official.JID)
	if img == nil {
		img = botImage(ctx, c.deps)
	}
	return imageOrText(ctx, c.deps, ec.Chat, img, text)
}

func (c *OfficialInfoCommand) groupIcon(ctx context.Context, group types.JID) []byte {
	url, err := c.deps.Groups.ProfilePictureURL(ctx, group)
	if err != nil || url == "" {
		return nil
	}
	return c.deps.Media.FetchImage(ctx, url)
}

// SetOfficialCommand designates the current group as the pairing venue.
type SetOfficialCommand struct {
	deps *Deps
}

func (c *SetOfficialCommand) Name() string             { return "setofficial" }
func (c *SetOfficialCommand) Emoji() string            { return "⚙️" }
func (c *SetOfficialCommand) RequiresPaired() bool     { return false }
func (c *SetOfficialCommand) RequiresGroup() bool      { return true }
func (c *SetOfficialCommand) RequiresGroupAdmin() bool { return false }
func (c *SetOfficialCommand) OwnerOnly() bool          { return true }

func (c *SetOfficialCommand) Execute(ctx context.Context, args []string, ec *Context) error {
	info, err := c.deps.Groups.GroupInfo(ctx, ec.Chat)
	if err != nil {
		return fmt.Errorf("fetch group info: %w", err)
	}

	icon, _ := c.deps.Groups.ProfilePictureURL(ctx, ec.Chat)
	if err := c.deps.Officials.SetOfficial(ec.Chat, info.Name, icon); err != nil {
		return fmt.Errorf("save official group: %w", err)
	}

	return c.deps.Send.Text(ctx, ec.Chat, fmt.Sprintf(
		"✅ *Official Group Set!*\n\n📛 %s\n👥 %d members",
		info.Name, len(info.Participants)))
}
