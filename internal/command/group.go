package command

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/samber/lo"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types"

	"warden-bot/internal/utils/jid"
)

// KickCommand removes members from a group. Targets come from mentions, a
// phone number argument, or "all" (owner only). The bot and the invoker
// are never kicked.
type KickCommand struct {
	deps *Deps
}

func (c *KickCommand) Name() string             { return "kick" }
func (c *KickCommand) Emoji() string            { return "👢" }
func (c *KickCommand) RequiresPaired() bool     { return true }
func (c *KickCommand) RequiresGroup() bool      { return true }
func (c *KickCommand) RequiresGroupAdmin() bool { return true }
func (c *KickCommand) OwnerOnly() bool          { return false }

func (c *KickCommand) Execute(ctx context.Context, args []string, ec *Context) error {
	info, err := c.deps.Groups.GroupInfo(ctx, ec.Chat)
	if err != nil {
		return fmt.Errorf("fetch group info: %w", err)
	}
	bot := c.deps.Groups.BotJID()
	if !botIsAdmin(info, bot) {
		return c.deps.Send.Text(ctx, ec.Chat, "❌ Bot needs to be admin")
	}

	var targets []types.JID
	switch {
	case len(ec.Mentions) > 0:
		targets = ec.Mentions
	case len(args) > 0 && args[0] == "all":
		if !ec.IsOwner {
			return c.deps.Send.Text(ctx, ec.Chat, "❌ Only bot owner can kick all members")
		}
		targets = lo.FilterMap(info.Participants, func(p types.GroupParticipant, _ int) (types.JID, bool) {
			return p.JID, !p.IsAdmin && !p.IsSuperAdmin && !jid.Same(p.JID, bot)
		})
	case len(args) > 0 && jid.IsPhoneNumber(args[0]):
		targets = []types.JID{jid.FromPhone(args[0])}
	default:
		return c.deps.Send.Text(ctx, ec.Chat, "❌ Usage: /kick @user or /kick <number> or /kick all")
	}

	if len(targets) == 0 {
		return c.deps.Send.Text(ctx, ec.Chat, "❌ No valid users to kick")
	}

	var kicked, failed int
	for _, target := range targets {
		if jid.Same(target, bot) || jid.Same(target, ec.Sender) {
			continue
		}

		err := c.deps.Groups.UpdateParticipants(ctx, ec.Chat, []types.JID{target}, whatsmeow.ParticipantChangeRemove)
		if err != nil {
			failed++
			c.deps.Log.Errorf("Failed to kick %s: %v", target, err)
			continue
		}
		kicked++

		// Pace removals so the server doesn't flag a burst.
		select {
		case <-time.After(time.Duration(rand.IntN(2000)+1000) * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return c.deps.Send.Text(ctx, ec.Chat, fmt.Sprintf(
		"👢 *Kick Results*\n✅ Kicked: %d\n❌ Failed: %d", kicked, failed))
}

// AddCommand invites phone numbers into the group.
type AddCommand struct {
	deps *Deps
}

func (c *AddCommand) Name() string             { return "add" }
func (c *AddCommand) Emoji() string            { return "➕" }
func (c *AddCommand) RequiresPaired() bool     { return true }
func (c *AddCommand) RequiresGroup() bool      { return true }
func (c *AddCommand) RequiresGroupAdmin() bool { return true }
func (c *AddCommand) OwnerOnly() bool          { return false }

func (c *AddCommand) Execute(ctx context.Context, args []string, ec *Context) error {
	info, err := c.deps.Groups.GroupInfo(ctx, ec.Chat)
	if err != nil {
		return fmt.Errorf("fetch group info: %w", err)
	}
	if !botIsAdmin(info, c.deps.Groups.BotJID()) {
		return c.deps.Send.Text(ctx, ec.Chat, "❌ Bot needs to be admin")
	}

	numbers := lo.Filter(args, func(arg string, _ int) bool {
		return jid.IsPhoneNumber(arg)
	})
	if len(numbers) == 0 {
		return c.deps.Send.Text(ctx, ec.Chat, "❌ Usage: /add 254712345678")
	}

	var added int
	for _, num := range numbers {
		target := jid.FromPhone(num)
		err := c.deps.Groups.UpdateParticipants(ctx, ec.Chat, []types.JID{target}, whatsmeow.ParticipantChangeAdd)
		if err != nil {
			c.deps.Log.Errorf("Failed to add %s: %v", num, err)
			continue
		}
		added++
	}

	return c.deps.Send.Text(ctx, ec.Chat, fmt.Sprintf("✅ Added %d members", added))
}

func botIsAdmin(info *types.GroupInfo, bot types.JID) bool {
	p, ok := lo.Find(info.Participants, func(p types.GroupParticipant) bool {
		return jid.Same(p.JID, bot)
	})
	return ok && (p.IsAdmin || p.IsSuperAdmin)
}
