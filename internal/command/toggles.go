package command

import (
	"context"
	"fmt"
)

// AntiLinkCommand toggles link moderation for the current group.
type AntiLinkCommand struct {
	deps *Deps
}

func (c *AntiLinkCommand) Name() string             { return "antilink" }
func (c *AntiLinkCommand) Emoji() string            { return "🔗" }
func (c *AntiLinkCommand) RequiresPaired() bool     { return true }
func (c *AntiLinkCommand) RequiresGroup() bool      { return true }
func (c *AntiLinkCommand) RequiresGroupAdmin() bool { return true }
func (c *AntiLinkCommand) OwnerOnly() bool          { return false }

func (c *AntiLinkCommand) Execute(ctx context.Context, args []string, ec *Context) error {
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}

	switch arg {
	case "on":
		c.deps.Policies.SetAntiLink(ec.Chat, true)
		return c.deps.Send.Text(ctx, ec.Chat, "🔗 *Anti-Link Enabled*\n\nLinks will be automatically deleted.")
	case "off":
		c.deps.Policies.SetAntiLink(ec.Chat, false)
		return c.deps.Send.Text(ctx, ec.Chat, "🔗 *Anti-Link Disabled*")
	default:
		status := "❌ Disabled"
		if c.deps.Policies.AntiLinkEnabled(ec.Chat) {
			status = "✅ Enabled"
		}
		return c.deps.Send.Text(ctx, ec.Chat, fmt.Sprintf(
			"🔗 *Anti-Link Status:* %s\n\nUse /antilink on or /antilink off", status))
	}
}

// AntiSpamCommand toggles spam moderation for the current group.
type AntiSpamCommand struct {
	deps *Deps
}

func (c *AntiSpamCommand) Name() string             { return "antispam" }
func (c *AntiSpamCommand) Emoji() string            { return "🚫" }
func (c *AntiSpamCommand) RequiresPaired() bool     { return true }
func (c *AntiSpamCommand) RequiresGroup() bool      { return true }
func (c *AntiSpamCommand) RequiresGroupAdmin() bool { return true }
func (c *AntiSpamCommand) OwnerOnly() bool          { return false }

func (c *AntiSpamCommand) Execute(ctx context.Context, args []string, ec *Context) error {
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}

	switch arg {
	case "on":
		c.deps.Policies.SetAntiSpam(ec.Chat, true)
		return c.deps.Send.Text(ctx, ec.Chat, "🚫 *Anti-Spam Enabled*\n\nSpammers will be warned and kicked.")
	case "off":
		c.deps.Policies.SetAntiSpam(ec.Chat, false)
		return c.deps.Send.Text(ctx, ec.Chat, "🚫 *Anti-Spam Disabled*")
	default:
		status := "❌ Disabled"
		if c.deps.Policies.AntiSpamEnabled(ec.Chat) {
			status = "✅ Enabled"
		}
		return c.deps.Send.Text(ctx, ec.Chat, fmt.Sprintf(
			"🚫 *Anti-Spam Status:* %s\n\nUse /antispam on or /antispam off", status))
	}
}
