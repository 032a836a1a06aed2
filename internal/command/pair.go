package command

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"warden-bot/internal/data/store"
	"warden-bot/internal/utils/jid"
)

// PairCommand issues an 8-digit pairing code. Codes are only handed out in
// the official group and must be echoed back in a direct message.
type PairCommand struct {
	deps *Deps
}

func (c *PairCommand) Name() string             { return "pair" }
func (c *PairCommand) Emoji() string            { return "🔐" }
func (c *PairCommand) RequiresPaired() bool     { return false }
func (c *PairCommand) RequiresGroup() bool      { return false }
func (c *PairCommand) RequiresGroupAdmin() bool { return false }
func (c *PairCommand) OwnerOnly() bool          { return false }

func (c *PairCommand) Execute(ctx context.Context, args []string, ec *Context) error {
	if ec.User.Paired {
		return c.deps.Send.Text(ctx, ec.Chat, "✅ You are already paired!")
	}

	if !ec.IsGroup {
		return c.deps.Send.Text(ctx, ec.Chat, fmt.Sprintf(
			"❌ *No code found in DM*\n\nGet a code from the official group first:\n%s",
			c.deps.Config.GroupInvite))
	}

	if official, ok := c.deps.Officials.Official(); ok && !jid.Same(ec.Chat, official.JID) {
		return c.deps.Send.Text(ctx, ec.Chat, fmt.Sprintf(
			"❌ *Wrong place!*\n\nJoin our official group first:\n%s",
			c.deps.Config.GroupInvite))
	}

	code := generatePairCode()
	c.deps.Sessions.SetPairing(code, ec.Sender, time.Now())

	return c.deps.Send.Text(ctx, ec.Chat, fmt.Sprintf(`🔐 *YOUR PAIRING CODE*

`+"`%s`"+`

📋 *INSTRUCTIONS:*
1️⃣ Copy this code
2️⃣ DM me at %s
3️⃣ Paste the code there

⏰ *Expires in 10 minutes*`, code, c.deps.Config.BotNumber))
}

func generatePairCode() string {
	return fmt.Sprintf("%08d", rand.IntN(90000000)+10000000)
}

// completePairing handles a bare 8-digit code in a direct message. An
// expired code and an unknown code get distinct replies; a code issued to
// a different user is treated as invalid.
func (r *Registry) completePairing(ctx context.Context, ec *Context, code string) error {
	pending, ok := r.deps.Sessions.Pairing(code)
	if !ok || !jid.Same(pending.User, ec.Sender) {
		return r.deps.Send.Text(ctx, ec.Chat, fmt.Sprintf(
			"❌ *Invalid code!*\n\nJoin %s and type /pair to get a valid code.",
			r.deps.Config.GroupInvite))
	}

	if time.Since(pending.CreatedAt) > r.deps.Config.Session.PairingTTL {
		r.deps.Sessions.DeletePairing(code)
		return r.deps.Send.Text(ctx, ec.Chat,
			"❌ *Code expired!*\n\nGet a new code by typing /pair in the official group.")
	}

	ec.User.Paired = true
	ec.User.Role = store.RoleRegular
	ec.User.PairedSince = time.Now()
	if err := r.deps.Users.Save(ec.User); err != nil {
		return fmt.Errorf("save paired user: %w", err)
	}
	r.deps.Sessions.DeletePairing(code)

	r.deps.Log.Infof("User paired: %s", ec.User.Number)

	if err := r.deps.Send.Text(ctx, ec.Chat,
		"✅ *PAIRING SUCCESSFUL!*\n\nYou can now use all bot commands in ANY group!\n\nTry /menu to see available commands."); err != nil {
		return err
	}

	if official, ok := r.deps.Officials.Official(); ok {
		err := r.deps.Send.Text(ctx, official.JID, fmt.Sprintf(
			"👤 *New user paired!*\n📱 %s\n👤 %s", ec.User.Number, orUnknown(ec.User.Name)))
		if err != nil {
			r.deps.Log.Warnf("Pairing notice failed: %v", err)
		}
	}
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
