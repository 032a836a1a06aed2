// Package command parses inbound text and dispatches bot commands.
//
// Three literal forms are handled before prefix commands: ".cc" replies to
// recover view-once media, "1"/"2"/"0" replies that resolve a pending
// download, and bare 8-digit codes in direct messages that complete
// pairing. Everything else must start with the configured prefix.
package command

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"

	"warden-bot/internal/infra/config"
	"warden-bot/internal/moderation"
	"warden-bot/internal/session"
)

// Command is the interface all commands must implement.
type Command interface {
	Name() string
	Emoji() string
	RequiresPaired() bool
	RequiresGroup() bool
	RequiresGroupAdmin() bool
	OwnerOnly() bool
	Execute(ctx context.Context, args []string, ec *Context) error
}

// Deps bundles the collaborators commands draw on.
type Deps struct {
	Send      Messenger
	Groups    Groups
	Media     Fetcher
	Users     Users
	Officials Officials
	Sessions  *session.Store
	Policies  *moderation.Engine
	Config    *config.Config
	Log       waLog.Logger
}

var pairCodePattern = regexp.MustCompile(`^\d{8}$`)

// Registry manages command registration and dispatch.
type Registry struct {
	deps     *Deps
	commands map[string]Command
	mu       sync.RWMutex
}

// NewRegistry creates a registry with all built-in commands registered.
func NewRegistry(deps *Deps) *Registry {
	r := &Registry{
		deps:     deps,
		commands: make(map[string]Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd.Name()] = cmd
}

// Get retrieves a command by name.
func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

func (r *Registry) registerBuiltins() {
	r.Register(&PingCommand{deps: r.deps})
	r.Register(&MenuCommand{deps: r.deps})
	r.Register(&InfoCommand{deps: r.deps})
	r.Register(&RoleCommand{deps: r.deps})
	r.Register(&PlayCommand{deps: r.deps})
	r.Register(&PairCommand{deps: r.deps})
	r.Register(&KickCommand{deps: r.deps})
	r.Register(&AddCommand{deps: r.deps})
	r.Register(&OfficialInfoCommand{deps: r.deps})
	r.Register(&SetOfficialCommand{deps: r.deps})
	r.Register(&AntiLinkCommand{deps: r.deps})
	r.Register(&AntiSpamCommand{deps: r.deps})
}

// Parse extracts command name and args from prefixed text.
func (r *Registry) Parse(text string) (name string, args []string) {
	prefix := r.deps.Config.Prefix
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, prefix) {
		return "", nil
	}

	parts := strings.Fields(strings.TrimPrefix(text, prefix))
	if len(parts) == 0 {
		return "", nil
	}
	return strings.ToLower(parts[0]), parts[1:]
}

// Dispatch routes one inbound message. Literal forms are checked first so a
// "1" reply never collides with prefix parsing.
func (r *Registry) Dispatch(ctx context.Context, ec *Context) error {
	text := strings.TrimSpace(ec.Text)

	if text == ".cc" && ec.Quoted != nil {
		return r.recoverViewOnce(ctx, ec)
	}

	if text == "1" || text == "2" || text == "0" {
		if d, ok := r.deps.Sessions.Download(ec.Sender, time.Now()); ok {
			if text == "0" {
				r.deps.Sessions.DeleteDownload(ec.Sender)
				return r.deps.Send.React(ctx, d.Chat, ec.Sender, d.MessageID, "❌")
			}
			return r.resolveDownload(ctx, ec, d, text == "1")
		}
	}

	if !ec.IsGroup && pairCodePattern.MatchString(text) {
		return r.completePairing(ctx, ec, text)
	}

	name, args := r.Parse(text)
	if name == "" {
		return nil
	}

	r.deps.Log.Infof("Command: %s from %s", name, ec.User.Number)

	cmd, ok := r.Get(name)

	emoji := "🤖"
	if ok {
		emoji = cmd.Emoji()
	}
	if err := r.deps.Send.React(ctx, ec.Chat, ec.Sender, ec.MessageID, emoji); err != nil {
		r.deps.Log.Debugf("Reaction failed: %v", err)
	}
	if err := r.deps.Send.Composing(ctx, ec.Chat); err != nil {
		r.deps.Log.Debugf("Presence failed: %v", err)
	}

	if !ok {
		return r.deps.Send.Text(ctx, ec.Chat, "❓ Unknown command. Try /menu")
	}

	if cmd.OwnerOnly() && !ec.IsOwner {
		return r.deps.Send.Text(ctx, ec.Chat, "❌ Owner only")
	}
	if cmd.RequiresPaired() && !ec.User.Paired && !ec.IsOwner {
		return r.deps.Send.Text(ctx, ec.Chat, "❌ You need to be paired")
	}
	if cmd.RequiresGroup() && !ec.IsGroup {
		return r.deps.Send.Text(ctx, ec.Chat, "❌ This command only works in groups")
	}
	if cmd.RequiresGroupAdmin() && !ec.CanModerate() {
		return r.deps.Send.Text(ctx, ec.Chat, "❌ You need to be a group admin")
	}

	return cmd.Execute(ctx, args, ec)
}

// botImage fetches the configured bot picture, nil when unset or failing.
func botImage(ctx context.Context, d *Deps) []byte {
	if d.Config.BotImageURL == "" {
		return nil
	}
	return d.Media.FetchImage(ctx, d.Config.BotImageURL)
}

// imageOrText sends caption over img when available, plain text otherwise.
func imageOrText(ctx context.Context, d *Deps, chat types.JID, img []byte, caption string) error {
	if img != nil {
		return d.Send.Image(ctx, chat, img, "image/jpeg", caption)
	}
	return d.Send.Text(ctx, chat, caption)
}
