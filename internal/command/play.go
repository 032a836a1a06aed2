package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"warden-bot/internal/session"
)

// PlayCommand searches YouTube and offers the result for download. The
// actual download happens later, when the user replies 1 or 2.
type PlayCommand struct {
	deps *Deps
}

func (c *PlayCommand) Name() string             { return "play" }
func (c *PlayCommand) Emoji() string            { return "⏳" }
func (c *PlayCommand) RequiresPaired() bool     { return false }
func (c *PlayCommand) RequiresGroup() bool      { return false }
func (c *PlayCommand) RequiresGroupAdmin() bool { return false }
func (c *PlayCommand) OwnerOnly() bool          { return false }

func (c *PlayCommand) Execute(ctx context.Context, args []string, ec *Context) error {
	if len(args) == 0 {
		return c.deps.Send.Text(ctx, ec.Chat, "❌ Usage: /play <song name>")
	}

	query := strings.Join(args, " ")
	video, err := c.deps.Media.Search(ctx, query)
	if err != nil {
		c.deps.Log.Errorf("Search failed for %q: %v", query, err)
	}
	if video == nil {
		if err := c.deps.Send.React(ctx, ec.Chat, ec.Sender, ec.MessageID, "❌"); err != nil {
			c.deps.Log.Debugf("Reaction failed: %v", err)
		}
		return c.deps.Send.Text(ctx, ec.Chat, "❌ No results found")
	}

	thumbnail := c.deps.Media.FetchImage(ctx, video.Thumbnail)

	// A second /play before replying replaces the pending choice.
	c.deps.Sessions.SetDownload(ec.Sender, &session.Download{
		Media: session.MediaRef{
			ID:    video.ID,
			Title: video.Title,
			URL:   video.URL,
		},
		Chat:      ec.Chat,
		MessageID: ec.MessageID,
		CreatedAt: time.Now(),
	})

	text := fmt.Sprintf(`🎵 *%s*

⏱️ *Duration:* %s
🎤 *Artist:* %s
👁️ *Views:* %s

🔗 %s

*Select option:*
1️⃣ 🎵 Audio
2️⃣ 📄 Document
0️⃣ ❌ Cancel

⏰ *Expires in 2 minutes*`, video.Title, video.Duration, video.Channel, video.Views, video.URL)

	return imageOrText(ctx, c.deps, ec.Chat, thumbnail, text)
}

// resolveDownload handles a 1/2 reply to a pending /play prompt. asAudio
// selects a playable audio message, otherwise the file is sent as a
// document. The pending entry is consumed either way.
func (r *Registry) resolveDownload(ctx context.Context, ec *Context, d *session.Download, asAudio bool) error {
	defer r.deps.Sessions.DeleteDownload(ec.Sender)

	react := func(emoji string) {
		if err := r.deps.Send.React(ctx, d.Chat, ec.Sender, d.MessageID, emoji); err != nil {
			r.deps.Log.Debugf("Reaction failed: %v", err)
		}
	}
	react("⏳")

	audio, err := r.deps.Media.FetchAudio(ctx, d.Media.ID)
	if err != nil {
		r.deps.Log.Errorf("Download failed for %s: %v", d.Media.ID, err)
		react("❌")
		return r.deps.Send.Text(ctx, ec.Chat, fmt.Sprintf(
			"❌ *Download Failed*\n\n🎵 %s\n🔗 %s\n\n💡 Try downloading directly from the link above.",
			d.Media.Title, d.Media.URL))
	}

	if asAudio {
		err = r.deps.Send.Audio(ctx, ec.Chat, audio.Data, "audio/mpeg")
	} else {
		err = r.deps.Send.Document(ctx, ec.Chat, audio.Data, "audio/mpeg",
			audio.Filename, fmt.Sprintf("📄 %s", d.Media.Title))
	}
	if err != nil {
		react("❌")
		return fmt.Errorf("send download: %w", err)
	}

	react("✅")
	return nil
}
