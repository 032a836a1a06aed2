package command

import (
	"context"

	"go.mau.fi/whatsmeow/proto/waE2E"
)

// recoverViewOnce handles a ".cc" reply to a view-once photo or video and
// re-sends the media as a normal message.
func (r *Registry) recoverViewOnce(ctx context.Context, ec *Context) error {
	if !ec.User.Paired && !ec.IsOwner {
		return r.deps.Send.Text(ctx, ec.Chat, "❌ You need to be paired to use this command")
	}

	quoted := unwrapViewOnce(ec.Quoted)

	switch {
	case quoted.GetImageMessage() != nil:
		img := quoted.GetImageMessage()
		data, err := r.deps.Groups.DownloadMedia(ctx, img)
		if err != nil {
			r.deps.Log.Errorf("View-once download failed: %v", err)
			return r.deps.Send.Text(ctx, ec.Chat, "❌ Could not recover media")
		}
		caption := img.GetCaption()
		if caption == "" {
			caption = "📸 View once media recovered"
		}
		return r.deps.Send.Image(ctx, ec.Chat, data, img.GetMimetype(), caption)

	case quoted.GetVideoMessage() != nil:
		vid := quoted.GetVideoMessage()
		data, err := r.deps.Groups.DownloadMedia(ctx, vid)
		if err != nil {
			r.deps.Log.Errorf("View-once download failed: %v", err)
			return r.deps.Send.Text(ctx, ec.Chat, "❌ Could not recover media")
		}
		caption := vid.GetCaption()
		if caption == "" {
			caption = "🎥 View once media recovered"
		}
		return r.deps.Send.Video(ctx, ec.Chat, data, vid.GetMimetype(), caption)

	default:
		return r.deps.Send.Text(ctx, ec.Chat, "❌ Could not recover media")
	}
}

// unwrapViewOnce peels the view-once wrappers off a quoted message so the
// inner image or video is reachable regardless of client version.
func unwrapViewOnce(msg *waE2E.Message) *waE2E.Message {
	if msg == nil {
		return &waE2E.Message{}
	}
	if v := msg.GetViewOnceMessage(); v != nil && v.GetMessage() != nil {
		return v.GetMessage()
	}
	if v := msg.GetViewOnceMessageV2(); v != nil && v.GetMessage() != nil {
		return v.GetMessage()
	}
	if v := msg.GetViewOnceMessageV2Extension(); v != nil && v.GetMessage() != nil {
		return v.GetMessage()
	}
	return msg
}
