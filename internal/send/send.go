// Package send provides the high-level outbound API over the WhatsApp
// client: text, media, reactions, revokes and typing presence. All methods
// degrade to an error return; callers decide whether a failure matters.
package send

import (
	"context"
	"fmt"
	"time"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waCommon"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

// Service sends messages via the WhatsApp client.
type Service struct {
	client *whatsmeow.Client
	log    waLog.Logger
}

// NewService creates a new Service.
func NewService(client *whatsmeow.Client, log waLog.Logger) *Service {
	return &Service{
		client: client,
		log:    log.Sub("Send"),
	}
}

// Text sends a plain text message.
func (s *Service) Text(ctx context.Context, to types.JID, text string) error {
	msg := &waE2E.Message{Conversation: proto.String(text)}
	return s.send(ctx, to, msg)
}

// TextWithMentions sends a text message that mentions the given users.
func (s *Service) TextWithMentions(ctx context.Context, to types.JID, text string, mentions []types.JID) error {
	mentioned := make([]string, len(mentions))
	for i, jid := range mentions {
		mentioned[i] = jid.String()
	}
	msg := &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String(text),
			ContextInfo: &waE2E.ContextInfo{
				MentionedJID: mentioned,
			},
		},
	}
	return s.send(ctx, to, msg)
}

// Image uploads and sends an image with an optional caption.
func (s *Service) Image(ctx context.Context, to types.JID, data []byte, mimeType, caption string) error {
	up, err := s.client.Upload(ctx, data, whatsmeow.MediaImage)
	if err != nil {
		return fmt.Errorf("upload image: %w", err)
	}

	img := &waE2E.ImageMessage{
		URL:           proto.String(up.URL),
		DirectPath:    proto.String(up.DirectPath),
		MediaKey:      up.MediaKey,
		Mimetype:      proto.String(mimeType),
		FileEncSHA256: up.FileEncSHA256,
		FileSHA256:    up.FileSHA256,
		FileLength:    proto.Uint64(up.FileLength),
	}
	if caption != "" {
		img.Caption = proto.String(caption)
	}
	return s.send(ctx, to, &waE2E.Message{ImageMessage: img})
}

// Video uploads and sends a video with an optional caption.
func (s *Service) Video(ctx context.Context, to types.JID, data []byte, mimeType, caption string) error {
	up, err := s.client.Upload(ctx, data, whatsmeow.MediaVideo)
	if err != nil {
		return fmt.Errorf("upload video: %w", err)
	}

	vid := &waE2E.VideoMessage{
		URL:           proto.String(up.URL),
		DirectPath:    proto.String(up.DirectPath),
		MediaKey:      up.MediaKey,
		Mimetype:      proto.String(mimeType),
		FileEncSHA256: up.FileEncSHA256,
		FileSHA256:    up.FileSHA256,
		FileLength:    proto.Uint64(up.FileLength),
	}
	if caption != "" {
		vid.Caption = proto.String(caption)
	}
	return s.send(ctx, to, &waE2E.Message{VideoMessage: vid})
}

// Audio uploads and sends an audio message.
func (s *Service) Audio(ctx context.Context, to types.JID, data []byte, mimeType string) error {
	up, err := s.client.Upload(ctx, data, whatsmeow.MediaAudio)
	if err != nil {
		return fmt.Errorf("upload audio: %w", err)
	}

	aud := &waE2E.AudioMessage{
		URL:           proto.String(up.URL),
		DirectPath:    proto.String(up.DirectPath),
		MediaKey:      up.MediaKey,
		Mimetype:      proto.String(mimeType),
		FileEncSHA256: up.FileEncSHA256,
		FileSHA256:    up.FileSHA256,
		FileLength:    proto.Uint64(up.FileLength),
	}
	return s.send(ctx, to, &waE2E.Message{AudioMessage: aud})
}

// Document uploads and sends a file as a document.
func (s *Service) Document(ctx context.Context, to types.JID, data []byte, mimeType, filename, caption string) error {
	up, err := s.client.Upload(ctx, data, whatsmeow.MediaDocument)
	if err != nil {
		return fmt.Errorf("upload document: %w", err)
	}

	doc := &waE2E.DocumentMessage{
		URL:           proto.String(up.URL),
		DirectPath:    proto.String(up.DirectPath),
		MediaKey:      up.MediaKey,
		Mimetype:      proto.String(mimeType),
		FileEncSHA256: up.FileEncSHA256,
		FileSHA256:    up.FileSHA256,
		FileLength:    proto.Uint64(up.FileLength),
		FileName:      proto.String(filename),
		Title:         proto.String(filename),
	}
	if caption != "" {
		doc.Caption = proto.String(caption)
	}
	return s.send(ctx, to, &waE2E.Message{DocumentMessage: doc})
}

// React sends an emoji reaction to someone else's message.
func (s *Service) React(ctx context.Context, chat, sender types.JID, msgID types.MessageID, emoji string) error {
	key := &waCommon.MessageKey{
		RemoteJID: proto.String(chat.String()),
		FromMe:    proto.Bool(false),
		ID:        proto.String(string(msgID)),
	}
	if chat.Server == types.GroupServer && !sender.IsEmpty() {
		key.Participant = proto.String(sender.String())
	}

	msg := &waE2E.Message{
		ReactionMessage: &waE2E.ReactionMessage{
			Key:               key,
			Text:              proto.String(emoji),
			SenderTimestampMS: proto.Int64(time.Now().UnixMilli()),
		},
	}
	return s.send(ctx, chat, msg)
}

// Revoke deletes a participant's message for everyone. The bot must be a
// group admin for this to succeed on someone else's message.
func (s *Service) Revoke(ctx context.Context, chat, sender types.JID, msgID types.MessageID) error {
	key := &waCommon.MessageKey{
		RemoteJID: proto.String(chat.String()),
		FromMe:    proto.Bool(false),
		ID:        proto.String(string(msgID)),
	}
	if chat.Server == types.GroupServer && !sender.IsEmpty() {
		key.Participant = proto.String(sender.String())
	}

	msg := &waE2E.Message{
		ProtocolMessage: &waE2E.ProtocolMessage{
			Key:  key,
			Type: waE2E.ProtocolMessage_REVOKE.Enum(),
		},
	}
	return s.send(ctx, chat, msg)
}

// Composing shows a typing indicator in the chat.
func (s *Service) Composing(ctx context.Context, chat types.JID) error {
	return s.client.SendChatPresence(ctx, chat, types.ChatPresenceComposing, types.ChatPresenceMediaText)
}

func (s *Service) send(ctx context.Context, to types.JID, msg *waE2E.Message) error {
	if s.client == nil {
		return fmt.Errorf("client not initialized")
	}
	if _, err := s.client.SendMessage(ctx, to, msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
