package command

import (
	"context"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types"

	"warden-bot/internal/data/store"
	"warden-bot/internal/media"
)

// Messenger sends outbound messages. Implemented by send.Service.
type Messenger interface {
	Text(ctx context.Context, to types.JID, text string) error
	TextWithMentions(ctx context.Context, to types.JID, text string, mentions []types.JID) error
	Image(ctx context.Context, to types.JID, data []byte, mimeType, caption string) error
	Video(ctx context.Context, to types.JID, data []byte, mimeType, caption string) error
	Audio(ctx context.Context, to types.JID, data []byte, mimeType string) error
	Document(ctx context.Context, to types.JID, data []byte, mimeType, filename, caption string) error
	React(ctx context.Context, chat, sender types.JID, msgID types.MessageID, emoji string) error
	Revoke(ctx context.Context, chat, sender types.JID, msgID types.MessageID) error
	Composing(ctx context.Context, chat types.JID) error
}

// Groups exposes the group and media operations of the WhatsApp client.
type Groups interface {
	GroupInfo(ctx context.Context, jid types.JID) (*types.GroupInfo, error)
	UpdateParticipants(ctx context.Context, group types.JID, users []types.JID, change whatsmeow.ParticipantChange) error
	ProfilePictureURL(ctx context.Context, jid types.JID) (string, error)
	BotJID() types.JID
	DownloadMedia(ctx context.Context, msg whatsmeow.DownloadableMessage) ([]byte, error)
}

// Fetcher searches and downloads media. Implemented by media.Client.
type Fetcher interface {
	Search(ctx context.Context, query string) (*media.Video, error)
	FetchAudio(ctx context.Context, videoID string) (*media.Audio, error)
	FetchImage(ctx context.Context, url string) []byte
}

// Users is the slice of the user store commands need.
type Users interface {
	Find(jid types.JID) (*store.User, error)
	Save(u *store.User) error
	Count() (int, error)
	SumUsage() (int, error)
}

// Officials manages the designated pairing venue.
type Officials interface {
	Official() (store.OfficialGroup, bool)
	SetOfficial(jid types.JID, name, icon string) error
}
