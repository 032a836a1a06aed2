package command

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types"

	"warden-bot/internal/data/store"
	"warden-bot/internal/media"
)

type mockMessenger struct {
	mock.Mock
}

func (m *mockMessenger) Text(ctx context.Context, to types.JID, text string) error {
	return m.Called(ctx, to, text).Error(0)
}

func (m *mockMessenger) TextWithMentions(ctx context.Context, to types.JID, text string, mentions []types.JID) error {
	return m.Called(ctx, to, text, mentions).Error(0)
}

func (m *mockMessenger) Image(ctx context.Context, to types.JID, data []byte, mimeType, caption string) error {
	return m.Called(ctx, to, data, mimeType, caption).Error(0)
}

func (m *mockMessenger) Video(ctx context.Context, to types.JID, data []byte, mimeType, caption string) error {
	return m.Called(ctx, to, data, mimeType, caption).Error(0)
}

func (m *mockMessenger) Audio(ctx context.Context, to types.JID, data []byte, mimeType string) error {
	return m.Called(ctx, to, data, mimeType).Error(0)
}

func (m *mockMessenger) Document(ctx context.Context, to types.JID, data []byte, mimeType, filename, caption string) error {
	return m.Called(ctx, to, data, mimeType, filename, caption).Error(0)
}

func (m *mockMessenger) React(ctx context.Context, chat, sender types.JID, msgID types.MessageID, emoji string) error {
	return m.Called(ctx, chat, sender, msgID, emoji).Error(0)
}

func (m *mockMessenger) Revoke(ctx context.Context, chat, sender types.JID, msgID types.MessageID) error {
	return m.Called(ctx, chat, sender, msgID).Error(0)
}

func (m *mockMessenger) Composing(ctx context.Context, chat types.JID) error {
	return m.Called(ctx, chat).Error(0)
}

type mockGroups struct {
	mock.Mock
}

func (m *mockGroups) GroupInfo(ctx context.Context, jid types.JID) (*types.GroupInfo, error) {
	args := m.Called(ctx, jid)
	info, _ := args.Get(0).(*types.GroupInfo)
	return info, args.Error(1)
}

func (m *mockGroups) UpdateParticipants(ctx context.Context, group types.JID, users []types.JID, change whatsmeow.ParticipantChange) error {
	return m.Called(ctx, group, users, change).Error(0)
}

func (m *mockGroups) ProfilePictureURL(ctx context.Context, jid types.JID) (string, error) {
	args := m.Called(ctx, jid)
	return args.String(0), args.Error(1)
}

func (m *mockGroups) BotJID() types.JID {
	args := m.Called()
	jid, _ := args.Get(0).(types.JID)
	return jid
}

func (m *mockGroups) DownloadMedia(ctx context.Context, msg whatsmeow.DownloadableMessage) ([]byte, error) {
	args := m.Called(ctx, msg)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Search(ctx context.Context, query string) (*media.Video, error) {
	args := m.Called(ctx, query)
	video, _ := args.Get(0).(*media.Video)
	return video, args.Error(1)
}

func (m *mockFetcher) FetchAudio(ctx context.Context, videoID string) (*media.Audio, error) {
	args := m.Called(ctx, videoID)
	audio, _ := args.Get(0).(*media.Audio)
	return audio, args.Error(1)
}

func (m *mockFetcher) FetchImage(ctx context.Context, url string) []byte {
	args := m.Called(ctx, url)
	data, _ := args.Get(0).([]byte)
	return data
}

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) Find(jid types.JID) (*store.User, error) {
	args := m.Called(jid)
	u, _ := args.Get(0).(*store.User)
	return u, args.Error(1)
}

func (m *mockUsers) Save(u *store.User) error {
	return m.Called(u).Error(0)
}

func (m *mockUsers) Count() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func (m *mockUsers) SumUsage() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

type mockOfficials struct {
	mock.Mock
}

func (m *mockOfficials) Official() (store.OfficialGroup, bool) {
	args := m.Called()
	og, _ := args.Get(0).(store.OfficialGroup)
	return og, args.Bool(1)
}

func (m *mockOfficials) SetOfficial(jid types.JID, name, icon string) error {
	return m.Called(jid, name, icon).Error(0)
}
