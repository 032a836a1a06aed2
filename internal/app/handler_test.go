package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"warden-bot/internal/command"
	"warden-bot/internal/data/store"
	"warden-bot/internal/infra/config"
	"warden-bot/internal/moderation"
	"warden-bot/internal/session"
)

var (
	member   = types.NewJID("111111111111", types.DefaultUserServer)
	roomJID  = types.NewJID("333333333333", types.GroupServer)
	ownerJID = types.NewJID("999999999999", types.DefaultUserServer)
)

type mockUserRecords struct {
	mock.Mock
}

func (m *mockUserRecords) FindOrCreate(jid types.JID, pushName string) (*store.User, error) {
	args := m.Called(jid, pushName)
	u, _ := args.Get(0).(*store.User)
	return u, args.Error(1)
}

func (m *mockUserRecords) Save(u *store.User) error {
	return m.Called(u).Error(0)
}

func (m *mockUserRecords) Touch(jid types.JID) error {
	return m.Called(jid).Error(0)
}

func (m *mockUserRecords) IncrementWarnings(jid types.JID) error {
	return m.Called(jid).Error(0)
}

type mockGroupClient struct {
	mock.Mock
}

func (m *mockGroupClient) GroupInfo(ctx context.Context, jid types.JID) (*types.GroupInfo, error) {
	args := m.Called(ctx, jid)
	info, _ := args.Get(0).(*types.GroupInfo)
	return info, args.Error(1)
}

func (m *mockGroupClient) UpdateParticipants(ctx context.Context, group types.JID, users []types.JID, change whatsmeow.ParticipantChange) error {
	return m.Called(ctx, group, users, change).Error(0)
}

type mockGate struct {
	mock.Mock
}

func (m *mockGate) Allow(userID, groupID string) bool {
	return m.Called(userID, groupID).Bool(0)
}

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Dispatch(ctx context.Context, ec *command.Context) error {
	return m.Called(ctx, ec).Error(0)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Text(ctx context.Context, to types.JID, text string) error {
	return m.Called(ctx, to, text).Error(0)
}

func (m *mockSender) TextWithMentions(ctx context.Context, to types.JID, text string, mentions []types.JID) error {
	return m.Called(ctx, to, text, mentions).Error(0)
}

func (m *mockSender) Image(ctx context.Context, to types.JID, data []byte, mimeType, caption string) error {
	return m.Called(ctx, to, data, mimeType, caption).Error(0)
}

func (m *mockSender) Video(ctx context.Context, to types.JID, data []byte, mimeType, caption string) error {
	return m.Called(ctx, to, data, mimeType, caption).Error(0)
}

func (m *mockSender) Audio(ctx context.Context, to types.JID, data []byte, mimeType string) error {
	return m.Called(ctx, to, data, mimeType).Error(0)
}

func (m *mockSender) Document(ctx context.Context, to types.JID, data []byte, mimeType, filename, caption string) error {
	return m.Called(ctx, to, data, mimeType, filename, caption).Error(0)
}

func (m *mockSender) React(ctx context.Context, chat, sender types.JID, msgID types.MessageID, emoji string) error {
	return m.Called(ctx, chat, sender, msgID, emoji).Error(0)
}

func (m *mockSender) Revoke(ctx context.Context, chat, sender types.JID, msgID types.MessageID) error {
	return m.Called(ctx, chat, sender, msgID).Error(0)
}

func (m *mockSender) Composing(ctx context.Context, chat types.JID) error {
	return m.Called(ctx, chat).Error(0)
}

type handlerHarness struct {
	client     *mockGroupClient
	users      *mockUserRecords
	gate       *mockGate
	dispatcher *mockDispatcher
	send       *mockSender
	policies   *moderation.Engine
	handler    *MessageHandler
}

func newHandlerHarness() *handlerHarness {
	cfg := config.Default()
	cfg.OwnerNumber = "999999999999"

	sessions := session.NewStore(session.Config{
		DownloadTTL: cfg.Session.DownloadTTL,
		PairingTTL:  cfg.Session.PairingTTL,
		WarningTTL:  cfg.Session.WarningTTL,
	}, waLog.Noop)
	policies := moderation.NewEngine(sessions, moderation.Config{
		LinkWindow: cfg.Moderation.LinkWindow,
		LinkKickAt: cfg.Moderation.LinkKickAt,
		SpamGap:    cfg.Moderation.SpamGap,
		SpamWarnAt: cfg.Moderation.SpamWarnAt,
		SpamKickAt: cfg.Moderation.SpamKickAt,
	}, waLog.Noop)

	h := &handlerHarness{
		client:     &mockGroupClient{},
		users:      &mockUserRecords{},
		gate:       &mockGate{},
		dispatcher: &mockDispatcher{},
		send:       &mockSender{},
		policies:   policies,
	}
	h.handler = NewMessageHandler(cfg, h.client, h.users, h.gate, policies, h.dispatcher, h.send, waLog.Noop)
	return h
}

// allowAll stubs everything up to dispatch for a plain incoming message.
func (h *handlerHarness) allowAll(user *store.User) {
	h.gate.On("Allow", mock.Anything, mock.Anything).Return(true)
	h.users.On("FindOrCreate", mock.Anything, mock.Anything).Return(user, nil)
	h.users.On("Touch", mock.Anything).Return(nil)
	h.dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(nil).Maybe()
}

func memberUser() *store.User {
	return &store.User{
		JID:    member,
		Number: "111111111111",
		Name:   "Alice",
		Paired: true,
		Role:   store.RoleRegular,
	}
}

func groupMessage(sender types.JID, text string) *events.Message {
	return &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{
				Chat:    roomJID,
				Sender:  sender,
				IsGroup: true,
			},
			ID:       "MSG-1",
			PushName: "Alice",
		},
		Message: &waE2E.Message{Conversation: proto.String(text)},
	}
}

func groupWith(participants ...types.GroupParticipant) *types.GroupInfo {
	return &types.GroupInfo{Participants: participants}
}

func TestRateLimitedMessageGoesNoFurther(t *testing.T) {
	h := newHandlerHarness()
	h.gate.On("Allow", member.String(), roomJID.String()).Return(false).Once()

	h.handler.OnMessage(context.Background(), groupMessage(member, "/menu"))

	h.gate.AssertExpectations(t)
	h.users.AssertNotCalled(t, "FindOrCreate", mock.Anything, mock.Anything)
	h.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestGroupAdminExemptFromModeration(t *testing.T) {
	h := newHandlerHarness()
	h.policies.SetAntiLink(roomJID, true)
	h.allowAll(memberUser())
	h.client.On("GroupInfo", mock.Anything, roomJID).
		Return(groupWith(types.GroupParticipant{JID: member, IsAdmin: true}), nil)

	h.handler.OnMessage(context.Background(), groupMessage(member, "join https://chat.whatsapp.com/spam"))

	h.send.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	h.send.AssertNotCalled(t, "TextWithMentions", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	h.client.AssertNotCalled(t, "UpdateParticipants", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOwnerExemptFromModerationAndAutoPaired(t *testing.T) {
	h := newHandlerHarness()
	h.policies.SetAntiLink(roomJID, true)
	owner := &store.User{JID: ownerJID, Number: "999999999999", Name: "Boss"}
	h.gate.On("Allow", mock.Anything, mock.Anything).Return(true)
	h.users.On("FindOrCreate", ownerJID, mock.Anything).Return(owner, nil)
	h.users.On("Save", mock.MatchedBy(func(u *store.User) bool {
		return u.Paired && u.Role == store.RoleOwner && !u.PairedSince.IsZero()
	})).Return(nil).Once()
	h.users.On("Touch", mock.Anything).Return(nil)
	h.dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(nil)
	h.client.On("GroupInfo", mock.Anything, roomJID).Return(groupWith(), nil)

	h.handler.OnMessage(context.Background(), groupMessage(ownerJID, "see https://example.com/latest"))

	h.users.AssertExpectations(t)
	h.send.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLinkFromMemberRevokedAndWarned(t *testing.T) {
	h := newHandlerHarness()
	h.policies.SetAntiLink(roomJID, true)
	h.allowAll(memberUser())
	h.client.On("GroupInfo", mock.Anything, roomJID).Return(groupWith(types.GroupParticipant{JID: member}), nil)
	h.users.On("IncrementWarnings", member).Return(nil).Once()
	h.send.On("Revoke", mock.Anything, roomJID, member, types.MessageID("MSG-1")).Return(nil).Once()
	h.send.On("TextWithMentions", mock.Anything, roomJID,
		"⚠️ @111111111111 No links allowed! Warning 1/3", []types.JID{member}).Return(nil).Once()

	h.handler.OnMessage(context.Background(), groupMessage(member, "join https://chat.whatsapp.com/spam"))

	h.send.AssertExpectations(t)
	h.users.AssertExpectations(t)
	h.client.AssertNotCalled(t, "UpdateParticipants", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLinkEscalationKicksMember(t *testing.T) {
	h := newHandlerHarness()
	h.policies.SetAntiLink(roomJID, true)
	h.allowAll(memberUser())
	h.client.On("GroupInfo", mock.Anything, roomJID).Return(groupWith(types.GroupParticipant{JID: member}), nil)
	h.users.On("IncrementWarnings", member).Return(nil)
	h.send.On("Revoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	h.send.On("TextWithMentions", mock.Anything, roomJID, mock.Anything, []types.JID{member}).Return(nil)
	h.client.On("UpdateParticipants", mock.Anything, roomJID, []types.JID{member}, whatsmeow.ParticipantChangeRemove).Return(nil).Once()

	for range 3 {
		h.handler.OnMessage(context.Background(), groupMessage(member, "join https://chat.whatsapp.com/spam"))
	}

	h.client.AssertExpectations(t)
}

func TestPanicInDispatchIsContained(t *testing.T) {
	h := newHandlerHarness()
	h.gate.On("Allow", mock.Anything, mock.Anything).Return(true)
	h.users.On("FindOrCreate", mock.Anything, mock.Anything).Return(memberUser(), nil)
	h.users.On("Touch", mock.Anything).Return(nil)
	h.client.On("GroupInfo", mock.Anything, roomJID).Return(groupWith(), nil)
	h.dispatcher.On("Dispatch", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("command blew up")
	}).Return(nil).Once()

	require.NotPanics(t, func() {
		h.handler.OnMessage(context.Background(), groupMessage(member, "/menu"))
	})
}

func TestOwnMessagesIgnored(t *testing.T) {
	h := newHandlerHarness()
	evt := groupMessage(member, "/menu")
	evt.Info.IsFromMe = true

	h.handler.OnMessage(context.Background(), evt)

	h.gate.AssertNotCalled(t, "Allow", mock.Anything, mock.Anything)
}
