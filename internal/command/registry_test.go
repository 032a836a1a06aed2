package command

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"

	"warden-bot/internal/data/store"
	"warden-bot/internal/infra/config"
	"warden-bot/internal/media"
	"warden-bot/internal/moderation"
	"warden-bot/internal/session"
)

var (
	alice    = types.NewJID("111111111111", types.DefaultUserServer)
	bob      = types.NewJID("222222222222", types.DefaultUserServer)
	groupJID = types.NewJID("333333333333", types.GroupServer)
)

type harness struct {
	send      *mockMessenger
	groups    *mockGroups
	fetcher   *mockFetcher
	users     *mockUsers
	officials *mockOfficials
	sessions  *session.Store
	policies  *moderation.Engine
	registry  *Registry
}

func newHarness() *harness {
	cfg := config.Default()
	cfg.OwnerNumber = "999999999999"
	cfg.BotNumber = "555555555555"
	cfg.GroupInvite = "https://chat.whatsapp.com/testinvite"

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

	h := &harness{
		send:      &mockMessenger{},
		groups:    &mockGroups{},
		fetcher:   &mockFetcher{},
		users:     &mockUsers{},
		officials: &mockOfficials{},
		sessions:  sessions,
		policies:  policies,
	}

	// Reactions and presence are fire-and-forget in every path.
	h.send.On("React", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	h.send.On("Composing", mock.Anything, mock.Anything).Return(nil).Maybe()

	h.registry = NewRegistry(&Deps{
		Send:      h.send,
		Groups:    h.groups,
		Media:     h.fetcher,
		Users:     h.users,
		Officials: h.officials,
		Sessions:  sessions,
		Policies:  policies,
		Config:    cfg,
		Log:       waLog.Noop,
	})
	return h
}

func regularUser(paired bool) *store.User {
	return &store.User{
		JID:    alice,
		Number: "111111111111",
		Name:   "Alice",
		Paired: paired,
		Role:   store.RoleRegular,
	}
}

func groupCtx(user *store.User, text string) *Context {
	return &Context{
		Chat:      groupJID,
		Sender:    alice,
		IsGroup:   true,
		Text:      text,
		MessageID: "MSG-1",
		User:      user,
	}
}

func dmCtx(user *store.User, text string) *Context {
	return &Context{
		Chat:      alice,
		Sender:    alice,
		IsGroup:   false,
		Text:      text,
		MessageID: "MSG-1",
		User:      user,
	}
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness()
	h.send.On("Text", mock.Anything, groupJID, "❓ Unknown command. Try /menu").Return(nil).Once()

	err := h.registry.Dispatch(context.Background(), groupCtx(regularUser(true), "/bogus"))

	require.NoError(t, err)
	h.send.AssertExpectations(t)
}

func TestNonCommandTextIgnored(t *testing.T) {
	h := newHarness()

	err := h.registry.Dispatch(context.Background(), groupCtx(regularUser(true), "hello everyone"))

	require.NoError(t, err)
	h.send.AssertNotCalled(t, "Text", mock.Anything, mock.Anything, mock.Anything)
}

func TestKickRequiresPairing(t *testing.T) {
	h := newHarness()
	h.send.On("Text", mock.Anything, groupJID, "❌ You need to be paired").Return(nil).Once()

	err := h.registry.Dispatch(context.Background(), groupCtx(regularUser(false), "/kick 444444444444"))

	require.NoError(t, err)
	h.send.AssertExpectations(t)
	h.groups.AssertNotCalled(t, "GroupInfo", mock.Anything, mock.Anything)
	h.groups.AssertNotCalled(t, "UpdateParticipants", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestKickRequiresGroup(t *testing.T) {
	h := newHarness()
	h.send.On("Text", mock.Anything, alice, "❌ This command only works in groups").Return(nil).Once()

	err := h.registry.Dispatch(context.Background(), dmCtx(regularUser(true), "/kick 444444444444"))

	require.NoError(t, err)
	h.send.AssertExpectations(t)
}

func TestKickRequiresGroupAdmin(t *testing.T) {
	h := newHarness()
	h.send.On("Text", mock.Anything, groupJID, "❌ You need to be a group admin").Return(nil).Once()

	err := h.registry.Dispatch(context.Background(), groupCtx(regularUser(true), "/kick 444444444444"))

	require.NoError(t, err)
	h.send.AssertExpectations(t)
	h.groups.AssertNotCalled(t, "UpdateParticipants", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSetOfficialOwnerOnly(t *testing.T) {
	h := newHarness()
	h.send.On("Text", mock.Anything, groupJID, "❌ Owner only").Return(nil).Once()

	ec := groupCtx(regularUser(true), "/setofficial")
	ec.IsGroupAdmin = true

	require.NoError(t, h.registry.Dispatch(context.Background(), ec))
	h.send.AssertExpectations(t)
	h.officials.AssertNotCalled(t, "SetOfficial", mock.Anything, mock.Anything, mock.Anything)
}

func TestPairingFlow(t *testing.T) {
	h := newHarness()
	h.officials.On("Official").Return(store.OfficialGroup{JID: groupJID}, true)

	var code string
	h.send.On("Text", mock.Anything, groupJID, mock.MatchedBy(func(s string) bool {
		return strings.Contains(s, "YOUR PAIRING CODE")
	})).Run(func(args mock.Arguments) {
		code = regexp.MustCompile(`\d{8}`).FindString(args.String(2))
	}).Return(nil).Once()

	user := regularUser(false)
	require.NoError(t, h.registry.Dispatch(context.Background(), groupCtx(user, "/pair")))
	require.Len(t, code, 8, "pair card must contain an 8-digit code")

	// Echoing the code in a DM completes pairing and notifies the group.
	h.users.On("Save", mock.MatchedBy(func(u *store.User) bool {
		return u.Paired && u.Role == store.RoleRegular && !u.PairedSince.IsZero()
	})).Return(nil).Once()
	h.send.On("Text", mock.Anything, alice, mock.MatchedBy(func(s string) bool {
		return strings.Contains(s, "PAIRING SUCCESSFUL")
	})).Return(nil).Once()
	h.send.On("Text", mock.Anything, groupJID, mock.MatchedBy(func(s string) bool {
		return strings.Contains(s, "New user paired")
	})).Return(nil).Once()

	require.NoError(t, h.registry.Dispatch(context.Background(), dmCtx(user, code)))
	h.users.AssertExpectations(t)
	h.send.AssertExpectations(t)

	// The code is consumed; replaying it is invalid.
	h.send.On("Text", mock.Anything, alice, mock.MatchedBy(func(s string) bool {
		return strings.Contains(s, "Invalid code")
	})).Return(nil).Once()
	require.NoError(t, h.registry.Dispatch(context.Background(), dmCtx(user, code)))
	h.send.AssertExpectations(t)
}

func TestPairCodeExpired(t *testing.T) {
	h := newHarness()
	h.sessions.SetPairing("12345678", alice, time.Now().Add(-11*time.Minute))

	h.send.On("Text", mock.Anything, alice, mock.MatchedBy(func(s string) bool {
		return strings.Contains(s, "Code expired")
	})).Return(nil).Once()

	require.NoError(t, h.registry.Dispatch(context.Background(), dmCtx(regularUser(false), "12345678")))
	h.send.AssertExpectations(t)
	h.users.AssertNotCalled(t, "Save", mock.Anything)
}

func TestPairCodeWrongUser(t *testing.T) {
	h := newHarness()
	h.sessions.SetPairing("12345678", bob, time.Now())

	h.send.On("Text", mock.Anything, alice, mock.MatchedBy(func(s string) bool {
		return strings.Contains(s, "Invalid code")
	})).Return(nil).Once()

	require.NoError(t, h.registry.Dispatch(context.Background(), dmCtx(regularUser(false), "12345678")))
	h.send.AssertExpectations(t)
	h.users.AssertNotCalled(t, "Save", mock.Anything)
}

func TestPairAlreadyPaired(t *testing.T) {
	h := newHarness()
	h.send.On("Text", mock.Anything, groupJID, "✅ You are already paired!").Return(nil).Once()

	require.NoError(t, h.registry.Dispatch(context.Background(), groupCtx(regularUser(true), "/pair")))
	h.send.AssertExpectations(t)
}

func TestPairWrongGroup(t *testing.T) {
	h := newHarness()
	other := types.NewJID("444444444444", types.GroupServer)
	h.officials.On("Official").Return(store.OfficialGroup{JID: other}, true)

	h.send.On("Text", mock.Anything, groupJID, mock.MatchedBy(func(s string) bool {
		return strings.Contains(s, "Wrong place")
	})).Return(nil).Once()

	require.NoError(t, h.registry.Dispatch(context.Background(), groupCtx(regularUser(false), "/pair")))
	h.send.AssertExpectations(t)
}

func TestPlayFlow(t *testing.T) {
	h := newHarness()
	video := &media.Video{
		ID:       "vid123",
		Title:    "Test Song",
		Channel:  "Test Artist",
		Duration: "3:45",
		Views:    "1M",
		URL:      "https://youtube.com/watch?v=vid123",
	}
	h.fetcher.On("Search", mock.Anything, "test song").Return(video, nil).Once()
	h.fetcher.On("FetchImage", mock.Anything, mock.Anything).Return(nil).Maybe()
	h.send.On("Text", mock.Anything, alice, mock.MatchedBy(func(s string) bool {
		return strings.Contains(s, "Test Song") && strings.Contains(s, "Select option")
	})).Return(nil).Once()

	user := regularUser(true)
	require.NoError(t, h.registry.Dispatch(context.Background(), dmCtx(user, "/play test song")))

	// A "1" reply downloads and sends the audio.
	h.fetcher.On("FetchAudio", mock.Anything, "vid123").Return(&media.Audio{
		Data:     []byte("mp3data"),
		Filename: "Test_Song.mp3",
		Title:    "Test Song",
	}, nil).Once()
	h.send.On("Audio", mock.Anything, alice, []byte("mp3data"), "audio/mpeg").Return(nil).Once()

	require.NoError(t, h.registry.Dispatch(context.Background(), dmCtx(user, "1")))
	h.fetcher.AssertExpectations(t)
	h.send.AssertExpectations(t)

	// The pending entry is consumed, so another "1" is inert.
	require.NoError(t, h.registry.Dispatch(context.Background(), dmCtx(user, "1")))
	h.fetcher.AssertNumberOfCalls(t, "FetchAudio", 1)
}

func TestPlayDocumentChoice(t *testing.T) {
	h := newHarness()
	h.sessions.SetDownload(alice, &session.Download{
		Media:     session.MediaRef{ID: "vid123", Title: "Test Song", URL: "https://youtube.com/watch?v=vid123"},
		Chat:      alice,
		MessageID: "MSG-0",
		CreatedAt: time.Now(),
	})

	h.fetcher.On("FetchAudio", mock.Anything, "vid123").Return(&media.Audio{
		Data:     []byte("mp3data"),
		Filename: "Test_Song.mp3",
	}, nil).Once()
	h.send.On("Document", mock.Anything, alice, []byte("mp3data"), "audio/mpeg", "Test_Song.mp3", "📄 Test Song").Return(nil).Once()

	require.NoError(t, h.registry.Dispatch(context.Background(), dmCtx(regularUser(true), "2")))
	h.send.AssertExpectations(t)
}

func TestPlayCancel(t *testing.T) {
	h := newHarness()
	h.sessions.SetDownload(alice, &session.Download{
		Media:     session.MediaRef{ID: "vid123", Title: "Test Song"},
		Chat:      alice,
		MessageID: "MSG-0",
		CreatedAt: time.Now(),
	})

	require.NoError(t, h.registry.Dispatch(context.Background(), dmCtx(regularUser(true), "0")))

	h.fetcher.AssertNotCalled(t, "FetchAudio", mock.Anything, mock.Anything)
	_, ok := h.sessions.Download(alice, time.Now())
	assert.False(t, ok, "cancel must clear the pending download")
}

func TestPlayNoResults(t *testing.T) {
	h := newHarness()
	h.fetcher.On("Search", mock.Anything, "nothing").Return(nil, nil).Once()
	h.send.On("Text", mock.Anything, alice, "❌ No results found").Return(nil).Once()

	require.NoError(t, h.registry.Dispatch(context.Background(), dmCtx(regularUser(true), "/play nothing")))
	h.send.AssertExpectations(t)
}

func TestAntiLinkToggle(t *testing.T) {
	h := newHarness()
	h.send.On("Text", mock.Anything, groupJID, mock.Anything).Return(nil)

	ec := groupCtx(regularUser(true), "/antilink on")
	ec.IsGroupAdmin = true
	require.NoError(t, h.registry.Dispatch(context.Background(), ec))
	assert.True(t, h.policies.AntiLinkEnabled(groupJID))

	ec = groupCtx(regularUser(true), "/antilink off")
	ec.IsGroupAdmin = true
	require.NoError(t, h.registry.Dispatch(context.Background(), ec))
	assert.False(t, h.policies.AntiLinkEnabled(groupJID))
}

func TestParse(t *testing.T) {
	h := newHarness()

	name, args := h.registry.Parse("/kick 254712345678 all")
	assert.Equal(t, "kick", name)
	assert.Equal(t, []string{"254712345678", "all"}, args)

	name, args = h.registry.Parse("  /MENU  ")
	assert.Equal(t, "menu", name)
	assert.Empty(t, args)

	name, _ = h.registry.Parse("no prefix here")
	assert.Empty(t, name)

	name, _ = h.registry.Parse("/")
	assert.Empty(t, name)
}

func TestInfoCardIncludesUsageTotals(t *testing.T) {
	h := newHarness()
	h.users.On("Count").Return(7, nil).Once()
	h.users.On("SumUsage").Return(1234, nil).Once()
	h.fetcher.On("FetchImage", mock.Anything, mock.Anything).Return(nil).Maybe()

	var card string
	h.send.On("Text", mock.Anything, alice, mock.Anything).Run(func(args mock.Arguments) {
		card = args.String(2)
	}).Return(nil).Once()

	require.NoError(t, h.registry.Dispatch(context.Background(), dmCtx(regularUser(true), "/info")))

	assert.Contains(t, card, "👥 Users: 7")
	assert.Contains(t, card, "📊 Messages: 1234")
	h.users.AssertExpectations(t)
}
