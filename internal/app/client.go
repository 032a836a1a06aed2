package app

import (
	"context"
	"fmt"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"

	appstore "warden-bot/internal/data/store"
	"warden-bot/internal/infra/config"
)

// Client wraps whatsmeow.Client with the group and media operations the
// command layer needs.
type Client struct {
	WAClient *whatsmeow.Client
	Device   *store.Device
	Log      waLog.Logger
	Config   *config.Config
}

// NewClient creates a new Client.
func NewClient(cfg *config.Config, appStore *appstore.Store, log waLog.Logger) (*Client, error) {
	device, err := appStore.GetDevice()
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	waClient := whatsmeow.NewClient(device, log.Sub("whatsmeow"))
	// Reconnection is driven by the app's own backoff loop.
	waClient.EnableAutoReconnect = false
	waClient.AutoTrustIdentity = true

	return &Client{
		WAClient: waClient,
		Device:   device,
		Log:      log.Sub("Client"),
		Config:   cfg,
	}, nil
}

// AddEventHandler registers an event handler on the underlying client.
func (c *Client) AddEventHandler(handler func(interface{})) {
	c.WAClient.AddEventHandler(handler)
}

// Connect connects to WhatsApp.
func (c *Client) Connect() error {
	return c.WAClient.Connect()
}

// Disconnect disconnects from WhatsApp.
func (c *Client) Disconnect() {
	c.WAClient.Disconnect()
}

// IsLoggedIn returns true if the client has stored credentials.
func (c *Client) IsLoggedIn() bool {
	return c.Device.ID != nil
}

// GetQRChannel returns a channel for QR pairing events.
func (c *Client) GetQRChannel(ctx context.Context) (<-chan whatsmeow.QRChannelItem, error) {
	return c.WAClient.GetQRChannel(ctx)
}

// BotJID returns the bot's own JID, zero before login.
func (c *Client) BotJID() types.JID {
	if c.Device.ID != nil {
		return c.Device.ID.ToNonAD()
	}
	return types.JID{}
}

// GroupInfo fetches group metadata.
func (c *Client) GroupInfo(ctx context.Context, jid types.JID) (*types.GroupInfo, error) {
	info, err := c.WAClient.GetGroupInfo(ctx, jid)
	if err != nil {
		return nil, fmt.Errorf("get group info: %w", err)
	}
	return info, nil
}

// UpdateParticipants adds or removes group members.
func (c *Client) UpdateParticipants(ctx context.Context, group types.JID, users []types.JID, change whatsmeow.ParticipantChange) error {
	if _, err := c.WAClient.UpdateGroupParticipants(ctx, group, users, change); err != nil {
		return fmt.Errorf("update participants: %w", err)
	}
	return nil
}

// ProfilePictureURL returns the full-size profile picture URL for a user
// or group, empty when none is set or it is not visible to the bot.
func (c *Client) ProfilePictureURL(ctx context.Context, jid types.JID) (string, error) {
	info, err := c.WAClient.GetProfilePictureInfo(ctx, jid, &whatsmeow.GetProfilePictureParams{})
	if err != nil {
		return "", fmt.Errorf("get profile picture: %w", err)
	}
	if info == nil {
		return "", nil
	}
	return info.URL, nil
}

// DownloadMedia downloads encrypted media referenced by a message.
func (c *Client) DownloadMedia(ctx context.Context, msg whatsmeow.DownloadableMessage) ([]byte, error) {
	data, err := c.WAClient.Download(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("download media: %w", err)
	}
	return data, nil
}

// Underlying returns the wrapped whatsmeow.Client.
func (c *Client) Underlying() *whatsmeow.Client {
	return c.WAClient
}
