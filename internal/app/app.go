// Package app wires the stores, services and WhatsApp client together and
// owns the connection lifecycle.
package app

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"go.mau.fi/whatsmeow/types/events"

	"warden-bot/internal/auth"
	"warden-bot/internal/command"
	"warden-bot/internal/data/store"
	"warden-bot/internal/infra/config"
	"warden-bot/internal/infra/logger"
	"warden-bot/internal/media"
	"warden-bot/internal/moderation"
	"warden-bot/internal/ratelimit"
	"warden-bot/internal/send"
	"warden-bot/internal/session"
	"warden-bot/internal/web"
)

// sweepInterval is how often the expiry sweepers run.
const sweepInterval = time.Minute

// App is the main application orchestrator.
type App struct {
	Config   *config.Config
	Log      *logger.Logger
	Store    *store.Store
	Users    *store.UserStore
	Settings *store.SettingsStore
	Client   *Client
	Send     *send.Service
	Media    *media.Client
	Sessions *session.Store
	Limiter  *ratelimit.Limiter
	Policies *moderation.Engine
	Registry *command.Registry
	Handler  *MessageHandler
	Web      *web.Server

	reconnecting atomic.Bool
	ctx          context.Context
	cancel       context.CancelFunc
}

// New creates a new App instance.
func New(cfg *config.Config) (*App, error) {
	log := logger.New("warden", cfg.LogLevel)
	log.Infof("Initializing Warden Bot...")

	if err := cfg.EnsureStorePath(); err != nil {
		return nil, fmt.Errorf("failed to ensure store path: %w", err)
	}

	dbPath := filepath.Join(cfg.StorePath, "warden.db")
	appStore, err := store.New(dbPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	userStore := store.NewUserStore(appStore)
	settingsStore := store.NewSettingsStore(appStore)
	if err := settingsStore.LoadOfficial(); err != nil {
		log.Warnf("Failed to load official group: %v", err)
	}

	waClient, err := NewClient(cfg, appStore, log)
	if err != nil {
		appStore.Close()
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	sendService := send.NewService(waClient.Underlying(), log)
	mediaClient := media.NewClient(media.Config{
		APIKey:     cfg.RapidAPIKey,
		SearchHost: cfg.RapidAPISearchHost,
		MP3Host:    cfg.RapidAPIMP3Host,
	}, log)

	sessions := session.NewStore(session.Config{
		DownloadTTL: cfg.Session.DownloadTTL,
		PairingTTL:  cfg.Session.PairingTTL,
		WarningTTL:  cfg.Session.WarningTTL,
	}, log)

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		UserPerMinute:  cfg.Limits.UserPerMinute,
		UserPerHour:    cfg.Limits.UserPerHour,
		GroupPerMinute: cfg.Limits.GroupPerMinute,
	}, log)

	policies := moderation.NewEngine(sessions, moderation.Config{
		LinkWindow: cfg.Moderation.LinkWindow,
		LinkKickAt: cfg.Moderation.LinkKickAt,
		SpamGap:    cfg.Moderation.SpamGap,
		SpamWarnAt: cfg.Moderation.SpamWarnAt,
		SpamKickAt: cfg.Moderation.SpamKickAt,
	}, log)

	registry := command.NewRegistry(&command.Deps{
		Send:      sendService,
		Groups:    waClient,
		Media:     mediaClient,
		Users:     userStore,
		Officials: settingsStore,
		Sessions:  sessions,
		Policies:  policies,
		Config:    cfg,
		Log:       log.Sub("Command"),
	})

	handler := NewMessageHandler(cfg, waClient, userStore, limiter, policies, registry, sendService, log)

	webServer := web.NewServer(cfg.HTTPPort, cfg.PublicDir(), log)

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		Config:   cfg,
		Log:      log,
		Store:    appStore,
		Users:    userStore,
		Settings: settingsStore,
		Client:   waClient,
		Send:     sendService,
		Media:    mediaClient,
		Sessions: sessions,
		Limiter:  limiter,
		Policies: policies,
		Registry: registry,
		Handler:  handler,
		Web:      webServer,
		ctx:      ctx,
		cancel:   cancel,
	}

	waClient.AddEventHandler(app.handleEvent)

	return app, nil
}

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.Log.Infof("Starting Warden Bot...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		a.Log.Infof("Received %v, initiating shutdown...", sig)
		a.cancel()
	}()

	go a.Sessions.Run(a.ctx, sweepInterval)
	go a.Limiter.Run(a.ctx, sweepInterval)
	go func() {
		if err := a.Web.Run(a.ctx); err != nil {
			a.Log.Errorf("Web server stopped: %v", err)
		}
	}()

	if err := a.connect(); err != nil {
		if a.ctx.Err() != nil {
			a.Log.Infof("Shutdown during startup")
			return a.Shutdown()
		}
		return err
	}

	a.Log.Infof("Warden Bot is running. Press Ctrl+C to stop.")

	<-a.ctx.Done()
	return a.Shutdown()
}

// connect handles the connection flow including QR pairing if needed.
func (a *App) connect() error {
	if a.Client.IsLoggedIn() {
		a.Log.Infof("Using existing session...")
		return a.Client.Connect()
	}

	a.Log.Infof("No existing session, starting QR pairing...")

	qrChan, err := a.Client.GetQRChannel(a.ctx)
	if err != nil {
		return fmt.Errorf("failed to get QR channel: %w", err)
	}

	if err := a.Client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	qrHandler := auth.NewQRHandler(a.Config.PublicDir(), a.Log)
	return qrHandler.HandleQRChannel(a.ctx, qrChan)
}

// handleEvent routes whatsmeow events. Message processing happens on its
// own goroutine so a slow command never blocks the event loop.
func (a *App) handleEvent(evt interface{}) {
	switch e := evt.(type) {
	case *events.Connected:
		a.Log.Infof("Connected to WhatsApp as %s", a.Client.BotJID())

	case *events.Disconnected:
		a.scheduleReconnect("connection closed")

	case *events.StreamReplaced:
		a.scheduleReconnect("stream replaced by another session")

	case *events.LoggedOut:
		a.Log.Errorf("Bot logged out (reason %v). Delete the store and re-pair.", e.Reason)
		a.cancel()

	case *events.Message:
		go a.Handler.OnMessage(a.ctx, e)
	}
}

// scheduleReconnect retries the connection after a randomized delay. Only
// one reconnect attempt is in flight at a time.
func (a *App) scheduleReconnect(reason string) {
	if a.ctx.Err() != nil {
		return
	}
	if !a.reconnecting.CompareAndSwap(false, true) {
		return
	}

	spread := a.Config.ReconnectMax - a.Config.ReconnectMin
	delay := a.Config.ReconnectMin
	if spread > 0 {
		delay += rand.N(spread)
	}
	a.Log.Warnf("Disconnected (%s), reconnecting in %s...", reason, delay.Round(time.Second))

	go func() {
		select {
		case <-a.ctx.Done():
			a.reconnecting.Store(false)
			return
		case <-time.After(delay):
		}

		err := a.Client.Connect()
		a.reconnecting.Store(false)
		if err != nil {
			a.Log.Errorf("Reconnect failed: %v", err)
			a.scheduleReconnect("reconnect failed")
		}
	}()
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.cancel()
	a.Client.Disconnect()
	return a.Store.Close()
}
