package bridge

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/tydom2mqtt/tydom2mqtt/internal/auth"
	"github.com/tydom2mqtt/tydom2mqtt/internal/config"
	"github.com/tydom2mqtt/tydom2mqtt/internal/hub"
	"github.com/tydom2mqtt/tydom2mqtt/internal/logging"
	"github.com/tydom2mqtt/tydom2mqtt/internal/mqtt"
	"github.com/tydom2mqtt/tydom2mqtt/internal/protocol"
	"github.com/tydom2mqtt/tydom2mqtt/internal/registry"
	"github.com/tydom2mqtt/tydom2mqtt/internal/router"
)

// refreshInterval is how often the hub is asked to push fresh data. The
// hub does not notify on every change, so the bridge polls.
const refreshInterval = 42 * time.Second

// initialDataDelay separates the config snapshot request from the first
// devices-data request, giving the hub time to answer the snapshot first.
const initialDataDelay = 5 * time.Second

// Bridge runs session generations against one hub and one broker.
type Bridge struct {
	settings *config.Settings
	broker   *mqtt.Client
}

// New builds a bridge. The broker connection is shared across session
// generations; hub sessions are created per generation.
func New(settings *config.Settings, broker *mqtt.Client) *Bridge {
	return &Bridge{settings: settings, broker: broker}
}

// Run executes one session generation: connect, subscribe commands,
// request initial data, then read until the transport faults or ctx is
// cancelled. The returned error describes why the generation ended; a nil
// error means ctx was cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	mode := protocol.ModeLocal
	if b.settings.Remote() {
		mode = protocol.ModeRemote
	}

	creds := auth.Credentials{
		MAC:      b.settings.Tydom.MAC,
		Password: b.settings.Tydom.Password,
	}
	handshaker := hub.NewHandshaker(creds, b.settings.Tydom.Host, mode)

	session, err := handshaker.Connect(ctx)
	if err != nil {
		return err
	}
	defer session.Close()

	commands := hub.NewCommands(session, b.settings.Tydom.AlarmPIN)

	// Fresh registry per generation: state never survives a reconnect.
	reg := registry.New()
	route := router.New(reg, b.broker,
		b.settings.Tydom.AlarmHomeZone, b.settings.Tydom.AlarmNightZone)
	if err := route.SubscribeCommands(b.broker, commands); err != nil {
		return err
	}

	if err := b.requestInitialData(ctx, commands); err != nil {
		return err
	}

	go b.refreshLoop(ctx, commands, session)

	// Close the session when ctx ends so the blocked read returns.
	stop := context.AfterFunc(ctx, func() { _ = session.Close() })
	defer stop()

	for {
		frame, err := session.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		payload, err := protocol.Decode(mode, frame)
		if err != nil {
			// Parse failures are contained to one message.
			logging.Error("Dropping undecodable frame", zap.Error(err))
			logging.LogFrame("Raw frame", frame)
			continue
		}
		route.Route(payload)
	}
}

// requestInitialData issues the startup sequence: hub info, a full
// refresh, the endpoint catalog, then the first data snapshot.
func (b *Bridge) requestInitialData(ctx context.Context, commands *hub.Commands) error {
	if err := commands.GetInfo(); err != nil {
		return err
	}
	if err := commands.RefreshAll(); err != nil {
		return err
	}
	if err := commands.GetConfigFile(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(initialDataDelay):
	}
	return commands.GetDevicesData()
}

// refreshLoop keeps device state current between pushes.
func (b *Bridge) refreshLoop(ctx context.Context, commands *hub.Commands, session io.Closer) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !refreshOnce(commands, session) {
				return
			}
		}
	}
}

// refreshOnce asks the hub for a full refresh. A failed write leaves the
// connection unusable for commands even when reads still work, so the
// session is closed to fault the read loop and trigger a reconnect.
func refreshOnce(commands *hub.Commands, session io.Closer) bool {
	if err := commands.RefreshAll(); err != nil {
		logging.Warn("Periodic refresh failed, closing session", zap.Error(err))
		_ = session.Close()
		return false
	}
	return true
}
