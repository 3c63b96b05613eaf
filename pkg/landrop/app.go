// Package landrop is the client-side orchestration layer: it owns the device
// registry and the notification feed, drives discovery, subscribes to
// backend push events and dispatches user transfers.
package landrop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rescp17/landrop/pkg/backend"
	"github.com/rescp17/landrop/pkg/clock"
	"github.com/rescp17/landrop/pkg/concurrency"
	"github.com/rescp17/landrop/pkg/device"
	"github.com/rescp17/landrop/pkg/notify"
)

// App is the main application logic controller. The presentation layer
// reads its views, watches for changes and calls its operations.
type App struct {
	cfg     *Config
	clock   clock.Clock
	backend backend.Backend

	registry   *device.Registry
	feed       *notify.Feed
	discovery  *DiscoveryController
	subscriber *EventSubscriber
	dispatcher *Dispatcher

	mu       sync.RWMutex
	local    device.Device
	hasLocal bool
	closed   bool

	localChanged *concurrency.Signal
	closeOnce    sync.Once
	closeErr     error
}

type Option func(*App)

// WithConfig replaces DefaultConfig.
func WithConfig(cfg *Config) Option {
	return func(a *App) {
		if cfg != nil {
			a.cfg = cfg
		}
	}
}

// WithClock sets the time source for polling and notification expiry.
func WithClock(clk clock.Clock) Option {
	return func(a *App) {
		if clk != nil {
			a.clock = clk
		}
	}
}

// NewApp creates a new application instance. picker may be nil when the
// caller always supplies file paths.
func NewApp(b backend.Backend, picker FilePicker, opts ...Option) (*App, error) {
	if b == nil {
		return nil, errors.New("backend cannot be nil")
	}
	a := &App{
		cfg:          DefaultConfig(),
		clock:        clock.New(),
		backend:      b,
		localChanged: concurrency.NewSignal(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a.registry = device.NewRegistry()
	a.feed = notify.NewFeed(a.clock, a.cfg.NotificationTTL)
	a.discovery = NewDiscoveryController(b, a.registry, a.clock, a.cfg.PollInterval)
	a.subscriber = NewEventSubscriber(b, a.feed, a.cfg.PreviewLength)
	a.dispatcher = NewDispatcher(b, a.feed, picker, a.cfg.DefaultFilter)
	return a, nil
}

// Config returns the configuration in use.
func (a *App) Config() Config {
	return *a.cfg
}

// Start subscribes to backend events and fetches this device's identity,
// both at once. Either failing is reported in the returned error, but the
// app stays usable.
func (a *App) Start(ctx context.Context) error {
	var (
		g                     errgroup.Group
		subscribeErr, infoErr error
	)

	g.Go(func() error {
		subscribeErr = a.subscriber.Start(ctx)
		return nil
	})

	g.Go(func() error {
		self, err := a.backend.DeviceInfo(ctx)
		if err != nil {
			slog.Error("Failed to get device info", "error", err)
			infoErr = fmt.Errorf("get device info: %w", err)
			return nil
		}
		a.mu.Lock()
		a.local = self
		a.hasLocal = true
		a.mu.Unlock()
		a.localChanged.Notify()
		slog.Info("Local device", "id", self.ID, "name", self.Name, "address", self.Address())
		return nil
	})

	_ = g.Wait()
	return errors.Join(subscribeErr, infoErr)
}

// Run starts the app, blocks until ctx is done, then closes it.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		slog.Warn("App started with errors", "error", err)
	}
	<-ctx.Done()
	return a.Close()
}

// Close releases subscriptions, stops discovery and expiry timers. It is
// safe to call more than once.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()

		releaseErr := a.subscriber.Close()

		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.TeardownTimeout)
		defer cancel()
		a.discovery.Shutdown(ctx)

		a.feed.Close()
		a.closeErr = releaseErr
		slog.Info("App closed")
	})
	return a.closeErr
}

func (a *App) isClosed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.closed
}

// ToggleDiscovery turns discovery on or off and returns the new state. After
// Close it returns ErrClosed.
func (a *App) ToggleDiscovery(ctx context.Context) (bool, error) {
	if a.isClosed() {
		return false, ErrClosed
	}
	active, err := a.discovery.Toggle(ctx)
	if err != nil && !errors.Is(err, concurrency.ErrBusy) && !errors.Is(err, ErrClosed) {
		slog.Error("Failed to toggle discovery", "error", err)
		a.feed.Post(notify.KindWarning, "discovery unavailable", "could not change discovery state")
	}
	return active, err
}

// SendFile sends filePath to target, asking the file picker when filePath
// is empty.
func (a *App) SendFile(ctx context.Context, target *device.Device, filePath string) Outcome {
	if a.isClosed() {
		return OutcomeSkipped
	}
	return a.dispatcher.SendFile(ctx, target, filePath)
}

// SendText sends text to target. Nothing is sent after Close.
func (a *App) SendText(ctx context.Context, target *device.Device, text string) Outcome {
	if a.isClosed() {
		return OutcomeSkipped
	}
	return a.dispatcher.SendText(ctx, target, text)
}

// Devices returns the latest device snapshot.
func (a *App) Devices() []device.Device {
	return a.registry.List()
}

// Device looks a device up by id in the latest snapshot.
func (a *App) Device(id string) (device.Device, bool) {
	return a.registry.Lookup(id)
}

// Notifications returns the visible notifications, most recent first.
func (a *App) Notifications() []notify.Notification {
	return a.feed.List()
}

func (a *App) DiscoveryActive() bool {
	return a.discovery.Active()
}

// LocalDevice returns this device's identity once Start has fetched it.
func (a *App) LocalDevice() (device.Device, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.local, a.hasLocal
}

// WatchDevices signals after every registry change. Call the returned func
// to stop watching.
func (a *App) WatchDevices() (<-chan struct{}, func()) {
	return a.registry.Watch()
}

// WatchNotifications signals after every push or expiry.
func (a *App) WatchNotifications() (<-chan struct{}, func()) {
	return a.feed.Watch()
}

// WatchLocalDevice signals once the local identity is known.
func (a *App) WatchLocalDevice() (<-chan struct{}, func()) {
	return a.localChanged.Subscribe()
}
