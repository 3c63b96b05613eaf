package landrop

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rescp17/landrop/pkg/backend"
	"github.com/rescp17/landrop/pkg/clock"
	"github.com/rescp17/landrop/pkg/concurrency"
	"github.com/rescp17/landrop/pkg/device"
)

// DiscoveryController switches backend discovery on and off and, while it
// is on, keeps the device registry in sync with the backend by polling.
type DiscoveryController struct {
	backend  backend.Backend
	registry *device.Registry
	clock    clock.Clock
	interval time.Duration
	guard    *concurrency.ConcurrencyGuard

	// opMu serializes Start and Stop across their backend round trip.
	opMu sync.Mutex

	// mu guards the fields below. A poll result is applied only while
	// holding mu and only if its generation is still current.
	mu         sync.Mutex
	active     bool
	closed     bool
	generation uint64
	cancelPoll context.CancelFunc
}

func NewDiscoveryController(b backend.Backend, registry *device.Registry, clk clock.Clock, interval time.Duration) *DiscoveryController {
	if clk == nil {
		clk = clock.New()
	}
	return &DiscoveryController{
		backend:  b,
		registry: registry,
		clock:    clk,
		interval: interval,
		guard:    concurrency.NewConcurrencyGuard(),
	}
}

// Active reports whether discovery is on.
func (c *DiscoveryController) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Start asks the backend to begin discovery and starts polling for devices.
// It returns ErrClosed once Shutdown has run.
func (c *DiscoveryController) Start(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	active, closed := c.active, c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if active {
		return ErrAlreadyActive
	}
	if err := c.backend.StartDiscovery(ctx); err != nil {
		return fmt.Errorf("failed to start discovery: %w", err)
	}

	c.mu.Lock()
	c.active = true
	c.generation++
	gen := c.generation
	pollCtx, cancel := context.WithCancel(context.Background())
	c.cancelPoll = cancel
	c.mu.Unlock()

	go c.poll(pollCtx, gen)
	slog.Info("Discovery started", "interval", c.interval)
	return nil
}

// Stop asks the backend to end discovery. Only once the backend agrees is
// polling cancelled and the registry cleared; on failure nothing changes.
func (c *DiscoveryController) Stop(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if !c.Active() {
		return ErrNotActive
	}
	if err := c.backend.StopDiscovery(ctx); err != nil {
		return fmt.Errorf("failed to stop discovery: %w", err)
	}
	c.halt()
	slog.Info("Discovery stopped")
	return nil
}

// Toggle flips discovery and returns the resulting state. A toggle issued
// while another is still running is rejected with concurrency.ErrBusy.
func (c *DiscoveryController) Toggle(ctx context.Context) (bool, error) {
	err := c.guard.Execute(func() error {
		if c.Active() {
			return c.Stop(ctx)
		}
		return c.Start(ctx)
	})
	return c.Active(), err
}

// Shutdown stops polling unconditionally and refuses any later Start. If
// discovery was on, the backend is asked to stop as well, but its failure
// only gets logged.
func (c *DiscoveryController) Shutdown(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	if !c.Active() {
		return
	}
	if err := c.backend.StopDiscovery(ctx); err != nil {
		slog.Warn("Failed to stop discovery during shutdown", "error", err)
	}
	c.halt()
}

// halt invalidates the current poll loop and empties the registry.
func (c *DiscoveryController) halt() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.active = false
	c.generation++
	if c.cancelPoll != nil {
		c.cancelPoll()
		c.cancelPoll = nil
	}
	c.registry.Clear()
}

// poll runs one tick per interval until ctx is cancelled. The next interval
// is only armed after the previous tick returned, so ticks never overlap.
func (c *DiscoveryController) poll(ctx context.Context, gen uint64) {
	for {
		if !c.wait(ctx) {
			return
		}
		c.tick(ctx, gen)
	}
}

func (c *DiscoveryController) wait(ctx context.Context) bool {
	fired := make(chan struct{})
	timer := c.clock.AfterFunc(c.interval, func() { close(fired) })
	select {
	case <-ctx.Done():
		timer.Stop()
		return false
	case <-fired:
		return ctx.Err() == nil
	}
}

func (c *DiscoveryController) tick(ctx context.Context, gen uint64) {
	devices, err := c.backend.Devices(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("Failed to get devices", "error", err)
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || gen != c.generation {
		slog.Debug("Discarding device snapshot from a stopped poll", "generation", gen)
		return
	}
	c.registry.Replace(devices)
}
