package landrop

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rescp17/landrop/pkg/backend"
	"github.com/rescp17/landrop/pkg/clock"
	"github.com/rescp17/landrop/pkg/device"
	"github.com/rescp17/landrop/pkg/filepicker"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type sentFile struct {
	path   string
	target device.Device
}

type sentText struct {
	text   string
	target device.Device
}

// fakeBackend records every call. Hooks, when set, run before the call
// returns and may block to hold the call in flight.
type fakeBackend struct {
	mu sync.Mutex

	self    device.Device
	devices []device.Device

	infoErr      error
	startErr     error
	stopErr      error
	devicesErr   error
	sendFileErr  error
	sendTextErr  error
	subscribeErr map[string]error

	startHook   func(ctx context.Context)
	devicesHook func(ctx context.Context)
	sendHook    func(ctx context.Context)

	startCalls   int
	stopCalls    int
	devicesCalls int
	sentFiles    []sentFile
	sentTexts    []sentText
	handlers     map[string]func(backend.Event)
	subscribed   map[string]int
	released     map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		self:         device.Device{ID: "self", Name: "Desktop", IP: "192.168.1.10", Port: 8080},
		subscribeErr: make(map[string]error),
		handlers:     make(map[string]func(backend.Event)),
		subscribed:   make(map[string]int),
		released:     make(map[string]int),
	}
}

func (f *fakeBackend) DeviceInfo(ctx context.Context) (device.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.self, f.infoErr
}

func (f *fakeBackend) StartDiscovery(ctx context.Context) error {
	f.mu.Lock()
	f.startCalls++
	hook, err := f.startHook, f.startErr
	f.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}
	return err
}

func (f *fakeBackend) StopDiscovery(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	return f.stopErr
}

func (f *fakeBackend) Devices(ctx context.Context) ([]device.Device, error) {
	f.mu.Lock()
	f.devicesCalls++
	hook := f.devicesHook
	f.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.devicesErr != nil {
		return nil, f.devicesErr
	}
	out := make([]device.Device, len(f.devices))
	copy(out, f.devices)
	return out, nil
}

func (f *fakeBackend) SendFile(ctx context.Context, filePath string, target device.Device) error {
	f.mu.Lock()
	f.sentFiles = append(f.sentFiles, sentFile{path: filePath, target: target})
	hook, err := f.sendHook, f.sendFileErr
	f.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}
	return err
}

func (f *fakeBackend) SendText(ctx context.Context, text string, target device.Device) error {
	f.mu.Lock()
	f.sentTexts = append(f.sentTexts, sentText{text: text, target: target})
	hook, err := f.sendHook, f.sendTextErr
	f.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}
	return err
}

func (f *fakeBackend) Subscribe(ctx context.Context, channel string, handler func(backend.Event)) (backend.Release, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.subscribeErr[channel]; err != nil {
		return nil, err
	}
	f.handlers[channel] = handler
	f.subscribed[channel]++
	return func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.released[channel]++
		return nil
	}, nil
}

func (f *fakeBackend) set(fn func(f *fakeBackend)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeBackend) get(fn func(f *fakeBackend)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// emit pushes payload on channel through the handler registered by Subscribe.
func (f *fakeBackend) emit(t *testing.T, channel string, payload any) {
	t.Helper()
	f.mu.Lock()
	handler := f.handlers[channel]
	f.mu.Unlock()
	require.NotNil(t, handler, "no subscription for %s", channel)

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	handler(backend.Event{Channel: channel, Data: data})
}

var _ backend.Backend = (*fakeBackend)(nil)

type fakePicker struct {
	mu     sync.Mutex
	path   string
	err    error
	calls  int
	filter filepicker.Filter
}

func (p *fakePicker) PickFile(ctx context.Context, filter filepicker.Filter) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.filter = filter
	return p.path, p.err
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// runTick lets exactly one poll interval pass and waits until the poll loop
// has applied its result and armed the next interval.
func runTick(t *testing.T, clk *clock.Manual, interval time.Duration) {
	t.Helper()
	require.NoError(t, clk.BlockUntil(waitCtx(t), 1), "poll loop never armed its timer")
	clk.Advance(interval)
	require.NoError(t, clk.BlockUntil(waitCtx(t), 1), "poll loop did not re-arm after the tick")
}
