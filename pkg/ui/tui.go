// Package ui is the terminal front end: a Bubble Tea program over the
// orchestration layer's views, operations and change signals.
package ui

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	appevents "github.com/rescp17/landrop/internal/app_events"
	"github.com/rescp17/landrop/internal/style"
	"github.com/rescp17/landrop/pkg/device"
	"github.com/rescp17/landrop/pkg/filepicker"
	"github.com/rescp17/landrop/pkg/landrop"
	"github.com/rescp17/landrop/pkg/notify"
)

// AppController is what the TUI needs from the application. *landrop.App
// satisfies it.
type AppController interface {
	Devices() []device.Device
	Notifications() []notify.Notification
	DiscoveryActive() bool
	LocalDevice() (device.Device, bool)

	WatchDevices() (<-chan struct{}, func())
	WatchNotifications() (<-chan struct{}, func())
	WatchLocalDevice() (<-chan struct{}, func())

	ToggleDiscovery(ctx context.Context) (bool, error)
	SendText(ctx context.Context, target *device.Device, text string) landrop.Outcome
	SendFile(ctx context.Context, target *device.Device, filePath string) landrop.Outcome
}

var _ AppController = (*landrop.App)(nil)

type tab int

const (
	tabDevices tab = iota
	tabText
	tabFiles
	tabCount
)

func (t tab) String() string {
	switch t {
	case tabText:
		return "Text"
	case tabFiles:
		return "Files"
	default:
		return "Devices"
	}
}

// watches owns the change subscriptions so they can be cancelled once the
// program exits, whatever copy of the model is current.
type watches struct {
	once    sync.Once
	cancels []func()
}

func (w *watches) close() {
	w.once.Do(func() {
		for _, cancel := range w.cancels {
			cancel()
		}
	})
}

type model struct {
	ctx  context.Context
	app  AppController
	keys keyMap
	help help.Model

	tab    tab
	width  int
	height int

	devices  []device.Device
	table    table.Model
	targetID string

	textarea textarea.Model
	picker   filepicker.Model
	filter   filepicker.Filter
	startDir string

	notifications []notify.Notification
	local         device.Device
	hasLocal      bool
	discovery     bool
	toggling      bool
	sendingText   bool
	sendingFile   bool
	spinner       spinner.Model

	devicesCh       <-chan struct{}
	notificationsCh <-chan struct{}
	localCh         <-chan struct{}
	watches         *watches
}

var columns = []table.Column{
	{Title: "Name", Width: 20},
	{Title: "Address", Width: 22},
	{Title: "Type", Width: 10},
	{Title: "OS", Width: 10},
	{Title: "Last Seen", Width: 10},
}

func newModel(ctx context.Context, app AppController, filter filepicker.Filter) model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	t.SetStyles(style.NewTableStyles())

	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.CharLimit = 0
	ta.SetWidth(60)
	ta.SetHeight(6)

	startDir, err := os.Getwd()
	if err != nil {
		slog.Warn("Could not get working directory", "error", err)
	}

	w := &watches{}
	devicesCh, cancelDevices := app.WatchDevices()
	notificationsCh, cancelNotifications := app.WatchNotifications()
	localCh, cancelLocal := app.WatchLocalDevice()
	w.cancels = []func(){cancelDevices, cancelNotifications, cancelLocal}

	m := model{
		ctx:             ctx,
		app:             app,
		keys:            defaultKeyMap,
		help:            help.New(),
		table:           t,
		textarea:        ta,
		filter:          filter,
		startDir:        startDir,
		spinner:         style.NewSpinner(),
		devicesCh:       devicesCh,
		notificationsCh: notificationsCh,
		localCh:         localCh,
		watches:         w,
	}
	m.resetPicker()
	m.setDevices(app.Devices())
	m.notifications = app.Notifications()
	m.discovery = app.DiscoveryActive()
	m.local, m.hasLocal = app.LocalDevice()
	return m
}

// Run shows the TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, app AppController, filter filepicker.Filter, opts ...tea.ProgramOption) error {
	m := newModel(ctx, app, filter)
	defer m.watches.close()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.picker.Init(),
		m.listenDevices(),
		m.listenNotifications(),
		m.listenLocal(),
	)
}

// --- change listeners (App -> TUI) ---

func (m model) listenDevices() tea.Cmd {
	ch, app := m.devicesCh, m.app
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return appevents.DevicesChangedMsg{Devices: app.Devices()}
	}
}

func (m model) listenNotifications() tea.Cmd {
	ch, app := m.notificationsCh, m.app
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return appevents.NotificationsChangedMsg{Notifications: app.Notifications()}
	}
}

func (m model) listenLocal() tea.Cmd {
	ch, app := m.localCh, m.app
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		self, _ := app.LocalDevice()
		return appevents.LocalDeviceMsg{Device: self}
	}
}

// --- operations (TUI -> App) ---

// dispatch runs an app event off the UI goroutine and reports the result.
func (m model) dispatch(ev appevents.AppEvent) tea.Cmd {
	ctx, app := m.ctx, m.app
	switch e := ev.(type) {
	case appevents.ToggleDiscoveryEvent:
		return func() tea.Msg {
			active, err := app.ToggleDiscovery(ctx)
			return appevents.DiscoveryToggledMsg{Active: active, Err: err}
		}
	case appevents.SendTextEvent:
		return func() tea.Msg {
			target := e.Target
			return appevents.TransferFinishedMsg{Kind: appevents.TransferText, Outcome: app.SendText(ctx, &target, e.Text)}
		}
	case appevents.SendFileEvent:
		return func() tea.Msg {
			target := e.Target
			return appevents.TransferFinishedMsg{Kind: appevents.TransferFile, Outcome: app.SendFile(ctx, &target, e.Path)}
		}
	}
	slog.Warn("Unhandled app event", "event", ev)
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.textarea.SetWidth(max(20, m.bodyWidth()-4))
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(m.pickerSize())
		return m, cmd

	case appevents.DevicesChangedMsg:
		m.setDevices(msg.Devices)
		return m, m.listenDevices()

	case appevents.NotificationsChangedMsg:
		m.notifications = msg.Notifications
		return m, m.listenNotifications()

	case appevents.LocalDeviceMsg:
		m.local, m.hasLocal = msg.Device, true
		return m, m.listenLocal()

	case appevents.DiscoveryToggledMsg:
		m.toggling = false
		m.discovery = msg.Active
		if msg.Err != nil {
			slog.Debug("Discovery toggle returned an error", "error", msg.Err)
		}
		return m, nil

	case appevents.TransferFinishedMsg:
		switch msg.Kind {
		case appevents.TransferText:
			m.sendingText = false
			if msg.Outcome == landrop.OutcomeSent {
				m.textarea.Reset()
			}
		case appevents.TransferFile:
			m.sendingFile = false
		}
		return m, nil

	case filepicker.FileSelectedMsg:
		target := m.target()
		m.resetPicker()
		if target == nil {
			return m, nil
		}
		m.sendingFile = true
		return m, tea.Batch(m.picker.Init(), m.dispatch(appevents.SendFileEvent{Target: *target, Path: msg.Path}))

	case filepicker.SelectionCancelledMsg:
		m.resetPicker()
		m.tab = tabDevices
		return m, m.picker.Init()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	return m.updateActiveTab(msg)
}

func (m model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ForceQuit):
		m.watches.close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextTab):
		m.switchTab((m.tab + 1) % tabCount)
		return m, nil
	case key.Matches(msg, m.keys.PrevTab):
		m.switchTab((m.tab + tabCount - 1) % tabCount)
		return m, nil
	}

	switch m.tab {
	case tabDevices:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.watches.close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			if m.toggling {
				return m, nil
			}
			m.toggling = true
			return m, m.dispatch(appevents.ToggleDiscoveryEvent{})
		case key.Matches(msg, m.keys.Select):
			if row := m.table.Cursor(); row >= 0 && row < len(m.devices) {
				m.targetID = m.devices[row].ID
				slog.Info("Target selected", "id", m.targetID, "name", m.devices[row].Name)
			}
			return m, nil
		}

	case tabText:
		switch {
		case key.Matches(msg, m.keys.Back):
			m.switchTab(tabDevices)
			return m, nil
		case key.Matches(msg, m.keys.SendText):
			target := m.target()
			if target == nil || m.sendingText {
				return m, nil
			}
			m.sendingText = true
			return m, m.dispatch(appevents.SendTextEvent{Target: *target, Text: m.textarea.Value()})
		}

	case tabFiles:
		if m.target() == nil && key.Matches(msg, m.keys.Back) {
			m.switchTab(tabDevices)
			return m, nil
		}
	}

	return m.updateActiveTab(msg)
}

func (m model) updateActiveTab(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.tab {
	case tabDevices:
		m.table, cmd = m.table.Update(msg)
	case tabText:
		m.textarea, cmd = m.textarea.Update(msg)
	case tabFiles:
		if m.target() == nil || m.sendingFile {
			return m, nil
		}
		m.picker, cmd = m.picker.Update(msg)
	}
	return m, cmd
}

func (m *model) switchTab(t tab) {
	m.tab = t
	if t == tabText {
		m.textarea.Focus()
	} else {
		m.textarea.Blur()
	}
	if t == tabDevices {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

func (m *model) resetPicker() {
	m.picker = filepicker.New(m.filter)
	if m.startDir != "" {
		if err := m.picker.SetPath(m.startDir); err != nil {
			slog.Warn("Could not open start directory", "dir", m.startDir, "error", err)
		}
	}
	if m.height > 0 {
		m.picker, _ = m.picker.Update(m.pickerSize())
	}
}

// pickerSize leaves room for the header, tabs and footer around the picker.
func (m model) pickerSize() tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: m.bodyWidth(), Height: max(0, m.height-chromeHeight)}
}

func (m *model) setDevices(devices []device.Device) {
	m.devices = devices
	rows := make([]table.Row, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, deviceRow(d))
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

// target returns the chosen device if it is still in the latest snapshot.
func (m model) target() *device.Device {
	if m.targetID == "" {
		return nil
	}
	for i := range m.devices {
		if m.devices[i].ID == m.targetID {
			d := m.devices[i]
			return &d
		}
	}
	return nil
}
