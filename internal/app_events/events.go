package appevents

import (
	"github.com/rescp17/landrop/pkg/device"
	"github.com/rescp17/landrop/pkg/landrop"
	"github.com/rescp17/landrop/pkg/notify"
)

// AppEvent is a marker interface for events sent from the TUI to the App's logic controller.
// It uses an unexported method to ensure that only types from this package (by embedding Event)
// can satisfy the interface, providing compile-time safety.
type AppEvent interface {
	isAppEvent()
}

// Event is a struct that can be embedded in other event types to satisfy the AppEvent interface.
type Event struct{}

func (Event) isAppEvent() {}

// AppUIMessage is a marker interface for messages sent from the App's logic controller to the TUI.
type AppUIMessage interface {
	isUIMessage()
}

// UIMessage is a base struct that can be embedded in other types to implement the AppUIMessage interface.
type UIMessage struct{}

func (UIMessage) isUIMessage() {}

// --- App Events (from TUI to App) ---

type ToggleDiscoveryEvent struct {
	Event
}

type SendTextEvent struct {
	Event
	Target device.Device
	Text   string
}

// SendFileEvent carries a path already chosen in the embedded picker.
type SendFileEvent struct {
	Event
	Target device.Device
	Path   string
}

var (
	_ AppEvent = ToggleDiscoveryEvent{}
	_ AppEvent = SendTextEvent{}
	_ AppEvent = SendFileEvent{}
)

// --- UI Messages (from App to TUI) ---

type DevicesChangedMsg struct {
	UIMessage
	Devices []device.Device
}

type NotificationsChangedMsg struct {
	UIMessage
	Notifications []notify.Notification
}

type LocalDeviceMsg struct {
	UIMessage
	Device device.Device
}

type DiscoveryToggledMsg struct {
	UIMessage
	Active bool
	Err    error
}

// TransferKind tells which send operation a TransferFinishedMsg reports on.
type TransferKind int

const (
	TransferText TransferKind = iota
	TransferFile
)

type TransferFinishedMsg struct {
	UIMessage
	Kind    TransferKind
	Outcome landrop.Outcome
}
