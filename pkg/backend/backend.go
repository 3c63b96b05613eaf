// Package backend is the boundary to the local backend process that owns
// peer discovery and the transfer protocol.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rescp17/landrop/pkg/device"
)

// Push channel names emitted by the backend.
const (
	ChannelFileReceived = "file-received"
	ChannelTextReceived = "text-received"
)

var (
	ErrUnknownChannel = errors.New("unknown event channel")
	ErrStreamClosed   = errors.New("event stream closed")
)

// Backend is everything the orchestration layer asks of the backend process.
type Backend interface {
	// DeviceInfo returns this process's own identity.
	DeviceInfo(ctx context.Context) (device.Device, error)
	StartDiscovery(ctx context.Context) error
	StopDiscovery(ctx context.Context) error
	// Devices returns the backend's full current device snapshot.
	Devices(ctx context.Context) ([]device.Device, error)
	SendFile(ctx context.Context, filePath string, target device.Device) error
	SendText(ctx context.Context, text string, target device.Device) error
	// Subscribe delivers every event pushed on channel to handler until the
	// returned Release is called.
	Subscribe(ctx context.Context, channel string, handler func(Event)) (Release, error)
}

// Release ends a subscription.
type Release func() error

// Event is one push message. Data holds the channel-specific JSON payload.
type Event struct {
	Channel string
	Data    json.RawMessage
}

// FileReceived is the payload of ChannelFileReceived.
type FileReceived struct {
	Sender    device.Device `json:"sender"`
	FileName  string        `json:"fileName"`
	FilePath  string        `json:"filePath,omitempty"`
	FileSize  int64         `json:"fileSize,omitempty"`
	MimeType  string        `json:"mimeType,omitempty"`
	Timestamp int64         `json:"timestamp,omitempty"`
}

// TextReceived is the payload of ChannelTextReceived.
type TextReceived struct {
	Sender    device.Device `json:"sender"`
	Content   string        `json:"content"`
	Timestamp int64         `json:"timestamp,omitempty"`
}

// DecodeFileReceived parses a file-received event.
func DecodeFileReceived(e Event) (FileReceived, error) {
	var payload FileReceived
	if e.Channel != ChannelFileReceived {
		return payload, fmt.Errorf("%w: expected %s, got %s", ErrUnknownChannel, ChannelFileReceived, e.Channel)
	}
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return payload, fmt.Errorf("failed to decode %s payload: %w", e.Channel, err)
	}
	return payload, nil
}

// DecodeTextReceived parses a text-received event.
func DecodeTextReceived(e Event) (TextReceived, error) {
	var payload TextReceived
	if e.Channel != ChannelTextReceived {
		return payload, fmt.Errorf("%w: expected %s, got %s", ErrUnknownChannel, ChannelTextReceived, e.Channel)
	}
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return payload, fmt.Errorf("failed to decode %s payload: %w", e.Channel, err)
	}
	return payload, nil
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Op     string
	Status string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: backend responded with %s", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: backend responded with %s: %s", e.Op, e.Status, e.Body)
}
