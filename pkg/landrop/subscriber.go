package landrop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rescp17/landrop/internal/util"
	"github.com/rescp17/landrop/pkg/backend"
	"github.com/rescp17/landrop/pkg/notify"
)

// EventSubscriber turns backend push events into notifications.
type EventSubscriber struct {
	backend       backend.Backend
	feed          *notify.Feed
	previewLength int

	mu       sync.Mutex
	releases []backend.Release
	started  bool
	closed   bool
	once     sync.Once
}

func NewEventSubscriber(b backend.Backend, feed *notify.Feed, previewLength int) *EventSubscriber {
	return &EventSubscriber{
		backend:       b,
		feed:          feed,
		previewLength: previewLength,
	}
}

// Start subscribes to received-file and received-text events. A channel
// that fails to subscribe is reported, the other one keeps working. Only
// the first call subscribes; later ones return ErrSubscribed.
func (s *EventSubscriber) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.started {
		s.mu.Unlock()
		return ErrSubscribed
	}
	s.started = true
	s.mu.Unlock()

	handlers := []struct {
		channel string
		handle  func(backend.Event)
	}{
		{backend.ChannelFileReceived, s.onFileReceived},
		{backend.ChannelTextReceived, s.onTextReceived},
	}

	var errs []error
	for _, h := range handlers {
		release, err := s.backend.Subscribe(ctx, h.channel, h.handle)
		if err != nil {
			slog.Error("Failed to subscribe to backend events", "channel", h.channel, "error", err)
			errs = append(errs, fmt.Errorf("subscribe %s: %w", h.channel, err))
			continue
		}
		if !s.keep(release) {
			// Closed while subscribing.
			if err := release(); err != nil {
				slog.Error("Failed to release subscription", "channel", h.channel, "error", err)
			}
			return ErrClosed
		}
		slog.Info("Subscribed to backend events", "channel", h.channel)
	}

	if len(errs) > 0 {
		s.feed.Post(notify.KindWarning, "live updates unavailable", "incoming files or messages may not be shown")
	}
	return errors.Join(errs...)
}

func (s *EventSubscriber) keep(release backend.Release) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.releases = append(s.releases, release)
	return true
}

// Close releases every subscription exactly once. Later calls do nothing.
func (s *EventSubscriber) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		releases := s.releases
		s.releases = nil
		s.mu.Unlock()

		var errs []error
		for _, release := range releases {
			if rerr := release(); rerr != nil {
				slog.Error("Failed to release subscription", "error", rerr)
				errs = append(errs, rerr)
			}
		}
		err = errors.Join(errs...)
	})
	return err
}

func (s *EventSubscriber) onFileReceived(e backend.Event) {
	payload, err := backend.DecodeFileReceived(e)
	if err != nil {
		slog.Warn("Dropping malformed event", "channel", e.Channel, "error", err)
		return
	}
	slog.Info("File received", "file", payload.FileName, "sender", payload.Sender.Name, "size", payload.FileSize)
	s.feed.Post(notify.KindFile, "file received",
		fmt.Sprintf("received %s from %s", payload.FileName, payload.Sender.Name))
}

func (s *EventSubscriber) onTextReceived(e backend.Event) {
	payload, err := backend.DecodeTextReceived(e)
	if err != nil {
		slog.Warn("Dropping malformed event", "channel", e.Channel, "error", err)
		return
	}
	slog.Info("Text received", "sender", payload.Sender.Name, "length", len(payload.Content))
	s.feed.Post(notify.KindText, "text received",
		fmt.Sprintf("received from %s: %s", payload.Sender.Name, util.Preview(payload.Content, s.previewLength)))
}
