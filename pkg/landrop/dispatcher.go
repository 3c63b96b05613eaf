package landrop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rescp17/landrop/pkg/backend"
	"github.com/rescp17/landrop/pkg/concurrency"
	"github.com/rescp17/landrop/pkg/device"
	"github.com/rescp17/landrop/pkg/filepicker"
	"github.com/rescp17/landrop/pkg/notify"
)

// Outcome tells the caller what became of a send request.
type Outcome int

const (
	// OutcomeSkipped means nothing was sent: bad input, a send already in
	// flight, or the user cancelled file selection.
	OutcomeSkipped Outcome = iota
	OutcomeSent
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// FilePicker asks the user for a file to send.
type FilePicker interface {
	// PickFile returns the chosen path, or filepicker.ErrSelectionCancelled.
	PickFile(ctx context.Context, filter filepicker.Filter) (string, error)
}

// Dispatcher forwards user send requests to the backend and reports the
// result in the notification feed. It never retries.
type Dispatcher struct {
	backend backend.Backend
	feed    *notify.Feed
	picker  FilePicker
	filter  filepicker.Filter

	fileGuard *concurrency.ConcurrencyGuard
	textGuard *concurrency.ConcurrencyGuard
}

func NewDispatcher(b backend.Backend, feed *notify.Feed, picker FilePicker, filter filepicker.Filter) *Dispatcher {
	return &Dispatcher{
		backend:   b,
		feed:      feed,
		picker:    picker,
		filter:    filter,
		fileGuard: concurrency.NewConcurrencyGuard(),
		textGuard: concurrency.NewConcurrencyGuard(),
	}
}

// SendFile sends filePath to target. With an empty path the file picker is
// asked first; if the user cancels, nothing happens.
func (d *Dispatcher) SendFile(ctx context.Context, target *device.Device, filePath string) Outcome {
	if target == nil {
		slog.Debug("Ignoring file send without a target device")
		return OutcomeSkipped
	}

	outcome := OutcomeSkipped
	err := d.fileGuard.Execute(func() error {
		outcome = d.sendFile(ctx, *target, filePath)
		return nil
	})
	if errors.Is(err, concurrency.ErrBusy) {
		slog.Debug("Ignoring file send while another is in progress", "target", target.Name)
	}
	return outcome
}

func (d *Dispatcher) sendFile(ctx context.Context, target device.Device, filePath string) Outcome {
	if filePath == "" {
		path, err := d.pick(ctx)
		if errors.Is(err, filepicker.ErrSelectionCancelled) {
			slog.Info("File selection cancelled")
			return OutcomeSkipped
		}
		if err != nil {
			slog.Error("Failed to select file", "error", err)
			d.feed.Post(notify.KindError, "file send failed", "could not open file selection")
			return OutcomeFailed
		}
		filePath = path
	}

	slog.Info("Sending file", "path", filePath, "target", target.Name, "address", target.Address())
	if err := d.backend.SendFile(ctx, filePath, target); err != nil {
		slog.Warn("Failed to send file", "path", filePath, "target", target.Name, "error", err)
		d.feed.Post(notify.KindError, "file send failed", "failed to send file")
		return OutcomeFailed
	}
	d.feed.Post(notify.KindSuccess, "file sent", fmt.Sprintf("file sent to %s", target.Name))
	return OutcomeSent
}

func (d *Dispatcher) pick(ctx context.Context) (string, error) {
	if d.picker == nil {
		return "", errors.New("no file picker configured")
	}
	path, err := d.picker.PickFile(ctx, d.filter)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", filepicker.ErrSelectionCancelled
	}
	return path, nil
}

// SendText sends text to target. Empty or whitespace-only text, a missing
// target, or a text send already in flight are ignored without a backend
// call or a notification.
func (d *Dispatcher) SendText(ctx context.Context, target *device.Device, text string) Outcome {
	if target == nil || strings.TrimSpace(text) == "" {
		return OutcomeSkipped
	}

	outcome := OutcomeSkipped
	err := d.textGuard.Execute(func() error {
		slog.Info("Sending text", "target", target.Name, "length", len(text))
		if err := d.backend.SendText(ctx, text, *target); err != nil {
			slog.Warn("Failed to send text", "target", target.Name, "text", text, "error", err)
			d.feed.Post(notify.KindError, "text send failed", "failed to send text")
			outcome = OutcomeFailed
			return err
		}
		d.feed.Post(notify.KindSuccess, "text sent", fmt.Sprintf("text sent to %s", target.Name))
		outcome = OutcomeSent
		return nil
	})
	if errors.Is(err, concurrency.ErrBusy) {
		slog.Debug("Ignoring text send while another is in progress", "target", target.Name)
	}
	return outcome
}
