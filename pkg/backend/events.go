package backend

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

const maxEventSize = 8 << 20

// Subscribe opens a Server-Sent Events stream for channel and calls handler
// for every event on it. The stream ends when ctx is cancelled or the
// returned Release is called; Release waits for the reader to exit and may
// be called more than once.
func (c *Client) Subscribe(ctx context.Context, channel string, handler func(Event)) (Release, error) {
	if channel == "" {
		return nil, fmt.Errorf("subscribe: %w: empty name", ErrUnknownChannel)
	}
	if handler == nil {
		return nil, errors.New("subscribe: handler cannot be nil")
	}

	streamCtx, cancel := context.WithCancel(ctx)
	query := url.Values{"channel": []string{channel}}
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, c.endpoint("/api/events", query), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe %s: failed to create request: %w", channel, err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe %s: failed to connect: %w", channel, err)
	}
	if err := checkStatus("subscribe "+channel, resp); err != nil {
		resp.Body.Close()
		cancel()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer resp.Body.Close()
		err := readEventStream(resp.Body, channel, handler)
		if streamCtx.Err() != nil {
			// Released or session ended; the read error is the cancellation.
			return
		}
		if err == nil {
			err = ErrStreamClosed
		}
		slog.Error("Event stream ended unexpectedly", "channel", channel, "error", err)
	}()

	var once sync.Once
	release := func() error {
		once.Do(func() {
			cancel()
			<-done
		})
		return nil
	}
	return release, nil
}

// readEventStream parses an SSE body and dispatches events named channel.
// Events are terminated by a blank line; multi-line data is joined with "\n".
func readEventStream(r io.Reader, channel string, handler func(Event)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var (
		currentEvent string
		data         []string
	)
	dispatch := func() {
		defer func() {
			currentEvent = ""
			data = data[:0]
		}()
		if len(data) == 0 {
			return
		}
		name := currentEvent
		if name == "" {
			name = "message"
		}
		if name != channel {
			slog.Debug("Skipping event for another channel", "event", name, "channel", channel)
			return
		}
		handler(Event{Channel: channel, Data: []byte(strings.Join(data, "\n"))})
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			dispatch()
		case strings.HasPrefix(line, ":"):
			// keep-alive comment
		case strings.HasPrefix(line, "event:"):
			currentEvent = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading SSE stream: %w", err)
	}
	dispatch()
	return nil
}
