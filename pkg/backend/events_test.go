package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEventStream(t *testing.T) {
	stream := strings.Join([]string{
		": keep-alive",
		"event: text-received",
		`data: {"content":"one"}`,
		"",
		"event: file-received",
		`data: {"fileName":"ignored"}`,
		"",
		"event: text-received",
		`data: {"content":`,
		`data: "two"}`,
		"",
		"event: text-received",
		`data: {"content":"three"}`,
	}, "\n")

	var got []string
	err := readEventStream(strings.NewReader(stream), ChannelTextReceived, func(e Event) {
		assert.Equal(t, ChannelTextReceived, e.Channel)
		got = append(got, string(e.Data))
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		`{"content":"one"}`,
		"{\"content\":\n\"two\"}",
		`{"content":"three"}`,
	}, got)
}

func TestReadEventStream_EventWithoutDataIsDropped(t *testing.T) {
	stream := "event: text-received\n\n"
	called := false
	require.NoError(t, readEventStream(strings.NewReader(stream), ChannelTextReceived, func(Event) { called = true }))
	assert.False(t, called)
}

func TestSubscribe_DeliversAndReleases(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/events", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ChannelTextReceived, r.URL.Query().Get("channel"))
		assert.NotEmpty(t, r.Header.Get(clientIDHeader))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for i := 0; i < 2; i++ {
			fmt.Fprintf(w, "event: %s\ndata: {\"content\":\"msg-%d\"}\n\n", ChannelTextReceived, i)
			flusher.Flush()
		}
		<-r.Context().Done()
	})
	c := newTestClient(t, mux)

	received := make(chan Event, 4)
	release, err := c.Subscribe(context.Background(), ChannelTextReceived, func(e Event) {
		received <- e
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		select {
		case e := <-received:
			payload, err := DecodeTextReceived(e)
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("msg-%d", i), payload.Content)
		case <-time.After(5 * time.Second):
			t.Fatalf("event %d not delivered", i)
		}
	}

	require.NoError(t, release())
	require.NoError(t, release(), "release is idempotent")
}

func TestSubscribe_RejectedStream(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/events", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown channel", http.StatusNotFound)
	})
	c := newTestClient(t, mux)

	release, err := c.Subscribe(context.Background(), "bogus", func(Event) {})
	require.Error(t, err)
	assert.Nil(t, release)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}

func TestSubscribe_ArgumentValidation(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())

	_, err := c.Subscribe(context.Background(), "", func(Event) {})
	assert.ErrorIs(t, err, ErrUnknownChannel)

	_, err = c.Subscribe(context.Background(), ChannelTextReceived, nil)
	assert.Error(t, err)
}
