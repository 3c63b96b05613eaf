package notify

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescp17/landrop/pkg/clock"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestFeed() (*Feed, *clock.Manual) {
	clk := clock.NewManual(epoch)
	return NewFeed(clk, DefaultTTL), clk
}

func ids(ns []Notification) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}

func TestFeed_TTLBound(t *testing.T) {
	feed, clk := newTestFeed()

	n := feed.Post(KindInfo, "hello", "world")
	require.Equal(t, epoch, n.Timestamp)

	clk.Advance(4999 * time.Millisecond)
	assert.Equal(t, []string{n.ID}, ids(feed.List()), "notification must be visible just before its TTL")

	clk.Advance(2 * time.Millisecond)
	assert.Empty(t, feed.List(), "notification must be gone just after its TTL")
}

func TestFeed_MostRecentFirst(t *testing.T) {
	feed, clk := newTestFeed()

	first := feed.Post(KindInfo, "first", "")
	clk.Advance(time.Second)
	second := feed.Post(KindInfo, "second", "")
	clk.Advance(time.Second)
	third := feed.Post(KindInfo, "third", "")

	assert.Equal(t, []string{third.ID, second.ID, first.ID}, ids(feed.List()))
}

func TestFeed_ExpiryRemovesByIdentityRegardlessOfPosition(t *testing.T) {
	feed, clk := newTestFeed()

	oldest := feed.Post(KindInfo, "oldest", "")
	clk.Advance(2 * time.Second)
	middle := feed.Post(KindInfo, "middle", "")
	clk.Advance(2 * time.Second)
	newest := feed.Post(KindInfo, "newest", "")

	// oldest sits at the tail and expires first.
	clk.Advance(1 * time.Second)
	assert.Equal(t, []string{newest.ID, middle.ID}, ids(feed.List()))

	clk.Advance(2 * time.Second)
	assert.Equal(t, []string{newest.ID}, ids(feed.List()))

	clk.Advance(2 * time.Second)
	assert.Empty(t, feed.List())
	assert.Equal(t, 0, clk.Waiters(), "every expiry timer should have fired")
	_ = oldest
}

func TestFeed_ConcurrentProducersLoseNothing(t *testing.T) {
	feed, _ := newTestFeed()
	const producers = 8
	const perProducer = 25

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				feed.Post(KindText, fmt.Sprintf("p%d", p), fmt.Sprintf("%d", i))
			}
		}(p)
	}
	wg.Wait()

	list := feed.List()
	require.Len(t, list, producers*perProducer)

	seen := make(map[string]bool, len(list))
	for _, n := range list {
		assert.False(t, seen[n.ID], "duplicate id %s", n.ID)
		seen[n.ID] = true
	}

	// Within one producer, later posts must sit closer to the head.
	lastIndex := make(map[string]int)
	for i := len(list) - 1; i >= 0; i-- {
		n := list[i]
		var seq int
		_, err := fmt.Sscanf(n.Message, "%d", &seq)
		require.NoError(t, err)
		if prev, ok := lastIndex[n.Title]; ok {
			assert.Greater(t, seq, prev, "producer %s out of order", n.Title)
		}
		lastIndex[n.Title] = seq
	}
}

func TestFeed_ReverseInsertionOrderSequential(t *testing.T) {
	feed, _ := newTestFeed()
	var pushed []string
	for i := 0; i < 10; i++ {
		n := Notification{ID: fmt.Sprintf("n-%d", i), Kind: KindInfo}
		feed.Push(n)
		pushed = append([]string{n.ID}, pushed...)
	}
	assert.Equal(t, pushed, ids(feed.List()))
}

func TestFeed_StaleTimerAfterClearIsNoop(t *testing.T) {
	feed, clk := newTestFeed()
	feed.Post(KindInfo, "a", "")
	feed.Post(KindInfo, "b", "")

	feed.Clear()
	require.Empty(t, feed.List())

	fresh := feed.Post(KindInfo, "c", "")

	assert.NotPanics(t, func() {
		clk.Advance(DefaultTTL)
	})
	assert.Empty(t, feed.List())
	_ = fresh
}

func TestFeed_CloseStopsTimersAndRejectsPush(t *testing.T) {
	feed, clk := newTestFeed()
	feed.Post(KindInfo, "a", "")
	require.Equal(t, 1, clk.Waiters())

	feed.Close()
	assert.Equal(t, 0, clk.Waiters())
	assert.Empty(t, feed.List(), "entries without a timer are dropped on close")

	feed.Post(KindInfo, "late", "")
	assert.Equal(t, 0, feed.Len(), "push after close is dropped")

	clk.Advance(time.Hour)
	assert.Empty(t, feed.List())
}

func TestFeed_WatchSignalsPushAndExpiry(t *testing.T) {
	feed, clk := newTestFeed()
	changes, cancel := feed.Watch()
	defer cancel()

	feed.Post(KindInfo, "a", "")
	select {
	case <-changes:
	default:
		t.Fatal("expected a signal after push")
	}

	clk.Advance(DefaultTTL)
	select {
	case <-changes:
	default:
		t.Fatal("expected a signal after expiry")
	}
}

func TestFeed_DefaultsAndKinds(t *testing.T) {
	feed := NewFeed(nil, 0)
	assert.Equal(t, DefaultTTL, feed.TTL())

	for _, k := range []Kind{KindSuccess, KindError, KindWarning, KindInfo, KindFile, KindText} {
		assert.True(t, k.Valid(), "kind %q", k)
	}
	assert.False(t, Kind("bogus").Valid())
}
