package backend

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescp17/landrop/pkg/discovery"
)

type fakeAdapter struct {
	results []discovery.DiscoveryResult
	query   string
}

func (f *fakeAdapter) Announce(ctx context.Context, _ discovery.ServiceInfo) error {
	<-ctx.Done()
	return nil
}

func (f *fakeAdapter) Discover(ctx context.Context, service string) <-chan discovery.DiscoveryResult {
	f.query = service
	ch := make(chan discovery.DiscoveryResult, len(f.results))
	for _, r := range f.results {
		ch <- r
	}
	close(ch)
	return ch
}

func TestLocate(t *testing.T) {
	adapter := &fakeAdapter{results: []discovery.DiscoveryResult{
		{Services: nil},
		{Services: []discovery.ServiceInfo{{Name: "desk", Addr: net.ParseIP("192.168.1.10"), Port: 8080}}},
	}}

	url, err := Locate(context.Background(), adapter, "")
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.1.10:8080", url)
	assert.Equal(t, "_landrop._tcp.local.", adapter.query)
}

func TestLocate_UsesAdvertisedScheme(t *testing.T) {
	adapter := &fakeAdapter{results: []discovery.DiscoveryResult{
		{Services: []discovery.ServiceInfo{{Addr: net.ParseIP("10.0.0.2"), Port: 443, Text: map[string]string{"scheme": "https"}}}},
	}}

	url, err := Locate(context.Background(), adapter, "_custom._tcp")
	require.NoError(t, err)
	assert.Equal(t, "https://10.0.0.2:443", url)
	assert.Equal(t, "_custom._tcp.local.", adapter.query)
}

func TestLocate_PicksLowestNameAmongSeveral(t *testing.T) {
	adapter := &fakeAdapter{results: []discovery.DiscoveryResult{
		{Services: []discovery.ServiceInfo{
			{Name: "landrop-zeta", Addr: net.ParseIP("10.0.0.9"), Port: 8080},
			{Name: "landrop-alpha", Addr: net.ParseIP("10.0.0.1"), Port: 8080},
			{Name: "landrop-mid", Addr: net.ParseIP("10.0.0.5"), Port: 8080},
		}},
	}}

	url, err := Locate(context.Background(), adapter, "")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.1:8080", url)
}

func TestLocate_Failures(t *testing.T) {
	_, err := Locate(context.Background(), &fakeAdapter{}, "")
	assert.ErrorIs(t, err, ErrBackendNotFound)

	boom := errors.New("boom")
	_, err = Locate(context.Background(), &fakeAdapter{results: []discovery.DiscoveryResult{{Error: boom}}}, "")
	assert.ErrorIs(t, err, boom)
}

type silentAdapter struct{}

func (silentAdapter) Announce(ctx context.Context, _ discovery.ServiceInfo) error { return nil }
func (silentAdapter) Discover(ctx context.Context, _ string) <-chan discovery.DiscoveryResult {
	return make(chan discovery.DiscoveryResult)
}

func TestLocate_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := Locate(ctx, silentAdapter{}, "")
	assert.ErrorIs(t, err, ErrBackendNotFound)
}
