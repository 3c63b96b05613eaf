package device

import (
	"sync"

	"github.com/rescp17/landrop/pkg/concurrency"
)

// Registry holds the last device snapshot returned by the backend.
// Writers always replace the whole set; readers get copies.
type Registry struct {
	mu      sync.RWMutex
	devices []Device
	changed *concurrency.Signal
}

func NewRegistry() *Registry {
	return &Registry{changed: concurrency.NewSignal()}
}

// Replace swaps the registry content for a copy of devices.
func (r *Registry) Replace(devices []Device) {
	snapshot := make([]Device, len(devices))
	copy(snapshot, devices)

	r.mu.Lock()
	r.devices = snapshot
	r.mu.Unlock()

	r.changed.Notify()
}

// Clear empties the registry.
func (r *Registry) Clear() {
	r.Replace(nil)
}

// List returns a copy of the current snapshot in backend order.
func (r *Registry) List() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Device, len(r.devices))
	copy(out, r.devices)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Lookup finds a device by id in the current snapshot.
func (r *Registry) Lookup(id string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.devices {
		if d.ID == id {
			return d, true
		}
	}
	return Device{}, false
}

// Watch subscribes to change signals. The returned func unsubscribes.
func (r *Registry) Watch() (<-chan struct{}, func()) {
	return r.changed.Subscribe()
}
