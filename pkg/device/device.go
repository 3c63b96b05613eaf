package device

import (
	"net"
	"strconv"
	"time"
)

// Device is a peer reported by the backend. Every field is backend-supplied
// and passed through unvalidated.
type Device struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IP         string `json:"ip"`
	Port       int    `json:"port"`
	DeviceType string `json:"device_type"`
	OS         string `json:"os"`
	// LastSeen is seconds since the Unix epoch.
	LastSeen int64 `json:"last_seen"`
}

// Address joins IP and Port for display.
func (d Device) Address() string {
	return net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

func (d Device) LastSeenTime() time.Time {
	return time.Unix(d.LastSeen, 0)
}
