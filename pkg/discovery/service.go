package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

const (
	// DefaultServiceType is the DNS-SD type a landrop backend advertises.
	DefaultServiceType = "_landrop._tcp"
	DefaultDomain      = "local"
)

type ServiceInfo struct {
	Name   string // instance name, usually hostname plus a short id
	Type   string // service type, e.g. "_landrop._tcp"
	Domain string // domain, e.g. "local"
	Addr   net.IP
	Port   int
	Text   map[string]string
}

// HostPort formats the advertised address for dialing.
func (s ServiceInfo) HostPort() string {
	host := ""
	if s.Addr != nil {
		host = s.Addr.String()
	}
	return net.JoinHostPort(host, strconv.Itoa(s.Port))
}

// DiscoveryResult carries either a snapshot of every service seen so far or
// an error that ended the browse.
type DiscoveryResult struct {
	Services []ServiceInfo
	Error    error
}

type Adapter interface {
	Announce(ctx context.Context, service ServiceInfo) error
	Discover(ctx context.Context, service string) <-chan DiscoveryResult
}

// QueryName builds the fully qualified browse name for a service type.
func QueryName(serviceType, domain string) string {
	return fmt.Sprintf("%s.%s.", serviceType, domain)
}
