package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/rescp17/landrop/pkg/discovery"
)

var ErrBackendNotFound = errors.New("no backend found on the local network")

// Locate browses mDNS for an announced backend and returns its base URL.
// The first snapshot with any instance decides; among several instances the
// one with the lowest name is used. ctx bounds the search.
func Locate(ctx context.Context, adapter discovery.Adapter, serviceType string) (string, error) {
	if serviceType == "" {
		serviceType = discovery.DefaultServiceType
	}
	query := discovery.QueryName(serviceType, discovery.DefaultDomain)
	slog.Info("Looking for backend", "service", query)

	results := adapter.Discover(ctx, query)
	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrBackendNotFound, ctx.Err())
		case res, ok := <-results:
			if !ok {
				return "", ErrBackendNotFound
			}
			if res.Error != nil {
				return "", fmt.Errorf("locate backend: %w", res.Error)
			}
			if len(res.Services) == 0 {
				continue
			}
			// Lowest instance name wins so the choice does not depend on
			// snapshot order.
			svc := slices.MinFunc(res.Services, func(a, b discovery.ServiceInfo) int {
				return strings.Compare(a.Name, b.Name)
			})
			scheme := svc.Text["scheme"]
			if scheme == "" {
				scheme = "http"
			}
			baseURL := fmt.Sprintf("%s://%s", scheme, svc.HostPort())
			slog.Info("Found backend", "name", svc.Name, "url", baseURL)
			return baseURL, nil
		}
	}
}
