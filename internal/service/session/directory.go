package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/limjiahao/docs-assistant/internal/model/kb"
)

// ServicesFetcher is the slice of the backend client the directory uses.
type ServicesFetcher interface {
	FetchServices(ctx context.Context) ([]kb.Service, error)
}

// ServiceDirectory is an explicit time-boxed cache over the backend's
// service list. It records when the list was fetched and refreshes it once
// the freshness window has passed; while the backend is unavailable it
// serves the last good list, or the configured fallback names when nothing
// was ever fetched.
type ServiceDirectory struct {
	mu       sync.Mutex
	client   ServicesFetcher
	ttl      time.Duration
	fallback map[string]string
	log      *zap.Logger

	cached    []kb.Service
	fetchedAt time.Time
	now       func() time.Time
}

// NewServiceDirectory builds a directory with the given freshness window
// and fallback display-name map.
func NewServiceDirectory(client ServicesFetcher, ttl time.Duration, fallback map[string]string, log *zap.Logger) *ServiceDirectory {
	if log == nil {
		log = zap.NewNop()
	}
	return &ServiceDirectory{
		client:   client,
		ttl:      ttl,
		fallback: fallback,
		log:      log,
		now:      time.Now,
	}
}

// Services returns the current service list, refreshing it when stale.
func (d *ServiceDirectory) Services(ctx context.Context) []kb.Service {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cached != nil && d.now().Sub(d.fetchedAt) < d.ttl {
		return append([]kb.Service(nil), d.cached...)
	}

	services, err := d.client.FetchServices(ctx)
	if err != nil {
		d.log.Warn("service list refresh failed", zap.Error(err))
		if d.cached != nil {
			return append([]kb.Service(nil), d.cached...)
		}
		return d.fallbackServices()
	}

	d.cached = services
	d.fetchedAt = d.now()
	return append([]kb.Service(nil), services...)
}

// DisplayName resolves a service key to its display name, falling back to
// the configured map and finally to the key itself.
func (d *ServiceDirectory) DisplayName(ctx context.Context, key string) string {
	for _, svc := range d.Services(ctx) {
		if svc.Key == key {
			return svc.DisplayName
		}
	}
	if name, ok := d.fallback[key]; ok {
		return name
	}
	return key
}

// fallbackServices synthesizes a deterministic list from the fallback map.
func (d *ServiceDirectory) fallbackServices() []kb.Service {
	keys := make([]string, 0, len(d.fallback))
	for key := range d.fallback {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	services := make([]kb.Service, 0, len(keys))
	for _, key := range keys {
		services = append(services, kb.Service{Key: key, DisplayName: d.fallback[key]})
	}
	return services
}
