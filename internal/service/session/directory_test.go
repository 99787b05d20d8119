package session

import (
	"context"
	"testing"
	"time"

	"github.com/limjiahao/docs-assistant/internal/model/kb"
	"github.com/limjiahao/docs-assistant/internal/service/backend"
)

type fakeFetcher struct {
	calls    int
	services []kb.Service
	err      error
}

func (f *fakeFetcher) FetchServices(_ context.Context) ([]kb.Service, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.services, nil
}

func TestDirectoryCachesWithinFreshnessWindow(t *testing.T) {
	fetcher := &fakeFetcher{services: []kb.Service{{Key: "ai_core", DisplayName: "SAP AI Core"}}}
	dir := NewServiceDirectory(fetcher, 5*time.Minute, nil, nil)

	clock := time.Now()
	dir.now = func() time.Time { return clock }

	dir.Services(context.Background())
	dir.Services(context.Background())
	if fetcher.calls != 1 {
		t.Fatalf("expected 1 fetch within the window, got %d", fetcher.calls)
	}

	clock = clock.Add(6 * time.Minute)
	dir.Services(context.Background())
	if fetcher.calls != 2 {
		t.Fatalf("expected refresh after the window passed, got %d fetches", fetcher.calls)
	}
}

func TestDirectoryFallsBackWhenBackendDown(t *testing.T) {
	fetcher := &fakeFetcher{err: &backend.Error{Kind: backend.KindUnreachable, Message: "down"}}
	dir := NewServiceDirectory(fetcher, time.Minute, map[string]string{
		"joule":   "SAP Joule",
		"ai_core": "SAP AI Core",
	}, nil)

	services := dir.Services(context.Background())

	if len(services) != 2 {
		t.Fatalf("expected fallback list of 2, got %d", len(services))
	}
	// Fallback ordering is deterministic (sorted by key).
	if services[0].Key != "ai_core" || services[1].Key != "joule" {
		t.Fatalf("unexpected fallback order: %+v", services)
	}
}

func TestDirectoryServesStaleListOnFailure(t *testing.T) {
	fetcher := &fakeFetcher{services: []kb.Service{{Key: "ai_core", DisplayName: "SAP AI Core"}}}
	dir := NewServiceDirectory(fetcher, time.Minute, nil, nil)

	clock := time.Now()
	dir.now = func() time.Time { return clock }

	dir.Services(context.Background())

	fetcher.err = &backend.Error{Kind: backend.KindUnreachable, Message: "down"}
	clock = clock.Add(2 * time.Minute)

	services := dir.Services(context.Background())
	if len(services) != 1 || services[0].Key != "ai_core" {
		t.Fatalf("expected the last good list, got %+v", services)
	}
}

func TestDirectoryDisplayName(t *testing.T) {
	fetcher := &fakeFetcher{err: &backend.Error{Kind: backend.KindUnreachable, Message: "down"}}
	dir := NewServiceDirectory(fetcher, time.Minute, map[string]string{"joule": "SAP Joule"}, nil)

	if got := dir.DisplayName(context.Background(), "joule"); got != "SAP Joule" {
		t.Fatalf("expected fallback display name, got %q", got)
	}
	if got := dir.DisplayName(context.Background(), "unknown"); got != "unknown" {
		t.Fatalf("unknown keys should pass through, got %q", got)
	}
}
