package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-configform/pkg/events"
	"github.com/goliatone/go-configform/pkg/store"
)

func TestWatchEmitsOnExternalChange(t *testing.T) {
	path := writeFile(t, `{"settings": {"port": 8124}}`)
	bus := events.NewBus()
	file := store.NewFile(path, store.WithBus(bus))
	if _, err := file.Read(); err != nil {
		t.Fatalf("Read: %v", err)
	}

	changed := make(chan any, 8)
	bus.Subscribe(events.ConfigChanged, func(payload any) {
		select {
		case changed <- payload:
		default:
		}
	})

	watcher, err := file.Watch()
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	tmp := filepath.Join(filepath.Dir(path), "incoming.json")
	if err := os.WriteFile(tmp, []byte(`{"settings": {"port": 9000}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename: %v", err)
	}

	select {
	case payload := <-changed:
		if payload != path {
			t.Fatalf("payload = %#v, want %q", payload, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", events.ConfigChanged)
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestWatchRequiresBus(t *testing.T) {
	file := store.NewFile(writeFile(t, `{}`))
	if _, err := file.Watch(); err == nil {
		t.Fatalf("expected an error when no bus is configured")
	}
}
