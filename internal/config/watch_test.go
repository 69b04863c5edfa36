package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "backend:\n  url: http://localhost:8000\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan *Config, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, path, func(cfg *Config) { reloads <- cfg })
	}()

	// Give the watcher a moment to register before the write.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "backend:\n  url: http://localhost:9000\n")

	select {
	case cfg := <-reloads:
		if cfg.Backend.URL != "http://localhost:9000" {
			t.Errorf("reloaded URL = %q, want http://localhost:9000", cfg.Backend.URL)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after config write")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "backend:\n  url: http://localhost:8000\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan *Config, 4)
	go func() {
		_ = Watch(ctx, path, func(cfg *Config) { reloads <- cfg })
	}()

	time.Sleep(100 * time.Millisecond)
	// Invalid YAML must not reach onChange.
	writeFile(t, path, "backend: [broken\n")

	select {
	case cfg := <-reloads:
		t.Errorf("got reload for invalid config: %+v", cfg)
	case <-time.After(1 * time.Second):
	}
}
