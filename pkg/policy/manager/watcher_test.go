package manager

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestDefaultFileWatcherConfig(t *testing.T) {
	config := DefaultFileWatcherConfig()

	if config.DebounceInterval != 100*time.Millisecond {
		t.Errorf("DebounceInterval = %v, want 100ms", config.DebounceInterval)
	}
	if len(config.Extensions) != 3 {
		t.Errorf("Extensions = %v, want .json .yaml .yml", config.Extensions)
	}
	if !config.SkipHidden {
		t.Error("SkipHidden = false, want true")
	}
}

func startWatcher(t *testing.T, path string) <-chan ReloadEvent {
	t.Helper()

	config := DefaultFileWatcherConfig()
	config.Path = path
	config.DebounceInterval = 20 * time.Millisecond

	watcher, err := NewFileWatcher(config, nil)
	if err != nil {
		t.Fatal(err)
	}

	events := make(chan ReloadEvent, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = watcher.Watch(ctx, func(ev ReloadEvent) error {
			events <- ev
			return nil
		})
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = watcher.Stop()
	})

	// Give fsnotify a moment to register the watch.
	time.Sleep(50 * time.Millisecond)
	return events
}

func waitEvent(t *testing.T, events <-chan ReloadEvent) ReloadEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload event")
		return ReloadEvent{}
	}
}

func TestFileWatcher_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := copyFixture(t, dir, "valid/allow.json", "policy.json")
	events := startWatcher(t, path)

	if err := os.WriteFile(path, []byte(`{"plans": {"plans": []}}`), 0644); err != nil {
		t.Fatal(err)
	}

	ev := waitEvent(t, events)
	if filepath.Base(ev.FilePath) != "policy.json" {
		t.Errorf("FilePath = %q, want policy.json", ev.FilePath)
	}
	if ev.Type == ReloadEventDelete {
		t.Errorf("Type = %v, want create or modify", ev.Type)
	}
}

func TestFileWatcher_SingleFile_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := copyFixture(t, dir, "valid/allow.json", "policy.json")
	events := startWatcher(t, path)

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-events:
		t.Errorf("unexpected event for sibling file: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFileWatcher_Directory_Debounced(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, dir, "valid/allow.json", "allow.json")
	events := startWatcher(t, dir)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(filepath.Join(dir, "deny.json"), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	waitEvent(t, events)
	select {
	case ev := <-events:
		t.Errorf("burst produced a second reload: %+v", ev)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestFileWatcher_StopTwice(t *testing.T) {
	config := DefaultFileWatcherConfig()
	config.Path = t.TempDir()

	watcher, err := NewFileWatcher(config, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := watcher.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := watcher.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}

func TestFileWatcher_ShouldProcessEvent(t *testing.T) {
	fw := &FileWatcher{config: DefaultFileWatcherConfig()}

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"json write", fsnotify.Event{Name: "/p/a.json", Op: fsnotify.Write}, true},
		{"yaml create", fsnotify.Event{Name: "/p/a.yml", Op: fsnotify.Create}, true},
		{"chmod only", fsnotify.Event{Name: "/p/a.json", Op: fsnotify.Chmod}, false},
		{"other extension", fsnotify.Event{Name: "/p/a.txt", Op: fsnotify.Write}, false},
		{"hidden", fsnotify.Event{Name: "/p/.a.json", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fw.shouldProcessEvent(tt.event); got != tt.want {
				t.Errorf("shouldProcessEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEventType(t *testing.T) {
	tests := []struct {
		op   fsnotify.Op
		want ReloadEventType
	}{
		{fsnotify.Create, ReloadEventCreate},
		{fsnotify.Write, ReloadEventModify},
		{fsnotify.Remove, ReloadEventDelete},
		{fsnotify.Rename, ReloadEventDelete},
	}
	for _, tt := range tests {
		if got := eventType(tt.op); got != tt.want {
			t.Errorf("eventType(%v) = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() { calls.Add(1) })
	}

	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("callback ran %d times, want 1", got)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Stop()

	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("callback ran %d times after Stop, want 0", got)
	}
}

func TestReloadEventType_String(t *testing.T) {
	tests := map[ReloadEventType]string{
		ReloadEventCreate:    "create",
		ReloadEventModify:    "modify",
		ReloadEventDelete:    "delete",
		ReloadEventScheduled: "scheduled",
		ReloadEventType(99):  "unknown",
	}
	for typ, want := range tests {
		if got := typ.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
