package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hourtrim/model"

	"github.com/fsnotify/fsnotify"
)

func TestHubBroadcast(t *testing.T) {
	h := NewHub()
	a, cancelA := h.Subscribe()
	b, cancelB := h.Subscribe()
	defer cancelB()

	ev := model.LibraryEvent{Type: model.EventTrimmedFile, Path: "c/s/r/d", File: "00_trimmed.mp3"}
	h.Publish(ev)
	for _, ch := range []<-chan model.LibraryEvent{a, b} {
		if got := <-ch; got != ev {
			t.Fatalf("got %+v, want %+v", got, ev)
		}
	}

	cancelA()
	cancelA()
	if _, ok := <-a; ok {
		t.Fatal("cancelled channel should be closed")
	}
	if n := h.Subscribers(); n != 1 {
		t.Fatalf("Subscribers = %d, want 1", n)
	}
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()
	for i := 0; i < subscriberBuffer+10; i++ {
		h.Publish(model.LibraryEvent{Type: model.EventMissingData})
	}
	if len(ch) != subscriberBuffer {
		t.Fatalf("buffered = %d, want %d", len(ch), subscriberBuffer)
	}
}

func TestHubClose(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	h.Close()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed")
	}
	late, _ := h.Subscribe()
	if _, ok := <-late; ok {
		t.Fatal("subscription after Close should be closed")
	}
}

func TestClassify(t *testing.T) {
	tests := map[string]string{
		"clip_metadata.json":  model.EventClipMetadata,
		"missing_data.json":   model.EventMissingData,
		"00_trimmed.mp3":      model.EventTrimmedFile,
		"00.mp3":              "",
		"notes.txt":           "",
		"clip_metadata.json~": "",
	}
	for name, want := range tests {
		if got := classify(name); got != want {
			t.Errorf("classify(%q) = %q, want %q", name, got, want)
		}
	}
}

func newTestWatcher(t *testing.T) (*Watcher, *Hub, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "trimmed_files")
	hub := NewHub()
	w, err := NewWatcher(root, hub)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { w.fsw.Close() })
	return w, hub, root
}

func TestPendingFlushAfterSettle(t *testing.T) {
	w, hub, root := newTestWatcher(t)
	ch, cancel := hub.Subscribe()
	defer cancel()

	dir := filepath.Join(root, "city", "station", "rec", "2024-05-01")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(dir, model.MissingDataFile)
	if err := os.WriteFile(file, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	clock := time.Unix(1700000000, 0)
	w.now = func() time.Time { return clock }
	w.handle(fsnotify.Event{Name: file, Op: fsnotify.Write})

	w.flush()
	if len(ch) != 0 {
		t.Fatal("event published before settle delay")
	}

	clock = clock.Add(settleDelay)
	w.flush()
	select {
	case ev := <-ch:
		if ev.Type != model.EventMissingData || ev.Path != "city/station/rec/2024-05-01" || ev.File != model.MissingDataFile {
			t.Fatalf("event = %+v", ev)
		}
	default:
		t.Fatal("expected an event")
	}
	if len(w.pending) != 0 {
		t.Fatalf("pending = %v", w.pending)
	}
}

func TestIgnoresUnrelatedFiles(t *testing.T) {
	w, _, root := newTestWatcher(t)
	file := filepath.Join(root, "notes.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	w.handle(fsnotify.Event{Name: file, Op: fsnotify.Create})
	if len(w.pending) != 0 {
		t.Fatalf("pending = %v", w.pending)
	}
}

func TestDepth(t *testing.T) {
	w, _, root := newTestWatcher(t)
	tests := []struct {
		dir  string
		want int
	}{
		{root, 0},
		{filepath.Join(root, "a"), 1},
		{filepath.Join(root, "a", "b", "c", "d"), 4},
		{filepath.Join(root, "a", "b", "c", "d", "e"), 5},
		{filepath.Dir(root), -1},
	}
	for _, tc := range tests {
		if got := w.depth(tc.dir); got != tc.want {
			t.Errorf("depth(%q) = %d, want %d", tc.dir, got, tc.want)
		}
	}
}

func TestRunReportsNewDateDirectory(t *testing.T) {
	w, hub, root := newTestWatcher(t)
	ch, cancel := hub.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		stop()
		<-done
	}()

	dir := filepath.Join(root, "city", "station", "rec", "2024-05-01")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "07_trimmed.mp3"), []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Type == model.EventTrimmedFile && ev.File == "07_trimmed.mp3" {
				if ev.Path != "city/station/rec/2024-05-01" {
					t.Fatalf("Path = %q", ev.Path)
				}
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for trimmed file event")
		}
	}
}
