package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sdejongh/webpnorris/pkg/models"
)

func startWatcher(t *testing.T, root string, exclude ...string) (<-chan models.ConversionOutcome, context.CancelFunc) {
	t.Helper()
	return startWatcherWith(t, root, ConvertOptions{Quality: 90}, exclude...)
}

func startWatcherWith(t *testing.T, root string, opts ConvertOptions, exclude ...string) (<-chan models.ConversionOutcome, context.CancelFunc) {
	t.Helper()
	backend := newBackend(t, root, exclude...)
	conv := NewConverter(backend, newFakeCodec(), nil, nil, opts)
	w := NewWatcher(backend, conv, nil, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	outcomes := make(chan models.ConversionOutcome, 16)
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx, func(o models.ConversionOutcome) { outcomes <- o })
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			if err != nil {
				t.Errorf("Run() error = %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop after cancellation")
		}
	})

	// let the watcher register its directories
	time.Sleep(100 * time.Millisecond)
	return outcomes, cancel
}

func waitOutcome(t *testing.T, outcomes <-chan models.ConversionOutcome) models.ConversionOutcome {
	t.Helper()
	select {
	case o := <-outcomes:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("no conversion within timeout")
	}
	return models.ConversionOutcome{}
}

func TestWatcher(t *testing.T) {
	t.Run("ConvertsNewFile", func(t *testing.T) {
		root := t.TempDir()
		outcomes, _ := startWatcher(t, root)

		src := filepath.Join(root, "new.jpg")
		if err := os.WriteFile(src, []byte("jpeg"), 0644); err != nil {
			t.Fatal(err)
		}

		o := waitOutcome(t, outcomes)
		if !o.OK() || o.SourcePath != src {
			t.Errorf("outcome = %+v", o)
		}
		if !exists(t, filepath.Join(root, "new.webp")) {
			t.Error("new.webp not written")
		}
	})

	t.Run("ConvertsInNewFolder", func(t *testing.T) {
		root := t.TempDir()
		outcomes, _ := startWatcher(t, root)

		dir := filepath.Join(root, "album", "2024")
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		time.Sleep(100 * time.Millisecond)
		if err := os.WriteFile(filepath.Join(dir, "pic.png"), []byte("png"), 0644); err != nil {
			t.Fatal(err)
		}

		o := waitOutcome(t, outcomes)
		if o.SourcePath != filepath.Join(dir, "pic.png") {
			t.Errorf("outcome = %+v", o)
		}
	})

	t.Run("CollisionFail", func(t *testing.T) {
		root := t.TempDir()
		if err := os.WriteFile(filepath.Join(root, "photo.jpg"), []byte("jpeg"), 0644); err != nil {
			t.Fatal(err)
		}
		outcomes, _ := startWatcherWith(t, root, ConvertOptions{Quality: 90, FailOnCollision: true})

		src := filepath.Join(root, "photo.png")
		if err := os.WriteFile(src, []byte("png"), 0644); err != nil {
			t.Fatal(err)
		}

		o := waitOutcome(t, outcomes)
		if o.OK() || o.SourcePath != src || o.ErrorKind != "collision" {
			t.Errorf("outcome = %+v, want collision failure for %s", o, src)
		}
		if exists(t, filepath.Join(root, "photo.webp")) {
			t.Error("photo.webp must not be written on collision")
		}
	})

	t.Run("CollisionWarnConverts", func(t *testing.T) {
		root := t.TempDir()
		if err := os.WriteFile(filepath.Join(root, "photo.jpg"), []byte("jpeg"), 0644); err != nil {
			t.Fatal(err)
		}
		outcomes, _ := startWatcher(t, root)

		if err := os.WriteFile(filepath.Join(root, "photo.png"), []byte("png"), 0644); err != nil {
			t.Fatal(err)
		}

		if o := waitOutcome(t, outcomes); !o.OK() {
			t.Errorf("outcome = %+v, want success", o)
		}
	})

	t.Run("IgnoresOtherFiles", func(t *testing.T) {
		root := t.TempDir()
		outcomes, _ := startWatcher(t, root, "*.tmp.png")

		for _, name := range []string{"notes.txt", "done.webp", ".png", "scratch.tmp.png"} {
			if err := os.WriteFile(filepath.Join(root, name), []byte("x"), 0644); err != nil {
				t.Fatal(err)
			}
		}

		select {
		case o := <-outcomes:
			t.Errorf("unexpected conversion %+v", o)
		case <-time.After(300 * time.Millisecond):
		}
	})
}

func TestWatcherScheduleAfterStop(t *testing.T) {
	root := t.TempDir()
	w := NewWatcher(newBackend(t, root), nil, nil, time.Millisecond)

	// unbuffered and never read, as after Run has returned
	ready := make(chan string)
	done := make(chan struct{})
	close(done)

	w.schedule(context.Background(), filepath.Join(root, "late.jpg"), ready, done)

	deadline := time.Now().Add(5 * time.Second)
	for {
		w.mu.Lock()
		n := len(w.pending)
		w.mu.Unlock()
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timer callback never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// a callback still blocked on ready would be picked up here
	time.Sleep(50 * time.Millisecond)
	select {
	case p := <-ready:
		t.Errorf("timer still sending %q after stop", p)
	default:
	}
}
