package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/layoutsync/internal/layout"
	"github.com/starford/layoutsync/internal/models"
	"github.com/starford/layoutsync/internal/region"
	"github.com/starford/layoutsync/internal/testutil"
)

var files = []string{"shared-layout.html", "index.html"}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type countingRunner struct {
	inner Runner
	calls atomic.Int32
}

func (r *countingRunner) Sync() (*models.Report, error) {
	r.calls.Add(1)
	return r.inner.Sync()
}

func TestWatcher_TemplateEditSyncsTargets(t *testing.T) {
	dir, store := testutil.Workspace(t, map[string]string{
		"shared-layout.html": testutil.Page("Shared", "v1", "side"),
		"index.html":         testutil.Page("Home", "v1", "side"),
	})
	s, err := layout.New(store, layout.Plan{
		Template: files[0],
		Targets:  files[1:],
		Regions:  region.Defaults(),
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string
	go Watch(ctx, s, store, files, 20*time.Millisecond, quietLogger(), func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	testutil.WriteFile(t, dir, "shared-layout.html", testutil.Page("Shared", "v2", "side"))

	want := testutil.Page("Home", "v2", "side")
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return testutil.ReadFile(t, dir, "index.html") == want
	}, "target not synced after template edit")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "updated:index.html" {
				return true
			}
		}
		return false
	}, "expected updated:index.html callback")
}

func TestWatcher_BrokenTemplateReportsFailure(t *testing.T) {
	dir, store := testutil.Workspace(t, map[string]string{
		"shared-layout.html": testutil.Page("Shared", "v1", "side"),
		"index.html":         testutil.Page("Home", "v1", "side"),
	})
	s, err := layout.New(store, layout.Plan{
		Template: files[0],
		Targets:  files[1:],
		Regions:  region.Defaults(),
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	failed := make(chan string, 4)
	go Watch(ctx, s, store, files, 20*time.Millisecond, quietLogger(), func(kind, path string) {
		if kind != "failed" {
			return
		}
		select {
		case failed <- path:
		default:
		}
	})

	time.Sleep(100 * time.Millisecond)
	testutil.WriteFile(t, dir, "shared-layout.html", "<html>no markers</html>")

	select {
	case p := <-failed:
		if p != "shared-layout.html" {
			t.Errorf("failed document = %q", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expected failed callback")
	}
	if testutil.ReadFile(t, dir, "index.html") != testutil.Page("Home", "v1", "side") {
		t.Error("target changed despite broken template")
	}
}

func TestWatcher_SkipsUnchangedContent(t *testing.T) {
	page := testutil.Page("Shared", "v1", "side")
	dir, store := testutil.Workspace(t, map[string]string{
		"shared-layout.html": page,
		"index.html":         testutil.Page("Home", "v1", "side"),
	})
	s, err := layout.New(store, layout.Plan{
		Template: files[0],
		Targets:  files[1:],
		Regions:  region.Defaults(),
	})
	if err != nil {
		t.Fatal(err)
	}
	runner := &countingRunner{inner: s}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, runner, store, files, 20*time.Millisecond, quietLogger(), nil)
	}()

	time.Sleep(100 * time.Millisecond)
	testutil.WriteFile(t, dir, "shared-layout.html", page)
	time.Sleep(300 * time.Millisecond)

	if n := runner.calls.Load(); n != 0 {
		t.Errorf("sync ran %d times for identical content", n)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("watcher did not stop after cancel")
	}
}

func TestWatcher_PartialFailureReportsOnce(t *testing.T) {
	partialFiles := []string{"shared-layout.html", "a.html", "b.html"}
	dir, store := testutil.Workspace(t, map[string]string{
		"shared-layout.html": testutil.Page("Shared", "v1", "side"),
		"a.html":             testutil.Page("A", "v1", "side"),
		"b.html":             "<html>no markers</html>",
	})
	s, err := layout.New(store, layout.Plan{
		Template: partialFiles[0],
		Targets:  partialFiles[1:],
		Regions:  region.Defaults(),
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string
	go Watch(ctx, s, store, partialFiles, 20*time.Millisecond, quietLogger(), func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)
	testutil.WriteFile(t, dir, "shared-layout.html", testutil.Page("Shared", "v2", "side"))

	count := func(event string) int {
		mu.Lock()
		defer mu.Unlock()
		n := 0
		for _, e := range events {
			if e == event {
				n++
			}
		}
		return n
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return count("failed:b.html") > 0
	}, "expected failed:b.html callback")

	// Give the watcher time to react to its own write of a.html.
	time.Sleep(300 * time.Millisecond)

	if n := count("updated:a.html"); n != 1 {
		t.Errorf("updated:a.html reported %d times, want 1", n)
	}
	if n := count("failed:b.html"); n != 1 {
		mu.Lock()
		t.Errorf("failed:b.html reported %d times, want 1 (events %v)", n, events)
		mu.Unlock()
	}
	if got := testutil.ReadFile(t, dir, "a.html"); got != testutil.Page("A", "v2", "side") {
		t.Errorf("a.html = %q", got)
	}
}

func TestWatcher_UnreadableTemplateReportsTemplate(t *testing.T) {
	dir, store := testutil.Workspace(t, map[string]string{
		"shared-layout.html": testutil.Page("Shared", "v1", "side"),
		"index.html":         testutil.Page("Home", "v1", "side"),
	})
	s, err := layout.New(store, layout.Plan{
		Template: files[0],
		Targets:  files[1:],
		Regions:  region.Defaults(),
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	failed := make(chan string, 4)
	go Watch(ctx, s, store, files, 20*time.Millisecond, quietLogger(), func(kind, path string) {
		if kind != "failed" {
			return
		}
		select {
		case failed <- path:
		default:
		}
	})

	time.Sleep(100 * time.Millisecond)
	if err := os.Remove(filepath.Join(dir, "shared-layout.html")); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-failed:
		if p != "shared-layout.html" {
			t.Errorf("failed document = %q, want shared-layout.html", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expected failed callback")
	}
}

func TestWatch_NoFiles(t *testing.T) {
	_, store := testutil.Workspace(t, nil)
	if err := Watch(context.Background(), &countingRunner{}, store, nil, time.Millisecond, quietLogger(), nil); err == nil {
		t.Fatal("expected error without files")
	}
}
