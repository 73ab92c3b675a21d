package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"tileview/internal/cache"
	"tileview/internal/tile"
)

type fakeDownloader struct {
	mu   sync.Mutex
	urls []string
	body string
	err  error
}

func (d *fakeDownloader) Fetch(ctx context.Context, url string, w io.Writer) error {
	d.mu.Lock()
	d.urls = append(d.urls, url)
	d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	_, err := io.WriteString(w, d.body)
	return err
}

func (d *fakeDownloader) calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}

func newStore(t *testing.T) *cache.DiskStore {
	t.Helper()
	store, err := cache.NewDiskStore(filepath.Join(t.TempDir(), "tilecache"))
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestWorkerDownloads(t *testing.T) {
	store := newStore(t)
	dl := &fakeDownloader{body: "png"}
	w := NewWorker(NewQueue(), store, dl, zap.NewNop())

	key := tile.Key{Provider: tile.ArcGIS, Zoom: 5, X: 3, Y: 7}
	w.process(Job{Key: key, Path: store.PathFor(key)})

	if !store.Exists(key) {
		t.Fatal("expected tile on disk")
	}
	calls := dl.calls()
	if len(calls) != 1 || !strings.HasSuffix(calls[0], "/tile/5/7/3") {
		t.Fatalf("unexpected requests %v", calls)
	}
	if !strings.HasSuffix(store.PathFor(key), filepath.Join("arcgis", "5", "3", "7.png")) {
		t.Fatalf("unexpected path %s", store.PathFor(key))
	}
}

func TestWorkerSkipsExisting(t *testing.T) {
	store := newStore(t)
	dl := &fakeDownloader{body: "png"}
	w := NewWorker(NewQueue(), store, dl, zap.NewNop())

	key := tile.Key{Provider: tile.OSM, Zoom: 3, X: 4, Y: 2}
	w.process(Job{Key: key})
	w.process(Job{Key: key})

	if n := len(dl.calls()); n != 1 {
		t.Fatalf("expected one download, got %d", n)
	}
}

func TestWorkerChecksJobPath(t *testing.T) {
	store := newStore(t)
	dl := &fakeDownloader{body: "png"}
	w := NewWorker(NewQueue(), store, dl, zap.NewNop())

	existing := filepath.Join(t.TempDir(), "2.png")
	if err := os.WriteFile(existing, []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}
	key := tile.Key{Provider: tile.OSM, Zoom: 3, X: 4, Y: 2}
	w.process(Job{Key: key, Path: existing})
	if n := len(dl.calls()); n != 0 {
		t.Fatalf("downloaded %d times although the destination exists", n)
	}

	w.process(Job{Key: key, Path: filepath.Join(t.TempDir(), "missing.png")})
	if n := len(dl.calls()); n != 1 {
		t.Fatalf("expected one download, got %d", n)
	}
}

func TestWorkerSwallowsErrors(t *testing.T) {
	store := newStore(t)
	dl := &fakeDownloader{err: errors.New("timeout")}
	w := NewWorker(NewQueue(), store, dl, zap.NewNop())

	key := tile.Key{Provider: tile.OSM, Zoom: 3, X: 4, Y: 2}
	w.process(Job{Key: key})

	if store.Exists(key) {
		t.Fatal("failed download must leave no file")
	}
	// No automatic retry.
	if n := len(dl.calls()); n != 1 {
		t.Fatalf("expected a single attempt, got %d", n)
	}
}

func TestWorkerRunAndStop(t *testing.T) {
	store := newStore(t)
	dl := &fakeDownloader{body: "png"}
	q := NewQueue()
	w := NewWorker(q, store, dl, zap.NewNop())
	w.Start()

	key := tile.Key{Provider: tile.CartoLight, Zoom: 2, X: 1, Y: 2}
	q.Enqueue(Job{Key: key, Path: store.PathFor(key)})

	deadline := time.Now().Add(2 * time.Second)
	for !store.Exists(key) {
		if time.Now().After(deadline) {
			t.Fatal("worker did not download the tile")
		}
		time.Sleep(5 * time.Millisecond)
	}

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
	w.Stop()
}

func TestWorkerStopWithoutStart(t *testing.T) {
	w := NewWorker(NewQueue(), newStore(t), &fakeDownloader{}, zap.NewNop())
	w.Stop()
}

func TestHTTPFetcher(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old":
			http.Redirect(w, r, "/tile", http.StatusFound)
		case "/tile":
			gotUA = r.UserAgent()
			w.Write([]byte("tile-data"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(FetcherOptions{UserAgent: "tileview-test"})

	var buf bytes.Buffer
	if err := f.Fetch(context.Background(), srv.URL+"/old", &buf); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if buf.String() != "tile-data" {
		t.Fatalf("unexpected body %q", buf.String())
	}
	if gotUA != "tileview-test" {
		t.Fatalf("User-Agent = %q", gotUA)
	}

	buf.Reset()
	if err := f.Fetch(context.Background(), srv.URL+"/missing", &buf); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestHTTPFetcherTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := NewHTTPFetcher(FetcherOptions{Timeout: 50 * time.Millisecond})
	start := time.Now()
	if err := f.Fetch(context.Background(), srv.URL, io.Discard); err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("timeout was not applied")
	}
}

func TestFailedHTTPFetchLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := newStore(t)
	key := tile.Key{Provider: tile.OSM, Zoom: 1, X: 1, Y: 1}
	err := store.WriteFromNetwork(context.Background(), key, FetchFunc(NewHTTPFetcher(FetcherOptions{}), srv.URL))
	if !errors.Is(err, cache.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	if store.Exists(key) {
		t.Fatal("file must be absent after a failed fetch")
	}
}
