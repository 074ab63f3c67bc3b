package hupd

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fakeHub serves the sample archive and counts requests.
func fakeHub(t *testing.T, token string, archive []byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/"+sampleArchive {
			http.NotFound(w, r)
			return
		}
		w.Write(archive)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestLoader_Load(t *testing.T) {
	srv, hits := fakeHub(t, "hf_test", buildArchive(t, sampleRecords()))
	cacheDir := t.TempDir()
	client := NewClient(WithBaseURL(srv.URL), WithToken("hf_test"))
	loader := NewLoader(client, cacheDir)

	patents, err := loader.Load(context.Background(), SplitTrain, "SAMPLE")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	var ids []string
	for _, p := range patents {
		ids = append(ids, p.ID)
	}
	// Ungranted and validation-window applications are dropped; order is by filing date.
	if diff := cmp.Diff([]string{"14900001", "14900003"}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}

	// A second load is served from the record cache.
	again, err := loader.Load(context.Background(), SplitTrain, DatasetSample)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if diff := cmp.Diff(patents, again); diff != "" {
		t.Errorf("cached load differs (-first +second):\n%s", diff)
	}

	// A different split re-reads the cached archive without downloading.
	validation, err := loader.Load(context.Background(), SplitValidation, DatasetSample)
	if err != nil {
		t.Fatalf("validation Load failed: %v", err)
	}
	if len(validation) != 1 || validation[0].ID != "14900004" {
		t.Errorf("validation = %v", validation)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("hub saw %d requests, want 1", n)
	}
}

func TestLoader_IncludeUngranted(t *testing.T) {
	srv, _ := fakeHub(t, "", buildArchive(t, sampleRecords()))
	loader := NewLoader(NewClient(WithBaseURL(srv.URL)), t.TempDir(), WithGrantedOnly(false))

	patents, err := loader.Load(context.Background(), SplitAll, DatasetSample)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(patents) != 4 {
		t.Errorf("got %d patents, want 4", len(patents))
	}
}

func TestLoader_AuthFailure(t *testing.T) {
	srv, _ := fakeHub(t, "hf_right", buildArchive(t, sampleRecords()))
	cacheDir := t.TempDir()
	loader := NewLoader(NewClient(WithBaseURL(srv.URL), WithToken("hf_wrong")), cacheDir)

	_, err := loader.Load(context.Background(), SplitTrain, DatasetSample)
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected FetchError with 401, got %v", err)
	}

	entries, _ := os.ReadDir(cacheDir)
	if len(entries) != 0 {
		t.Errorf("failed download left %d files in cache", len(entries))
	}
}

func TestLoader_CorruptCachedArchive(t *testing.T) {
	cacheDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(cacheDir, "sample-jan-2016.tar.gz"), []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	loader := NewLoader(NewClient(WithBaseURL("http://127.0.0.1:1")), cacheDir)

	_, err := loader.Load(context.Background(), SplitTrain, DatasetSample)
	if !errors.Is(err, ErrBadArchive) {
		t.Errorf("expected ErrBadArchive, got %v", err)
	}
}

func TestClient_FetchProgress(t *testing.T) {
	archive := buildArchive(t, sampleRecords())
	srv, _ := fakeHub(t, "", archive)

	var seen int64
	client := NewClient(WithBaseURL(srv.URL), WithProgress(func(name string, total int64) io.Writer {
		return writerFunc(func(p []byte) (int, error) {
			seen += int64(len(p))
			return len(p), nil
		})
	}))

	dest := filepath.Join(t.TempDir(), "a.tar.gz")
	cached, err := client.Fetch(context.Background(), sampleArchive, dest)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if cached {
		t.Error("first fetch should not be cached")
	}
	if seen != int64(len(archive)) {
		t.Errorf("progress saw %d bytes, want %d", seen, len(archive))
	}

	cached, err = client.Fetch(context.Background(), sampleArchive, dest)
	if err != nil || !cached {
		t.Errorf("second Fetch = %v, %v; want cached", cached, err)
	}
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
