package source

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

type countingFiles struct {
	mu    sync.Mutex
	files map[string][]byte
	reads map[string]int
}

func newCountingFiles(files map[string][]byte) *countingFiles {
	return &countingFiles{files: files, reads: map[string]int{}}
}

func (f *countingFiles) ReadFile(path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads[path]++
	data, ok := f.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (f *countingFiles) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[path]
}

type countingFetcher struct {
	calls atomic.Int32
	body  []byte
	err   error
}

func (f *countingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.calls.Add(1)
	return f.body, f.err
}

type fakeSynth struct {
	calls atomic.Int32
}

func (s *fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	s.calls.Add(1)
	return []byte("RIFF:" + text), nil
}

func newTestResolver(files FileReader, fetcher Fetcher) *Resolver {
	return NewResolver(ResolverConfig{Files: files, Fetcher: fetcher, Logger: zerolog.Nop()})
}

func TestResolve_Bytes_Passthrough(t *testing.T) {
	files := newCountingFiles(nil)
	r := newTestResolver(files, &countingFetcher{})

	data, err := r.Resolve(context.Background(), Bytes([]byte{1, 2, 3}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(data, []byte{1, 2, 3}) {
		t.Errorf("unexpected data %v", data)
	}
	if r.Cache().Len(TierAll) != 0 {
		t.Error("expected bytes request to leave the cache untouched")
	}
}

func TestResolve_LocalPath_CachedOnce(t *testing.T) {
	files := newCountingFiles(map[string][]byte{"/clips/a.mp3": []byte("aaa")})
	r := newTestResolver(files, &countingFetcher{})

	first, err := r.Resolve(context.Background(), Path("/clips/a.mp3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.Resolve(context.Background(), Path("/clips/a.mp3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if files.count("/clips/a.mp3") != 1 {
		t.Errorf("expected 1 read, got %d", files.count("/clips/a.mp3"))
	}
	if !bytes.Equal(first, second) {
		t.Error("expected identical content from cache")
	}
}

func TestResolve_LocalPath_WithoutCacheRereads(t *testing.T) {
	files := newCountingFiles(map[string][]byte{"a.mp3": []byte("aaa")})
	r := newTestResolver(files, &countingFetcher{})

	for i := 0; i < 2; i++ {
		if _, err := r.Resolve(context.Background(), Path("a.mp3").WithoutCache()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if files.count("a.mp3") != 2 {
		t.Errorf("expected 2 reads, got %d", files.count("a.mp3"))
	}
	if _, ok := r.Cache().Get(TierLocal, "a.mp3"); !ok {
		t.Error("expected uncached read to still populate the cache")
	}
}

func TestResolve_KeysAreNotCanonicalized(t *testing.T) {
	files := newCountingFiles(map[string][]byte{
		"clips/a.mp3":   []byte("aaa"),
		"./clips/a.mp3": []byte("aaa"),
	})
	r := newTestResolver(files, &countingFetcher{})

	r.Resolve(context.Background(), Path("clips/a.mp3"))
	r.Resolve(context.Background(), Path("./clips/a.mp3"))

	if n := r.Cache().Len(TierLocal); n != 2 {
		t.Errorf("expected 2 distinct entries, got %d", n)
	}
}

func TestResolve_LocalPath_Missing(t *testing.T) {
	r := newTestResolver(newCountingFiles(nil), &countingFetcher{})

	_, err := r.Resolve(context.Background(), Path("/nope.mp3"))
	if !errors.Is(err, ErrResourceUnavailable) {
		t.Fatalf("expected ErrResourceUnavailable, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected wrapped fs.ErrNotExist, got %v", err)
	}
	if r.Cache().Len(TierAll) != 0 {
		t.Error("failed read must not be cached")
	}
}

func TestResolve_FileURL(t *testing.T) {
	files := newCountingFiles(map[string][]byte{"/clips/b.wav": []byte("bbb")})
	r := newTestResolver(files, &countingFetcher{})

	data, err := r.Resolve(context.Background(), URL("file:///clips/b.wav"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "bbb" {
		t.Errorf("unexpected data %q", data)
	}
	if _, ok := r.Cache().Get(TierLocal, "file:///clips/b.wav"); !ok {
		t.Error("expected file url cached in the local tier under its textual form")
	}
}

func TestResolve_RemoteURL_CachedOnce(t *testing.T) {
	fetcher := &countingFetcher{body: []byte("remote")}
	r := newTestResolver(newCountingFiles(nil), fetcher)

	for i := 0; i < 3; i++ {
		data, err := r.Resolve(context.Background(), URL("https://example.com/a.mp3"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "remote" {
			t.Errorf("unexpected data %q", data)
		}
	}
	if n := fetcher.calls.Load(); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}
}

func TestResolve_RemoteURL_FetchFailure(t *testing.T) {
	fetcher := &countingFetcher{err: &FetchError{URL: "https://example.com/x", Reason: "boom"}}
	r := newTestResolver(newCountingFiles(nil), fetcher)

	_, err := r.Resolve(context.Background(), URL("https://example.com/x"))
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Reason != "boom" {
		t.Errorf("expected FetchError with reason, got %v", err)
	}
}

func TestResolve_InvalidSources(t *testing.T) {
	files := newCountingFiles(nil)
	fetcher := &countingFetcher{}
	r := newTestResolver(files, fetcher)

	tests := []struct {
		name string
		req  Request
	}{
		{"empty path", Path("")},
		{"nul path", Path("a\x00b")},
		{"empty url", URL("")},
		{"unparseable url", URL("http://[::1")},
		{"no scheme", URL("clip.mp3")},
		{"unsupported scheme", URL("ftp://example.com/a.mp3")},
		{"no host", URL("http:///a.mp3")},
		{"empty resource", Resource("")},
		{"blank speech", Speech("   ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tt.req)
			if !errors.Is(err, ErrInvalidSource) {
				t.Errorf("expected ErrInvalidSource, got %v", err)
			}
		})
	}

	if len(files.reads) != 0 || fetcher.calls.Load() != 0 {
		t.Error("invalid sources must not trigger I/O")
	}
}

func TestResolve_ClearTiersIndependently(t *testing.T) {
	files := newCountingFiles(map[string][]byte{"a.mp3": []byte("a")})
	fetcher := &countingFetcher{body: []byte("b")}
	r := newTestResolver(files, fetcher)
	ctx := context.Background()

	r.Resolve(ctx, Path("a.mp3"))
	r.Resolve(ctx, URL("http://example.com/b.mp3"))

	r.ClearCache(TierLocal)
	r.Resolve(ctx, Path("a.mp3"))
	r.Resolve(ctx, URL("http://example.com/b.mp3"))
	if files.count("a.mp3") != 2 {
		t.Errorf("expected local re-read after local clear, got %d reads", files.count("a.mp3"))
	}
	if fetcher.calls.Load() != 1 {
		t.Errorf("remote tier must survive a local clear, got %d fetches", fetcher.calls.Load())
	}

	r.ClearCache(TierRemote)
	r.Resolve(ctx, Path("a.mp3"))
	r.Resolve(ctx, URL("http://example.com/b.mp3"))
	if files.count("a.mp3") != 2 {
		t.Errorf("local tier must survive a remote clear, got %d reads", files.count("a.mp3"))
	}
	if fetcher.calls.Load() != 2 {
		t.Errorf("expected re-fetch after remote clear, got %d fetches", fetcher.calls.Load())
	}

	r.ClearCache(TierAll)
	if r.Cache().Len(TierAll) != 0 {
		t.Error("expected empty cache")
	}
}

func TestResolve_ConcurrentLoadsShareOneRead(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	fetcher := fetchFunc(func(ctx context.Context, url string) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("shared"), nil
	})
	r := newTestResolver(newCountingFiles(nil), fetcher)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Resolve(context.Background(), URL("https://example.com/shared.mp3"))
		}()
	}
	close(release)
	wg.Wait()

	if n := calls.Load(); n < 1 || n > 4 {
		t.Fatalf("unexpected fetch count %d", n)
	}
	data, _ := r.Resolve(context.Background(), URL("https://example.com/shared.mp3"))
	if string(data) != "shared" {
		t.Errorf("unexpected data %q", data)
	}
}

type fetchFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetchFunc) Fetch(ctx context.Context, url string) ([]byte, error) { return f(ctx, url) }

func TestResolve_Resource(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ding.wav"), []byte("ding"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewResolver(ResolverConfig{Bundle: DirBundle{Dirs: []string{t.TempDir(), dir}}, Logger: zerolog.Nop()})

	data, err := r.Resolve(context.Background(), Resource("ding.wav"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "ding" {
		t.Errorf("unexpected data %q", data)
	}

	_, err = r.Resolve(context.Background(), Resource("missing.wav"))
	if !errors.Is(err, ErrResourceUnavailable) {
		t.Errorf("expected ErrResourceUnavailable, got %v", err)
	}
}

func TestResolve_ResourceWithoutBundle(t *testing.T) {
	r := newTestResolver(newCountingFiles(nil), &countingFetcher{})

	_, err := r.Resolve(context.Background(), Resource("ding.wav"))
	if !errors.Is(err, ErrResourceUnavailable) {
		t.Errorf("expected ErrResourceUnavailable, got %v", err)
	}
}

func TestResolve_Speech(t *testing.T) {
	synth := &fakeSynth{}
	r := NewResolver(ResolverConfig{Files: newCountingFiles(nil), Synthesizer: synth, Logger: zerolog.Nop()})

	for i := 0; i < 2; i++ {
		data, err := r.Resolve(context.Background(), Speech("hello"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "RIFF:hello" {
			t.Errorf("unexpected data %q", data)
		}
	}
	if synth.calls.Load() != 1 {
		t.Errorf("expected 1 synthesis, got %d", synth.calls.Load())
	}
	if _, ok := r.Cache().Get(TierRemote, "speech:hello"); !ok {
		t.Error("expected speech cached in the remote tier")
	}
}

func TestResolve_SpeechWithoutSynthesizer(t *testing.T) {
	r := newTestResolver(newCountingFiles(nil), &countingFetcher{})

	if _, err := r.Resolve(context.Background(), Speech("hello")); !errors.Is(err, ErrSpeechUnavailable) {
		t.Errorf("expected ErrSpeechUnavailable, got %v", err)
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.mp3" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ID3 audio"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(0)

	body, err := f.Fetch(context.Background(), srv.URL+"/a.mp3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "ID3 audio" {
		t.Errorf("unexpected body %q", body)
	}

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.mp3")
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed for 404, got %v", err)
	}
}

func TestHTTPFetcher_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPFetcher(0).Fetch(context.Background(), url+"/a.mp3")
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("expected ErrFetchFailed, got %v", err)
	}
}
