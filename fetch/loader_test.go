package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/chatglyph/glyph"
	"github.com/gogpu/chatglyph/internal/logging"
)

// fakeHelix serves emote and badge manifests plus their images.
type fakeHelix struct {
	t      *testing.T
	srv    *httptest.Server
	broken map[string]bool // image paths answering 404

	// When set, image requests report on entered and wait for gate.
	entered chan struct{}
	gate    chan struct{}

	mu         sync.Mutex
	imageHits  map[string]int
	manifest   atomic.Int32
	authHeader atomic.Value
}

func newFakeHelix(t *testing.T) *fakeHelix {
	t.Helper()
	f := &fakeHelix{
		t:         t,
		broken:    map[string]bool{},
		imageHits: map[string]int{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/helix/chat/emotes/global", f.serveEmotes)
	mux.HandleFunc("/helix/chat/badges/global", f.serveBadges)
	mux.HandleFunc("/helix/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	mux.HandleFunc("/helix/garbage", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"not": "an array"}}`))
	})
	mux.HandleFunc("/img/", f.serveImage)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeHelix) url(path string) string { return f.srv.URL + path }

func (f *fakeHelix) serveEmotes(w http.ResponseWriter, r *http.Request) {
	f.manifest.Add(1)
	f.authHeader.Store(r.Header.Get("Authorization") + "|" + r.Header.Get("Client-Id"))

	var emotes []Emote
	for i := 0; i < 10; i++ {
		emotes = append(emotes, Emote{
			ID:     fmt.Sprint(100 + i),
			Name:   fmt.Sprintf("Emote%d", i),
			Images: map[string]string{"url_1x": f.url(fmt.Sprintf("/img/e%d", i))},
		})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"data": emotes})
}

func (f *fakeHelix) serveBadges(w http.ResponseWriter, r *http.Request) {
	sets := []BadgeSet{
		{SetID: "subscriber", Versions: []BadgeVersion{
			{ID: "0", ImageURL1x: f.url("/img/sub0")},
			{ID: "12", ImageURL1x: f.url("/img/sub12")},
		}},
		{SetID: "moderator", Versions: []BadgeVersion{
			{ID: "1", ImageURL1x: f.url("/img/mod1")},
		}},
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"data": sets})
}

func (f *fakeHelix) serveImage(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.imageHits[r.URL.Path]++
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.gate
	}
	if f.broken[r.URL.Path] {
		http.NotFound(w, r)
		return
	}
	if r.URL.Path == "/img/corrupt" {
		_, _ = w.Write([]byte("not an image"))
		return
	}
	img := image.NewRGBA(image.Rect(0, 0, 28, 28))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		f.t.Errorf("png.Encode: %v", err)
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

func (f *fakeHelix) hits(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.imageHits[path]
}

type fixture struct {
	helix    *fakeHelix
	registry *glyph.Registry
	queue    *glyph.RenderQueue
	store    *glyph.Store
	loader   *Loader
}

func newFixture(t *testing.T, opts ...LoaderOption) *fixture {
	t.Helper()
	helix := newFakeHelix(t)
	registry := glyph.NewRegistry()
	queue := glyph.NewRenderQueue()
	store := glyph.NewStore(queue)
	client := NewClient(WithToken("oauth:secret"), WithHTTPClient(helix.srv.Client()))
	return &fixture{
		helix:    helix,
		registry: registry,
		queue:    queue,
		store:    store,
		loader:   NewLoader(client, registry, store, opts...),
	}
}

func TestLoadEmotes(t *testing.T) {
	fx := newFixture(t)

	res, err := fx.loader.Load(context.Background(), fx.helix.url("/helix/chat/emotes/global"), KindEmotes)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Total != 10 || res.Loaded != 10 || res.Failed != 0 || res.Skipped != 0 {
		t.Errorf("Result = %+v, want 10 loaded", res)
	}
	if got := fx.helix.authHeader.Load(); got != "Bearer secret|"+DefaultClientID {
		t.Errorf("headers = %q", got)
	}
	if fx.registry.Len(glyph.NamespaceEmote) != 10 {
		t.Errorf("registered %d emotes, want 10", fx.registry.Len(glyph.NamespaceEmote))
	}

	// Records reach the store only through the render queue.
	if fx.store.Len() != 0 {
		t.Errorf("store has %d records before drain", fx.store.Len())
	}
	fx.queue.Drain()
	if fx.store.Len() != 10 {
		t.Fatalf("store has %d records after drain, want 10", fx.store.Len())
	}

	cp, ok := fx.registry.Lookup(glyph.NamespaceEmote, "Emote4")
	if !ok {
		t.Fatal("Emote4 not registered")
	}
	rec, ok := fx.store.Get(cp)
	if !ok {
		t.Fatal("no record for Emote4")
	}
	if rec.Advance != 9 || rec.Ascent != 8 || rec.SourcePath != "emotes/104" {
		t.Errorf("record = advance %d ascent %d path %q", rec.Advance, rec.Ascent, rec.SourcePath)
	}
}

func TestLoadClosedQueueFails(t *testing.T) {
	fx := newFixture(t)
	fx.queue.Close()
	url := fx.helix.url("/helix/chat/emotes/global")

	res, err := fx.loader.Load(context.Background(), url, KindEmotes)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Loaded != 0 || res.Failed != 10 {
		t.Errorf("Result = %+v, want 10 failed", res)
	}
	if n := fx.registry.Len(glyph.NamespaceEmote); n != 0 {
		t.Errorf("registered %d emotes without records", n)
	}

	// Nothing was bound, so a retry fails again instead of skipping.
	res, err = fx.loader.Load(context.Background(), url, KindEmotes)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Skipped != 0 || res.Failed != 10 {
		t.Errorf("retry Result = %+v, want 10 failed", res)
	}
	fx.queue.Drain()
	if fx.store.Len() != 0 {
		t.Errorf("store has %d records", fx.store.Len())
	}
}

func TestLoadFinishesStartedImagesAfterCancel(t *testing.T) {
	fx := newFixture(t, WithConcurrency(10))
	fx.helix.entered = make(chan struct{}, 10)
	fx.helix.gate = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan Result, 1)
	go func() {
		res, _ := fx.loader.Load(ctx, fx.helix.url("/helix/chat/emotes/global"), KindEmotes)
		done <- res
	}()

	for i := 0; i < 10; i++ {
		select {
		case <-fx.helix.entered:
		case <-time.After(5 * time.Second):
			t.Fatalf("only %d image requests started", i)
		}
	}
	cancel()
	close(fx.helix.gate)

	select {
	case res := <-done:
		// Downloads may be shared with other batches; cancelling this one
		// must not fail them.
		if res.Loaded != 10 || res.Failed != 0 {
			t.Errorf("Result = %+v, want 10 loaded", res)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Load did not return")
	}
}

func TestLoadCancelledBeforeImages(t *testing.T) {
	fx := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The manifest request itself is cancelled.
	if _, err := fx.loader.Load(ctx, fx.helix.url("/helix/chat/emotes/global"), KindEmotes); err == nil {
		t.Fatal("Load with a cancelled context should fail")
	}
	if n := fx.registry.Len(glyph.NamespaceEmote); n != 0 {
		t.Errorf("registered %d emotes", n)
	}
}

func TestLoadSkipsFailedImage(t *testing.T) {
	fx := newFixture(t)
	fx.helix.broken["/img/e3"] = true

	res, err := fx.loader.Load(context.Background(), fx.helix.url("/helix/chat/emotes/global"), KindEmotes)
	if err != nil {
		t.Fatalf("a single 404 must not fail the batch: %v", err)
	}
	if res.Loaded != 9 || res.Failed != 1 {
		t.Errorf("Result = %+v, want 9 loaded, 1 failed", res)
	}
	if _, ok := fx.registry.Lookup(glyph.NamespaceEmote, "Emote3"); ok {
		t.Error("failed emote must not be registered")
	}
	for _, name := range []string{"Emote0", "Emote2", "Emote4", "Emote9"} {
		if _, ok := fx.registry.Lookup(glyph.NamespaceEmote, name); !ok {
			t.Errorf("%s should be registered", name)
		}
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	fx := newFixture(t)
	url := fx.helix.url("/helix/chat/emotes/global")

	if _, err := fx.loader.Load(context.Background(), url, KindEmotes); err != nil {
		t.Fatal(err)
	}
	res, err := fx.loader.Load(context.Background(), url, KindEmotes)
	if err != nil {
		t.Fatal(err)
	}
	if res.Skipped != 10 || res.Loaded != 0 {
		t.Errorf("second Load = %+v, want all skipped", res)
	}
	if hits := fx.helix.hits("/img/e0"); hits != 1 {
		t.Errorf("image fetched %d times, want 1", hits)
	}
	if fx.helix.manifest.Load() != 2 {
		t.Errorf("manifest fetched %d times, want 2", fx.helix.manifest.Load())
	}
}

func TestLoadConcurrentBatchesShareDownloads(t *testing.T) {
	fx := newFixture(t, WithConcurrency(2))
	url := fx.helix.url("/helix/chat/emotes/global")

	var wg sync.WaitGroup
	results := make([]Result, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := fx.loader.Load(context.Background(), url, KindEmotes)
			if err != nil {
				t.Errorf("Load: %v", err)
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	loaded := 0
	for _, r := range results {
		loaded += r.Loaded
		if r.Loaded+r.Skipped != 10 {
			t.Errorf("batch %s: loaded+skipped = %d, want 10", r.BatchID, r.Loaded+r.Skipped)
		}
	}
	if loaded != 10 {
		t.Errorf("total loaded across batches = %d, want 10", loaded)
	}

	fx.queue.Drain()
	if fx.store.Len() != 10 {
		t.Errorf("store has %d records, want 10", fx.store.Len())
	}
}

func TestLoadBadges(t *testing.T) {
	fx := newFixture(t)

	res, err := fx.loader.Load(context.Background(), fx.helix.url("/helix/chat/badges/global"), KindBadges)
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 3 || res.Loaded != 3 {
		t.Errorf("Result = %+v, want 3 loaded", res)
	}
	for _, name := range []string{"subscriber/0", "subscriber/12", "moderator/1"} {
		if _, ok := fx.registry.Lookup(glyph.NamespaceBadge, name); !ok {
			t.Errorf("badge %s not registered", name)
		}
	}
	if _, ok := fx.registry.Lookup(glyph.NamespaceEmote, "moderator/1"); ok {
		t.Error("badges must not register in the emote namespace")
	}
}

func TestLoadManifestFailures(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.loader.Load(context.Background(), fx.helix.url("/helix/broken"), KindEmotes)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError {
		t.Errorf("broken manifest: err = %v, want StatusError 500", err)
	}

	_, err = fx.loader.Load(context.Background(), fx.helix.url("/helix/garbage"), KindEmotes)
	if !errors.Is(err, ErrBadManifest) {
		t.Errorf("garbage manifest: err = %v, want ErrBadManifest", err)
	}

	if fx.registry.Len(glyph.NamespaceEmote) != 0 {
		t.Error("failed manifests must not register anything")
	}
}

func TestStartRunsInBackground(t *testing.T) {
	fx := newFixture(t)
	fx.loader.Start(fx.helix.url("/helix/chat/badges/global"), KindBadges)

	// Wait for the three publishes to be queued, draining as they arrive.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for fx.store.Len() < 3 && ctx.Err() == nil {
			fx.queue.Drain()
		}
	}()
	<-done
	if fx.store.Len() != 3 {
		t.Errorf("store has %d records, want 3", fx.store.Len())
	}
}

func TestParseManifest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		kind    Kind
		want    []string
		wantErr error
	}{
		{
			name: "emotes",
			body: `{"data":[{"id":"25","name":"Kappa","images":{"url_1x":"https://x/25/1.0"}}],"template":"t"}`,
			kind: KindEmotes,
			want: []string{"Kappa emotes/25 https://x/25/1.0"},
		},
		{
			name: "badges",
			body: `{"data":[{"set_id":"vip","versions":[{"id":"1","image_url_1x":"https://b/1"}]}]}`,
			kind: KindBadges,
			want: []string{"vip/1 badges/vip/1 https://b/1"},
		},
		{name: "empty data", body: `{"data":[]}`, kind: KindEmotes, want: []string{}},
		{name: "not json", body: `<html>`, kind: KindEmotes, wantErr: ErrBadManifest},
		{name: "missing data", body: `{"error":"x"}`, kind: KindEmotes, wantErr: ErrBadManifest},
		{name: "wrong shape", body: `{"data":[1,2]}`, kind: KindBadges, wantErr: ErrBadManifest},
		{name: "unknown kind", body: `{"data":[]}`, kind: Kind(9), wantErr: ErrUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assets, err := ParseManifest([]byte(tt.body), tt.kind)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			got := make([]string, len(assets))
			for i, a := range assets {
				got[i] = strings.Join([]string{a.Name, a.SourcePath, a.URL}, " ")
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("assets = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFetchImageWithoutURL(t *testing.T) {
	if _, err := NewClient().FetchImage(context.Background(), ""); !errors.Is(err, ErrNoImageURL) {
		t.Errorf("err = %v, want ErrNoImageURL", err)
	}
}

func TestCorruptImageFails(t *testing.T) {
	fx := newFixture(t)
	a := Asset{Namespace: glyph.NamespaceEmote, Name: "Bad", URL: fx.helix.url("/img/corrupt"), SourcePath: "emotes/bad"}
	res := &batch{log: logging.NewNop()}
	fx.loader.loadAsset(context.Background(), res, a)
	if res.failed.Load() != 1 {
		t.Errorf("failed = %d, want 1", res.failed.Load())
	}
	if _, ok := fx.registry.Lookup(glyph.NamespaceEmote, "Bad"); ok {
		t.Error("undecodable image must not be registered")
	}
}

func TestKindText(t *testing.T) {
	for _, k := range []Kind{KindEmotes, KindBadges} {
		text, err := k.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var got Kind
		if err := got.UnmarshalText(text); err != nil || got != k {
			t.Errorf("round trip of %v = %v, %v", k, got, err)
		}
	}
	var k Kind
	if err := k.UnmarshalText([]byte("stickers")); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
}
