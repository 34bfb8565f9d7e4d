package fetch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"

	// Image formats served by the Twitch CDN and third-party emote hosts.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/gogpu/chatglyph/glyph"
	"github.com/gogpu/chatglyph/internal/logging"
)

// DefaultConcurrency is the number of images fetched at once per batch.
const DefaultConcurrency = 8

// Result summarises one batch.
type Result struct {
	BatchID uuid.UUID `json:"batch_id"`
	URL     string    `json:"url"`
	Kind    Kind      `json:"kind"`

	// Total is the number of assets in the manifest.
	Total int `json:"total"`

	// Loaded assets were fetched, registered, and published.
	Loaded int `json:"loaded"`

	// Skipped assets were already registered.
	Skipped int `json:"skipped"`

	// Failed assets could not be fetched or decoded.
	Failed int `json:"failed"`
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithConcurrency bounds how many images one batch fetches at once.
// Values <= 0 use DefaultConcurrency.
func WithConcurrency(n int) LoaderOption {
	return func(l *Loader) {
		l.concurrency = n
	}
}

// WithScale sets the scale factor used to derive glyph metrics.
func WithScale(scale float32) LoaderOption {
	return func(l *Loader) {
		l.scale = scale
	}
}

// Loader fetches manifests and registers their images.
// Loader is safe for concurrent use; batches may overlap.
type Loader struct {
	client      *Client
	registry    *glyph.Registry
	store       *glyph.Store
	concurrency int
	scale       float32

	// inflight collapses concurrent fetches of the same name from
	// overlapping batches into one download.
	inflight singleflight.Group
}

// NewLoader creates a loader that registers into registry and publishes
// records to store.
func NewLoader(client *Client, registry *glyph.Registry, store *glyph.Store, opts ...LoaderOption) *Loader {
	l := &Loader{
		client:      client,
		registry:    registry,
		store:       store,
		concurrency: DefaultConcurrency,
		scale:       glyph.DefaultScale,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.concurrency <= 0 {
		l.concurrency = DefaultConcurrency
	}
	return l
}

// Start runs a batch on a new goroutine and returns immediately. Failures
// are logged.
func (l *Loader) Start(url string, kind Kind) {
	go func() {
		if _, err := l.Load(context.Background(), url, kind); err != nil {
			logging.Logger().Error("fetch: batch failed", "url", url, "kind", kind.String(), "err", err)
		}
	}()
}

// batch accumulates per-item outcomes from concurrent workers.
type batch struct {
	log     *slog.Logger
	loaded  atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

// Load runs one batch and waits for it. Records are published to the store
// and become visible once the render queue drains.
//
// The returned error is non-nil only when the manifest itself could not be
// fetched or parsed; in that case nothing was registered.
//
// Cancelling ctx stops the manifest request and images not yet started.
// Image downloads already in flight finish, since other batches may share
// them.
func (l *Loader) Load(ctx context.Context, url string, kind Kind) (Result, error) {
	res := Result{BatchID: uuid.New(), URL: url, Kind: kind}
	b := &batch{
		log: logging.Logger().With("batch", res.BatchID.String(), "kind", kind.String()),
	}

	assets, err := l.client.FetchManifest(ctx, url, kind)
	if err != nil {
		b.log.Warn("fetch: could not load manifest", "url", url, "err", err)
		return res, fmt.Errorf("fetch: %s manifest: %w", kind, err)
	}
	res.Total = len(assets)

	var g errgroup.Group
	g.SetLimit(l.concurrency)
	for _, a := range assets {
		a := a
		g.Go(func() error {
			l.loadAsset(ctx, b, a)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	res.Loaded = int(b.loaded.Load())
	res.Skipped = int(b.skipped.Load())
	res.Failed = int(b.failed.Load())

	b.log.Info("fetch: loaded manifest", "url", url,
		"total", res.Total, "loaded", res.Loaded, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}

func (l *Loader) loadAsset(ctx context.Context, b *batch, a Asset) {
	if _, ok := l.registry.Lookup(a.Namespace, a.Name); ok {
		b.skipped.Add(1)
		return
	}

	if err := ctx.Err(); err != nil {
		b.failed.Add(1)
		b.log.Warn("fetch: batch cancelled before image", "name", a.Name, "err", err)
		return
	}

	// Other batches may wait on this flight, so it outlives ctx.
	flightCtx := context.WithoutCancel(ctx)
	ran := false
	_, err, _ := l.inflight.Do(a.Namespace.String()+"\x00"+a.Name, func() (any, error) {
		ran = true
		return nil, l.fetchAsset(flightCtx, b, a)
	})

	switch {
	case err != nil:
		b.failed.Add(1)
		b.log.Warn("fetch: could not load image", "name", a.Name, "url", a.URL, "err", err)
	case !ran:
		// Another batch downloaded it for us.
		b.skipped.Add(1)
	}
}

// fetchAsset downloads, decodes, registers, and publishes one asset.
// It counts loaded and skipped outcomes itself; errors are counted by the
// caller.
func (l *Loader) fetchAsset(ctx context.Context, b *batch, a Asset) error {
	// A flight for the same name may have just finished.
	if _, ok := l.registry.Lookup(a.Namespace, a.Name); ok {
		b.skipped.Add(1)
		return nil
	}

	data, err := l.client.FetchImage(ctx, a.URL)
	if err != nil {
		return err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("fetch: decode %s: %w", a.SourcePath, err)
	}

	// A name bound without a record would be skipped by every later batch.
	if l.store.Queue().Closed() {
		return glyph.ErrQueueClosed
	}
	cp, created := l.registry.Register(a.Namespace, a.Name)
	if !created {
		b.skipped.Add(1)
		return nil
	}
	rec, err := glyph.NewRecord(cp, img, l.scale, a.SourcePath)
	if err != nil {
		return err
	}
	if !l.store.Publish(rec) {
		return fmt.Errorf("%w: %s", glyph.ErrQueueClosed, a.SourcePath)
	}
	b.loaded.Add(1)

	b.log.Debug("fetch: loaded image", "name", a.Name, "codepoint", int32(cp), "format", format,
		"width", rec.Width, "height", rec.Height)
	return nil
}
