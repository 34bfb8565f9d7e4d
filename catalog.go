package chatglyph

import (
	"context"

	"github.com/gogpu/chatglyph/chat"
	"github.com/gogpu/chatglyph/compose"
	"github.com/gogpu/chatglyph/fetch"
	"github.com/gogpu/chatglyph/glyph"
)

// Catalog wires the glyph registry, store, fetcher, and compositor
// together. Create one per application and pass it to whatever needs
// glyphs; there is no package-level instance.
//
// Catalog is safe for concurrent use. Drain must be called from the render
// goroutine.
type Catalog struct {
	registry *glyph.Registry
	queue    *glyph.RenderQueue
	store    *glyph.Store
	face     *glyph.Face
	client   *fetch.Client
	loader   *fetch.Loader
	composer *compose.Composer

	emotesURL string
	badgesURL string
}

// New creates an empty catalog. Nothing is downloaded until LoadGlobal,
// LoadChannel, or Load is called.
func New(opts ...Option) *Catalog {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	queue := o.queue
	if queue == nil {
		queue = glyph.NewRenderQueue()
	}
	registry := glyph.NewRegistry()
	store := glyph.NewStore(queue, o.storeOpts...)
	client := fetch.NewClient(o.clientOpts...)

	return &Catalog{
		registry:  registry,
		queue:     queue,
		store:     store,
		face:      glyph.NewFace(store, o.faceOpts...),
		client:    client,
		loader:    fetch.NewLoader(client, registry, store, o.loaderOpts...),
		composer:  compose.NewComposer(registry),
		emotesURL: o.emotesURL,
		badgesURL: o.badgesURL,
	}
}

// LoadGlobal starts downloading the global emotes and badges in the
// background and returns immediately.
func (c *Catalog) LoadGlobal() {
	c.loader.Start(c.emotesURL, fetch.KindEmotes)
	c.loader.Start(c.badgesURL, fetch.KindBadges)
}

// LoadChannel starts downloading a broadcaster's emotes and badges in the
// background and returns immediately.
func (c *Catalog) LoadChannel(broadcasterID string) {
	c.loader.Start(fetch.ChannelEmotesURL(broadcasterID), fetch.KindEmotes)
	c.loader.Start(fetch.ChannelBadgesURL(broadcasterID), fetch.KindBadges)
}

// Load downloads one manifest and waits for it. The glyphs become visible
// to the Face after the next Drain.
func (c *Catalog) Load(ctx context.Context, url string, kind fetch.Kind) (fetch.Result, error) {
	return c.loader.Load(ctx, url, kind)
}

// Drain applies queued store updates on the calling goroutine and returns
// how many ran. Hosts call it once per frame from the render goroutine.
func (c *Catalog) Drain() int {
	return c.queue.Drain()
}

// Dispatcher returns a chat dispatcher composing against this catalog.
func (c *Catalog) Dispatcher(cfg chat.Config, opts ...chat.DispatcherOption) *chat.Dispatcher {
	return chat.NewDispatcher(cfg, c.composer, opts...)
}

// Registry returns the catalog's name to codepoint registry.
func (c *Catalog) Registry() *glyph.Registry { return c.registry }

// Store returns the catalog's glyph store.
func (c *Catalog) Store() *glyph.Store { return c.store }

// Queue returns the render queue Drain empties.
func (c *Catalog) Queue() *glyph.RenderQueue { return c.queue }

// Face returns the glyph resolver for the host renderer.
func (c *Catalog) Face() *glyph.Face { return c.face }

// Composer returns the chat line compositor.
func (c *Catalog) Composer() *compose.Composer { return c.composer }

// Loader returns the manifest loader.
func (c *Catalog) Loader() *fetch.Loader { return c.loader }
