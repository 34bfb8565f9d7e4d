package chatglyph

import (
	"net/http"

	"github.com/gogpu/chatglyph/fetch"
	"github.com/gogpu/chatglyph/glyph"
)

// Option configures a Catalog during creation.
type Option func(*options)

type options struct {
	clientOpts []fetch.ClientOption
	loaderOpts []fetch.LoaderOption
	storeOpts  []glyph.StoreOption
	faceOpts   []glyph.FaceOption
	emotesURL  string
	badgesURL  string
	queue      *glyph.RenderQueue
}

func defaultOptions() options {
	return options{
		emotesURL: fetch.GlobalEmotesURL,
		badgesURL: fetch.GlobalBadgesURL,
	}
}

// WithToken sets the Twitch OAuth token used for manifest requests.
func WithToken(token string) Option {
	return func(o *options) {
		o.clientOpts = append(o.clientOpts, fetch.WithToken(token))
	}
}

// WithClientID overrides the Client-Id header.
func WithClientID(id string) Option {
	return func(o *options) {
		o.clientOpts = append(o.clientOpts, fetch.WithClientID(id))
	}
}

// WithHTTPClient replaces the HTTP client used for manifests and images.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.clientOpts = append(o.clientOpts, fetch.WithHTTPClient(hc))
	}
}

// WithConcurrency bounds concurrent image downloads per manifest.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.loaderOpts = append(o.loaderOpts, fetch.WithConcurrency(n))
	}
}

// WithScale sets the factor mapping image pixels to glyph pixels.
// The default is glyph.DefaultScale.
func WithScale(scale float32) Option {
	return func(o *options) {
		o.loaderOpts = append(o.loaderOpts, fetch.WithScale(scale))
	}
}

// WithAtlasHook runs fn on the render goroutine after each glyph is stored,
// so the host can refresh its glyph atlas.
func WithAtlasHook(fn func(rec *glyph.Record)) Option {
	return func(o *options) {
		o.storeOpts = append(o.storeOpts, glyph.WithAtlasHook(fn))
	}
}

// WithFaceOptions configures the catalog's Face.
func WithFaceOptions(opts ...glyph.FaceOption) Option {
	return func(o *options) {
		o.faceOpts = append(o.faceOpts, opts...)
	}
}

// WithGlobalURLs overrides the manifests loaded by LoadGlobal.
func WithGlobalURLs(emotesURL, badgesURL string) Option {
	return func(o *options) {
		o.emotesURL = emotesURL
		o.badgesURL = badgesURL
	}
}

// WithRenderQueue shares an existing render queue, for hosts that already
// drain one per frame.
func WithRenderQueue(q *glyph.RenderQueue) Option {
	return func(o *options) {
		o.queue = q
	}
}
