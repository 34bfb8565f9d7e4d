package cli

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newHelix serves one emote and one badge, and a badge image that 404s.
func newHelix(t *testing.T) *httptest.Server {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 28, 20))
	img.Set(1, 1, color.NRGBA{R: 0xff, A: 0xff})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/emotes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":"25","name":"Kappa","images":{"url_1x":"` + srv.URL + `/img/25"}}]}`))
	})
	mux.HandleFunc("/badges", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"set_id":"vip","versions":[
			{"id":"1","image_url_1x":"` + srv.URL + `/img/vip"},
			{"id":"2","image_url_1x":"` + srv.URL + `/missing"}]}]}`))
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(buf.Bytes())
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	srv := newHelix(t)
	out, err := execute(t, "fetch", "--emotes-url", srv.URL+"/emotes", "--badges-url", srv.URL+"/badges")
	require.NoError(t, err)

	assert.Contains(t, out, "emotes "+srv.URL+"/emotes: 1 loaded, 0 skipped, 0 failed of 1")
	assert.Contains(t, out, "badges "+srv.URL+"/badges: 1 loaded, 0 skipped, 1 failed of 2")
	assert.Contains(t, out, "emote  U+0001    28x20  Kappa")
	assert.Contains(t, out, "badge  U+0002    28x20  vip/1")
	assert.NotContains(t, out, "vip/2")
}

func TestFetchJSON(t *testing.T) {
	srv := newHelix(t)
	out, err := execute(t, "--format", "json", "fetch",
		"--emotes-url", srv.URL+"/emotes", "--badges-url", srv.URL+"/badges")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   FetchReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Batches, 2)
	assert.Equal(t, "emotes", resp.Data.Batches[0].Kind.String())
	require.Len(t, resp.Data.Bindings, 2)
	assert.Equal(t, BindingView{
		Namespace: "emote", Name: "Kappa", Codepoint: "U+0001",
		Width: 28, Height: 20, Advance: 9, Source: "emotes/25",
	}, resp.Data.Bindings[0])
}

func TestFetchManifestError(t *testing.T) {
	srv := newHelix(t)
	_, err := execute(t, "fetch", "--emotes-url", srv.URL+"/nope", "--badges-url", srv.URL+"/badges")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeFetch)
}

func TestComposeWithFetch(t *testing.T) {
	srv := newHelix(t)
	cfg := writeConfig(t, "emotes_url: "+srv.URL+"/emotes\nbadges_url: "+srv.URL+"/badges\n")
	out, err := execute(t, "--config", cfg, "compose", "--fetch", "--timestamp", "[t] ",
		"--user", "bob", "--badge", "vip/2", "--emote", "Kappa:0-4", "--emote", "Nope:6-9", "Kappa Nope")
	require.NoError(t, err)

	// vip/2 failed to download so it is left out; Nope is unknown.
	assert.Equal(t, `[t] bob: [Kappa] [Nope]
  literal "[t] "
  literal "bob"
  literal ": "
  glyph   emote Kappa U+0001
  literal " "
  glyph   emote Nope unresolved
`, out)
}

func TestFetchOptionsChannel(t *testing.T) {
	cfg := DefaultConfig()
	(&FetchOptions{Channel: "1234"}).apply(&cfg)
	assert.Contains(t, cfg.EmotesURL, "broadcaster_id=1234")
	assert.Contains(t, cfg.BadgesURL, "broadcaster_id=1234")

	(&FetchOptions{Channel: "1234", BadgesURL: "http://x/b"}).apply(&cfg)
	assert.Equal(t, "http://x/b", cfg.BadgesURL)
}
