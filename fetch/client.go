package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Helix endpoints for the global manifests.
const (
	GlobalEmotesURL = "https://api.twitch.tv/helix/chat/emotes/global"
	GlobalBadgesURL = "https://api.twitch.tv/helix/chat/badges/global"
)

// DefaultClientID is the public client id of the Twitch web chat, which
// accepts tokens issued to chat clients.
const DefaultClientID = "q6batx0epp608isickayubi39itsckt"

const (
	dialTimeout    = 20 * time.Second
	requestTimeout = 2 * time.Minute

	// MaxManifestBytes bounds how much of a manifest body is read.
	MaxManifestBytes = 16 << 20

	// MaxImageBytes bounds how much of an image body is read.
	MaxImageBytes = 4 << 20
)

// ChannelEmotesURL returns the manifest URL for a broadcaster's emotes.
func ChannelEmotesURL(broadcasterID string) string {
	return "https://api.twitch.tv/helix/chat/emotes?broadcaster_id=" + broadcasterID
}

// ChannelBadgesURL returns the manifest URL for a broadcaster's badges.
func ChannelBadgesURL(broadcasterID string) string {
	return "https://api.twitch.tv/helix/chat/badges?broadcaster_id=" + broadcasterID
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithToken sets the OAuth token sent as a bearer token. An IRC-style
// "oauth:" prefix is removed.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = strings.TrimPrefix(token, "oauth:")
	}
}

// WithClientID sets the Client-Id header. The default is DefaultClientID.
func WithClientID(id string) ClientOption {
	return func(c *Client) {
		c.clientID = id
	}
}

// Client talks to the Helix API and the image CDN.
// Client is safe for concurrent use.
type Client struct {
	http     *http.Client
	token    string
	clientID string
}

// NewClient creates a client with a 20s dial timeout and a 2m request
// timeout.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http:     defaultHTTPClient(),
		clientID: DefaultClientID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: dialTimeout}).DialContext
	transport.ForceAttemptHTTP2 = false
	return &http.Client{
		Transport: transport,
		Timeout:   requestTimeout,
	}
}

// FetchManifest downloads and parses the manifest at url.
func (c *Client) FetchManifest(ctx context.Context, url string, kind Kind) ([]Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: manifest request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Client-Id", c.clientID)

	body, err := c.do(req, MaxManifestBytes)
	if err != nil {
		return nil, err
	}
	return ParseManifest(body, kind)
}

// FetchImage downloads the raw image bytes at url.
func (c *Client) FetchImage(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, ErrNoImageURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: image request: %w", err)
	}
	return c.do(req, MaxImageBytes)
}

func (c *Client) do(req *http.Request, limit int64) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("fetch: read %s: %w", req.URL, err)
	}
	return body, nil
}
