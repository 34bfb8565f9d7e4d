// Package chatglyph shows Twitch emotes and badges inline in a host's chat
// renderer by treating each remote image as a font glyph.
//
// # Overview
//
// A Catalog owns the glyph registry, the glyph store, and the fetcher that
// fills them. Images are downloaded in the background; each one is bound to
// a private codepoint, and the chat compositor emits that codepoint wherever
// the emote appears in a message. The host draws those codepoints through
// the catalog's Face, which implements golang.org/x/image/font.Face.
//
// # Quick Start
//
//	cat := chatglyph.New(chatglyph.WithToken(os.Getenv("TWITCH_TOKEN")))
//	cat.LoadGlobal() // returns immediately
//
//	d := cat.Dispatcher(chat.DefaultConfig(), chat.WithChatSurface(hud))
//
//	// In the render loop:
//	cat.Drain()
//	d.Dispatch(compose.Line{Username: "bob", Body: "hi Kappa",
//	    Placements: []compose.Placement{{Emote: "Kappa", Start: 3, End: 7}}})
//
// # Architecture
//
//   - glyph: registry, records, store, render queue, font.Face adapter
//   - fetch: Helix API client and batch loader
//   - compose: rich text runs and the chat line compositor
//   - chat: dispatch to the host's chat, echo, and narration surfaces
//
// # Threading
//
// Downloads run on their own goroutines. Store mutations are queued and run
// only when the host calls Drain, so a host whose glyph atlas is bound to one
// goroutine calls Drain from that goroutine. Composition never waits for a
// download: names not yet loaded render as the host's fallback glyph.
package chatglyph
