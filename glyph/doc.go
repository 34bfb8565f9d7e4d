// Package glyph maps remote emote and badge images to codepoints that a text
// renderer can draw like any other character.
//
// The pipeline has four parts:
//
//   - Registry: assigns each named image a codepoint, per Namespace
//   - Record: the decoded image plus the metrics the renderer needs
//   - Store: codepoint to Record, mutated only on the render goroutine
//   - Face: resolves codepoints to glyph bitmaps for the host renderer
//
// Codepoints come from one cursor shared by both namespaces, so an emote and
// a badge drawn in the same text run never collide. The cursor starts at 1
// and never yields 32, which renderers lay out as whitespace.
//
// # Render goroutine
//
// Hosts that upload glyphs to a GPU atlas can only do so from one goroutine.
// Store.Publish is therefore safe from any goroutine but only queues the
// insert; the host calls RenderQueue.Drain from its render loop:
//
//	queue := glyph.NewRenderQueue()
//	store := glyph.NewStore(queue)
//	// ... in the render loop:
//	queue.Drain()
package glyph
