package glyph

import "errors"

// Sentinel errors for the glyph package.
var (
	// ErrDuplicateCodepoint is returned when a record is stored under a
	// codepoint that already has one.
	ErrDuplicateCodepoint = errors.New("glyph: duplicate codepoint")

	// ErrNilImage is returned for a record without image data.
	ErrNilImage = errors.New("glyph: record has no image")

	// ErrNoCodepoint is returned for a record carrying NoCodepoint.
	ErrNoCodepoint = errors.New("glyph: record has no codepoint")

	// ErrQueueClosed is returned when work is offered to a closed render
	// queue.
	ErrQueueClosed = errors.New("glyph: render queue closed")
)
