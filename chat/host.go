package chat

import (
	"errors"

	"github.com/gogpu/chatglyph/compose"
)

// ErrNoLocalEcho is returned by LocalEcho implementations when there is no
// local channel to echo to, e.g. before the player joins a world.
var ErrNoLocalEcho = errors.New("chat: no local echo channel")

// LocalEcho shows a plain-text line to the local user only.
type LocalEcho interface {
	Echo(text string) error
}

// ChatSurface displays rich chat lines.
type ChatSurface interface {
	AddLine(text compose.Text)
}

// Narrator reads chat lines aloud for accessibility.
type Narrator interface {
	Narrate(text string)
}
