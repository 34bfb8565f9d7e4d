package chat

import (
	"fmt"
	"image/color"
	"time"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/gogpu/chatglyph/compose"
	"github.com/gogpu/chatglyph/internal/logging"
)

// formattingCode introduces colour and style codes in the host's legacy
// text format. User text must never carry it.
const formattingCode = '§'

// NotificationColor is the colour of Notify lines.
var NotificationColor color.Color = color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}

var stripFormatting = runes.Remove(runes.Predicate(func(r rune) bool {
	return r == formattingCode
}))

// Sanitize removes host formatting codes from s.
func Sanitize(s string) string {
	out, _, err := transform.String(stripFormatting, s)
	if err != nil {
		// runes.Remove never fails on valid or invalid UTF-8.
		return s
	}
	return out
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLocalEcho sets the plain-text echo target used in broadcast mode.
func WithLocalEcho(e LocalEcho) DispatcherOption {
	return func(d *Dispatcher) {
		d.echo = e
	}
}

// WithChatSurface sets where rich lines are added.
func WithChatSurface(s ChatSurface) DispatcherOption {
	return func(d *Dispatcher) {
		d.surface = s
	}
}

// WithNarrator sets the accessibility narrator.
func WithNarrator(n Narrator) DispatcherOption {
	return func(d *Dispatcher) {
		d.narrator = n
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// Dispatcher delivers chat lines to the host. Dispatch runs synchronously
// on the caller, normally the render goroutine.
type Dispatcher struct {
	config   Config
	composer *compose.Composer
	echo     LocalEcho
	surface  ChatSurface
	narrator Narrator
	now      func() time.Time
}

// NewDispatcher creates a dispatcher. Hosts not passed as options are
// skipped.
func NewDispatcher(cfg Config, composer *compose.Composer, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		config:   cfg,
		composer: composer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Config returns the dispatcher settings.
func (d *Dispatcher) Config() Config {
	return d.config
}

// Dispatch delivers line. A line without a timestamp is stamped with the
// current time.
func (d *Dispatcher) Dispatch(line compose.Line) {
	if d.config.Broadcast {
		d.broadcast(line)
		return
	}

	if line.Timestamp == "" {
		line.Timestamp = d.config.FormatTimestamp(d.now())
	}
	text := d.composer.Line(line)
	if d.surface != nil {
		d.surface.AddLine(text)
	}
	if d.narrator != nil {
		d.narrator.Narrate(Flatten(line))
	}
}

// Flatten returns line as plain text, without timestamp or badges.
func Flatten(line compose.Line) string {
	if line.Action {
		return "* " + line.Username + " " + line.Body
	}
	return line.Username + ": " + line.Body
}

func (d *Dispatcher) broadcast(line compose.Line) {
	text := Sanitize(d.config.BroadcastPrefix + line.Username + ": " + line.Body)
	if err := d.echoSafely(text); err != nil {
		logging.Logger().Error("chat: failed to broadcast message", "user", line.Username, "err", err)
	}
}

// echoSafely converts a missing echo target or a panicking host into an
// error so chat handling continues.
func (d *Dispatcher) echoSafely(text string) (err error) {
	if d.echo == nil {
		return ErrNoLocalEcho
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chat: local echo panicked: %v", r)
		}
	}()
	return d.echo.Echo(text)
}

// Notify adds a status line, such as "integration disabled", to the chat
// surface in NotificationColor.
func (d *Dispatcher) Notify(msg string) {
	if d.surface == nil {
		logging.Logger().Warn("chat: notification dropped, no chat surface", "msg", msg)
		return
	}
	d.surface.AddLine(compose.Text{compose.Literal(msg)}.Colored(NotificationColor))
}
