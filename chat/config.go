package chat

import "time"

// Config holds the host-facing chat settings.
type Config struct {
	// Broadcast echoes messages as plain text through LocalEcho instead of
	// adding rich lines to the chat surface.
	Broadcast bool `yaml:"broadcast" json:"broadcast"`

	// BroadcastPrefix is prepended to every echoed line.
	BroadcastPrefix string `yaml:"broadcast_prefix" json:"broadcast_prefix"`

	// DateFormat is a Go time layout for line timestamps. Empty disables
	// timestamps.
	DateFormat string `yaml:"date_format" json:"date_format"`
}

// DefaultConfig returns the default chat settings.
func DefaultConfig() Config {
	return Config{
		BroadcastPrefix: "[Twitch] ",
		DateFormat:      "[15:04] ",
	}
}

// FormatTimestamp formats t with DateFormat.
func (c Config) FormatTimestamp(t time.Time) string {
	if c.DateFormat == "" {
		return ""
	}
	return t.Format(c.DateFormat)
}

// FormatSentTimestamp formats a server timestamp given in Unix
// milliseconds, such as the tmi-sent-ts tag.
func (c Config) FormatSentTimestamp(ms int64) string {
	return c.FormatTimestamp(time.UnixMilli(ms))
}
