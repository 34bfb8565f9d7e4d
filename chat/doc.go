// Package chat routes composed chat lines to the host.
//
// A Dispatcher either echoes a flattened plain-text line to the host's local
// channel (broadcast mode) or composes a rich line and hands it to the
// host's chat surface and narrator. Host failures are logged, never
// returned: a dropped echo must not interrupt chat delivery.
package chat
