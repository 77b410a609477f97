// Package notifications pushes attempt outcomes to ntfy.
//
// The topic comes from config.toml (or VID2MANGA_NTFY_TOPIC). Without one the
// service degrades to a no-op so callers never branch on whether push is
// enabled. Dispatcher adapts the service to a workflow observer and sends in
// the background so a slow ntfy server never holds up event delivery.
package notifications
