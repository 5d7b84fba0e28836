// Package audit buffers and delivers operation audit events.
//
// [Event] is the admin-console audit record: who did what to which
// resource, with before/after snapshots and a ULID trace id that ties
// the event to the request that produced it. [Dispatcher] relays events
// to a caller-supplied [Sink] on a single background goroutine; with
// drop-if-full enabled a slow sink costs dropped events, never a
// blocked login.
//
// The package only moves events. Deciding which operations get audited
// is the engine's job, and durable storage belongs to whatever Sink the
// caller plugs in.
package audit
