// Package rate implements Redis-backed fixed-window counters for
// throttling burst traffic against a single identifier.
//
// Fixed-window semantics: INCR the counter, set the window TTL only on
// the first hit, reject once the count exceeds the limit. Login
// throttling uses the "rl:login:" prefix keyed by the submitted
// username, counting every attempt regardless of outcome.
package rate
