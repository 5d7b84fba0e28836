// Package token owns the Redis-side lifecycle of issued token pairs.
//
// Every issuance writes two records in one pipeline: an access record
// under "at:<jti>" and a refresh-state record under "rt:<sha256 of the
// raw refresh token>", both expiring exactly when their token does. The
// refresh record carries a status that moves active -> revoked at most
// once; the transition is a Lua compare-and-set so two concurrent
// rotations of the same token produce exactly one winner.
//
// Consumed or replayed refresh tokens are blocked a second way through
// the "bl:<jti>" blacklist, which is always consulted before the state
// record so a replay is rejected even if the record was already gone.
package token
